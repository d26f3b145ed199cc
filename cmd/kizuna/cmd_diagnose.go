package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/rpc"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

var (
	diagInput        string
	diagAnswersA     string
	diagAnswersB     string
	diagRelationship string
	diagMBTIA        string
	diagMBTIB        string
	diagAgeA         int
	diagAgeB         int
	diagRemote       string
)

// #region diagnose
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Diagnose one answer pair",
	Long: `Diagnose one answer pair without creating a session.

Pass either --input with a full JSON input, or --a and --b with JSON objects
mapping question id to raw answer.`,
	Example: `  kizuna diagnose --a host.json --b guest.json --relationship lover
  kizuna diagnose --input pair.json --json`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagInput, "input", "", "JSON file with the full diagnosis input")
	diagnoseCmd.Flags().StringVar(&diagAnswersA, "a", "", "JSON answers of respondent A")
	diagnoseCmd.Flags().StringVar(&diagAnswersB, "b", "", "JSON answers of respondent B")
	diagnoseCmd.Flags().StringVar(&diagRelationship, "relationship", "", "relationship context")
	diagnoseCmd.Flags().StringVar(&diagMBTIA, "mbti-a", "", "MBTI type of respondent A")
	diagnoseCmd.Flags().StringVar(&diagMBTIB, "mbti-b", "", "MBTI type of respondent B")
	diagnoseCmd.Flags().IntVar(&diagAgeA, "age-a", 0, "age of respondent A")
	diagnoseCmd.Flags().IntVar(&diagAgeB, "age-b", 0, "age of respondent B")
	diagnoseCmd.Flags().StringVar(&diagRemote, "remote", "", "diagnose on a running server at this address")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	in, err := diagnoseInput()
	if err != nil {
		return err
	}

	var res engine.Result
	if diagRemote != "" {
		client, err := rpc.NewClient(diagRemote)
		if err != nil {
			return err
		}
		defer client.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if res, err = client.Diagnose(ctx, in); err != nil {
			return err
		}
	} else {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		if res, err = eng.Diagnose(in); err != nil {
			return err
		}
	}

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func diagnoseInput() (engine.Input, error) {
	var in engine.Input
	if diagInput != "" {
		if diagAnswersA != "" || diagAnswersB != "" {
			return in, fmt.Errorf("--input cannot be combined with --a/--b")
		}
		if err := readJSON(diagInput, &in); err != nil {
			return in, err
		}
		return in, nil
	}
	if diagAnswersA == "" || diagAnswersB == "" {
		return in, fmt.Errorf("either --input or both --a and --b are required")
	}
	var a, b scoring.AnswerSet
	if err := readJSON(diagAnswersA, &a); err != nil {
		return in, err
	}
	if err := readJSON(diagAnswersB, &b); err != nil {
		return in, err
	}
	return engine.Input{
		AnswersA:     a,
		AnswersB:     b,
		LabelA:       "A",
		LabelB:       "B",
		ProfileA:     engine.Profile{MBTI: diagMBTIA, Age: diagAgeA},
		ProfileB:     engine.Profile{MBTI: diagMBTIB, Age: diagAgeB},
		Relationship: diagRelationship,
	}, nil
}

// #endregion diagnose

// #region output
func printResult(w io.Writer, res engine.Result) {
	match := "exact"
	if !res.ExactMatch {
		match = "nearest"
	}
	fmt.Fprintf(w, "Type:       %s  %s (%s, %s)\n", res.TypeCode, res.Category.Name, res.Category.Slug, match)
	fmt.Fprintf(w, "Synchrony:  %d%%\n", res.SynchronyPercent)
	fmt.Fprintf(w, "Divergence: %d%%\n", res.OverallDivergencePercent)
	fmt.Fprintf(w, "Profile:    fit=%d stability=%d kizuna=%d\n", res.Profile.Fit, res.Profile.Stability, res.Profile.Kizuna)
	if res.Overridden {
		fmt.Fprintf(w, "Override:   %s\n", res.OverrideReason)
	}
	if res.Incomplete {
		fmt.Fprintf(w, "WARNING:    incomplete answers (missing A=%v B=%v unshared=%v)\n", res.MissingA, res.MissingB, res.Unshared)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-4s %-14s %7s %7s %7s %7s %7s %5s\n", "AXIS", "LABEL", "A", "B", "PAIR", "GAP", "THRESH", "DIV%")
	for _, d := range res.Axes {
		fmt.Fprintf(w, "%-4s %-14s %7.3f %7.3f %7.3f %7.3f %7.3f %5d\n",
			d.Axis, d.Label.Symbol+" "+d.Label.Name, d.ScoreA, d.ScoreB, d.PairScore, d.Gap, d.Threshold, d.DivergencePercent)
	}
}

// #endregion output
