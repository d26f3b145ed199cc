package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/replay"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

var (
	replayFixture string
	replayExport  string
	replayRecord  bool
	replayLast    int
)

// errDiverged makes the command exit non-zero without printing usage.
type errDiverged struct{ n int }

func (e errDiverged) Error() string { return fmt.Sprintf("%d case(s) diverged", e.n) }

// #region replay
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run fixtures or stored sessions through the engine",
	Long: `Replay detects nondeterminism and drift.

  --fixture path   replay a JSON fixture and compare against its expectations
  --export path    write logged diagnoses from --db as a fixture
  (neither)        re-diagnose completed sessions in --db and compare with the
                   stored type code and synchrony`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFixture, "fixture", "", "path to fixture JSON (fixture mode)")
	replayCmd.Flags().StringVar(&replayExport, "export", "", "write a fixture exported from the diagnosis log")
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "log session replay outcomes to the diagnosis log")
	replayCmd.Flags().IntVar(&replayLast, "last", 1000, "limit on sessions or log entries read")
	replayCmd.MarkFlagsMutuallyExclusive("fixture", "export")
}

func runReplay(cmd *cobra.Command, args []string) error {
	switch {
	case replayFixture != "":
		return runFixtureMode(cmd.OutOrStdout(), replayFixture)
	case replayExport != "":
		return runExportMode(cmd.OutOrStdout(), replayExport)
	default:
		return runSessionMode(cmd.OutOrStdout())
	}
}

// #endregion replay

// #region modes
func runFixtureMode(w io.Writer, path string) error {
	eng, err := loadEngine()
	if err != nil {
		return err
	}
	f, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}
	cases, err := f.ToCases(eng.Bank())
	if err != nil {
		return err
	}
	results := replay.Replay(eng, cases)
	if jsonOut {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%-24s| %-8s| %-8s| %-17s| %s\n", "Case", "Expected", "Replayed", "Action", "Reason")
		fmt.Fprintf(w, "%-24s+%-9s+%-9s+%-18s+%s\n",
			"------------------------", "---------", "---------", "------------------", "------")
		for i, r := range results {
			fmt.Fprintf(w, "%-24s| %-8s| %-8s| %-17s| %s\n",
				r.Name, orDash(cases[i].Expected.TypeCode), orDash(string(r.Result.TypeCode)), r.Action, r.Reason)
		}
	}
	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d mismatch, %d nondeterministic, %d error\n",
		s.Total, s.Matches, s.Mismatches, s.Nondeterministic, s.Errors)
	if !s.OK() {
		return errDiverged{n: s.Total - s.Matches}
	}
	return nil
}

func runSessionMode(w io.Writer) error {
	eng, err := loadEngine()
	if err != nil {
		return err
	}
	store, err := session.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	results, err := replay.ReplaySessions(store, eng, replayLast)
	if err != nil {
		return err
	}
	if replayRecord {
		if err := replay.RecordSessions(store.DB(), results, nil); err != nil {
			return err
		}
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "no completed sessions found")
		return nil
	}

	if jsonOut {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%-36s| %-6s| %-8s| %-5s| %-5s| %s\n", "Session", "Stored", "Replayed", "Sync", "Now", "Match")
		for _, r := range results {
			match := "OK"
			if r.Action != replay.SessionMatch {
				match = r.Action
			}
			fmt.Fprintf(w, "%-36s| %-6s| %-8s| %5d| %5d| %s\n",
				r.SessionID, r.StoredCode, orDash(string(r.Result.TypeCode)), r.StoredSync, r.Result.SynchronyPercent, match)
		}
	}

	var matched, drifted, skipped int
	for _, r := range results {
		switch r.Action {
		case replay.SessionMatch:
			matched++
		case replay.SessionDrift:
			drifted++
		default:
			skipped++
		}
	}
	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d drift, %d skipped\n", len(results), matched, drifted, skipped)
	if drifted > 0 {
		logger.Warn("stored sessions drifted", zap.Int("drift", drifted))
		return errDiverged{n: drifted}
	}
	return nil
}

func runExportMode(w io.Writer, out string) error {
	store, err := session.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	f, err := replay.ExportFixture(store.DB(), "exported from "+dbPath, replayLast)
	if err != nil {
		return err
	}
	if len(f.Cases) == 0 {
		return fmt.Errorf("no logged diagnoses in %s", dbPath)
	}
	if err := replay.WriteFixture(out, f); err != nil {
		return err
	}
	fmt.Fprintf(w, "exported %d case(s) to %s\n", len(f.Cases), out)
	return nil
}

// #endregion modes
