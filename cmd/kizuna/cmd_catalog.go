package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

// #region catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the category catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every category in declaration order",
	RunE:  runCatalogList,
}

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Resolve a type code to its category (fallbacks are logged to --db)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogLookup,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogLookupCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine()
	if err != nil {
		return err
	}
	records := eng.Resolver().Records()
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	w := cmd.OutOrStdout()
	for _, a := range eng.Axes().Axes() {
		fmt.Fprintf(w, "%s %-8s %s=%s  %s=%s\n", a.ID, a.Name,
			a.Positive.Symbol, a.Positive.Name, a.Negative.Symbol, a.Negative.Name)
	}
	fmt.Fprintln(w)
	for _, r := range records {
		fmt.Fprintf(w, "%s  %-24s %s\n", r.Code, r.Slug, r.Name)
	}
	return nil
}

func runCatalogLookup(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	code := axis.Code(strings.TrimSpace(args[0]))
	res, err := svc.Lookup(ctx, code)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	w := cmd.OutOrStdout()
	if res.Exact {
		fmt.Fprintf(w, "%s  %s (%s)\n", res.Record.Code, res.Record.Name, res.Record.Slug)
		return nil
	}
	fmt.Fprintf(w, "%s not in catalog; nearest %s  %s (%d/%d positions)\n",
		code, res.Record.Code, res.Record.Name, res.Matches, axis.Count)
	return nil
}

// #endregion catalog
