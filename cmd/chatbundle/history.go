// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chatbundle/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [term]",
	Short: "List recent exports, optionally filtered by title",
	Long: `History lists exports recorded by the export and watch commands, newest
first. A term filters by case-insensitive title substring.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum rows (default history.max_results)")
	historyCmd.Flags().Bool("yaml", false, "print records as YAML")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if asYAML && len(args) == 0 {
		return store.WriteYAML(ctx, os.Stdout, limit)
	}

	recs, err := store.Search(ctx, strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stdout, "No exports recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPORTED\tTITLE\tIMAGES\tPDF\tBUNDLE")
	for _, r := range recs {
		pdf := "yes"
		if !r.Compiled {
			pdf = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			r.ExportedAt.Local().Format("2006-01-02 15:04"), r.Title, r.Resolved, r.Assets, pdf, r.BundlePath)
	}
	return tw.Flush()
}
