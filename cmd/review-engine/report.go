// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/query"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the review report and CSV tables",
	Long: `Report computes the review funnel from the ledger, exports the CSV
tables, and renders the Markdown report with a PRISMA-style flow diagram.
A run with zero included studies still produces a complete report.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("lang", "", "report language: EN or KO (default EN)")
	reportCmd.Flags().String("picos", "review.yaml", "PICOS criteria file")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		known := false
		for _, l := range report.Languages() {
			if strings.EqualFold(lang, l) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown report language %q (available: %s)",
				lang, strings.Join(report.Languages(), ", "))
		}
		cfg.Report.Lang = strings.ToUpper(lang)
	}

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.ComputeStats(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.ExportCSV(cmd.Context()); err != nil {
		return err
	}

	articles, err := s.LoadArticles(cmd.Context())
	if err != nil {
		return err
	}

	in := report.Input{
		Stats:       stats,
		GeneratedAt: time.Now(),
		Articles:    articles,
	}
	// Criteria are optional here; the report renders without them.
	specPath, _ := cmd.Flags().GetString("picos")
	if spec, err := query.LoadSpec(specPath); err == nil {
		in.Spec = spec
		in.Query = query.Build(spec)
	}

	path, err := report.WriteFile(in, cfg.Report.Lang, cfg.DataDir)
	if err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", path)
	return nil
}
