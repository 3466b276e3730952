// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/extract"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract study characteristics and risk of bias from full texts",
	Long: `Extract sends each converted full text to the configured language
model twice: once for the five PICO study-characteristic fields and once
for a five-domain risk-of-bias assessment. Results land in the ledger and
feed the report and CSV exports.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	j, err := newJudge(cfg)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.LoadArticles(cmd.Context())
	if err != nil {
		return err
	}
	var converted []string
	for _, rec := range recs {
		if rec.Status == types.StatusConverted {
			converted = append(converted, rec.PMID)
		}
	}
	if len(converted) == 0 {
		fmt.Println("no converted articles to extract")
		return nil
	}

	results, summary := extract.Batch(cmd.Context(), j, converted, cfg.Extraction, os.Stdout)
	for _, r := range results {
		if err := s.UpdateExtraction(cmd.Context(), r.PMID, r.PICO, r.RiskOfBias); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d article(s) failed extraction", summary.Failed)
	}
	return nil
}
