// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen normalized articles by title and abstract",
	Long: `Screen sends each normalized article's title and abstract to the
configured language model together with the PICOS criteria and records an
Included or Excluded decision. When the model call fails the article is
included so a human can judge it at full text.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().String("picos", "review.yaml", "PICOS criteria file")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	specPath, _ := cmd.Flags().GetString("picos")
	spec, err := loadSpec(specPath)
	if err != nil {
		return err
	}

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
	var pending []types.ArticleRecord
	for _, rec := range recs {
		if rec.Status == types.StatusNormalized {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		fmt.Println("no articles awaiting screening")
		return nil
	}

	results, summary := screen.Batch(cmd.Context(), j, spec, pending, os.Stdout)
	for _, r := range results {
		if err := s.UpdateScreening(cmd.Context(), r.PMID, r.Decision, r.Reason); err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Screened", "Included", "Excluded", "Failures"})
	t.AppendRow(table.Row{summary.Total(), summary.Included, summary.Excluded, summary.Failed})
	t.Render()
	fmt.Printf("inclusion rate: %.0f%%\n", summary.InclusionRate()*100)

	return nil
}
