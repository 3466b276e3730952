// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/convert"
	"github.com/pdiddy/review-engine/internal/pipeline"
	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full review pipeline end to end",
	Long: `Run executes every pipeline stage in order: search, normalization,
screening, retrieval, conversion, extraction, and the final report. The
match count is shown before anything is fetched; declining the
confirmation leaves the ledger untouched.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("picos", "review.yaml", "PICOS criteria file")
	runCmd.Flags().Int("max", 0, "maximum records to fetch (default from config, 50)")
	runCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	if max, _ := cmd.Flags().GetInt("max"); max > 0 {
		cfg.Search.MaxResults = max
	}

	specPath, _ := cmd.Flags().GetString("picos")
	spec, err := loadSpec(specPath)
	if err != nil {
		return err
	}

	j, err := newJudge(cfg)
	if err != nil {
		return err
	}

	converter, err := convert.New(cfg.Conversion)
	if err != nil {
		return err
	}
	if g, ok := converter.(*convert.GrobidConverter); ok {
		if err := g.IsAlive(); err != nil {
			return fmt.Errorf("GROBID health check: %w", err)
		}
	}

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	client := newHTTPClient(cfg.Search.Timeout)
	skipConfirm, _ := cmd.Flags().GetBool("yes")

	coordinator := &pipeline.Coordinator{
		Config:    cfg,
		HTTP:      client,
		Judge:     j,
		Search:    &search.Client{HTTP: client, Cfg: cfg.Search},
		Chain:     retrieve.DefaultChain(),
		Converter: converter,
		Store:     s,
		Out:       os.Stdout,
	}
	if !skipConfirm {
		coordinator.Confirm = pipelineConfirm(cfg.Search.MaxResults)
	}

	stats, err := coordinator.Run(cmd.Context(), spec)
	if errors.Is(err, pipeline.ErrAborted) {
		fmt.Println("aborted")
		return nil
	}
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Found", "Screened", "Excluded", "Included", "Retrieved"})
	t.AppendRow(table.Row{stats.TotalFound, stats.Screened, stats.Excluded, stats.Included, stats.Retrieved})
	t.Render()
	return nil
}

// pipelineConfirm adapts the stdin prompt to the coordinator's hook shape.
func pipelineConfirm(max int) func(string, int) bool {
	return func(_ string, total int) bool {
		return confirmFetch(total, max)
	}
}
