// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/convert"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert retrieved PDFs to plain text",
	Long: `Convert runs every retrieved PDF through the configured backend.
The default backend is a GROBID server, whose TEI output is reduced to
body text; markitdown via a container runtime is the fallback. Existing
text files are skipped.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("backend", "", "conversion backend: grobid or markitdown")
	convertCmd.Flags().String("grobid-host", "", "GROBID server base URL (default http://localhost:8070)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Conversion.Backend = types.ConversionBackend(backend)
	}
	if host, _ := cmd.Flags().GetString("grobid-host"); host != "" {
		cfg.Conversion.GrobidHost = host
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

	included, err := s.LoadIncluded(cmd.Context())
	if err != nil {
		return err
	}
	var retrieved []string
	for _, rec := range included {
		if rec.HasFulltext && rec.Status.CanAdvance(types.StatusConverted) {
			retrieved = append(retrieved, rec.PMID)
		}
	}
	if len(retrieved) == 0 {
		fmt.Println("no retrieved articles to convert")
		return nil
	}

	result := convert.Batch(converter, retrieved, cfg.Conversion, os.Stdout)
	for pmid, status := range result.Statuses {
		if err := s.UpdateConversion(cmd.Context(), pmid, status); err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed conversion", result.Failed)
	}
	return nil
}
