// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/review-engine/pkg/types"
)

const tablesDir = "tables"

// ExportCSV writes the ledger to CSV tables under dataDir/tables/:
// articles.csv with the full funnel state, extracted_pico.csv with the
// study characteristics, and rob_assessment.csv with one row per article
// and domain.
func (s *Store) ExportCSV(ctx context.Context) error {
	recs, err := s.LoadArticles(ctx)
	if err != nil {
		return err
	}

	outDir := filepath.Join(s.dataDir, tablesDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating tables directory: %w", err)
	}

	if err := writeCSV(filepath.Join(outDir, "articles.csv"), articleRows(recs)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, "extracted_pico.csv"), picoRows(recs)); err != nil {
		return err
	}
	return writeCSV(filepath.Join(outDir, "rob_assessment.csv"), robRows(recs))
}

func articleRows(recs []types.ArticleRecord) [][]string {
	rows := [][]string{{
		"pmid", "doi", "pmc", "title", "journal", "pub_year", "status",
		"screening_decision", "screening_reason", "retrieval_status", "has_fulltext",
		"conversion_status",
	}}
	for _, rec := range recs {
		rows = append(rows, []string{
			rec.PMID, rec.DOI(), rec.PMCID(), rec.Title, rec.Journal,
			strconv.Itoa(rec.PubYear), string(rec.Status),
			string(rec.ScreeningDecision), rec.ScreeningReason,
			rec.Retrieval.String(), strconv.FormatBool(rec.HasFulltext),
			string(rec.Conversion),
		})
	}
	return rows
}

func picoRows(recs []types.ArticleRecord) [][]string {
	rows := [][]string{{"pmid", "population", "intervention", "comparison", "outcome", "study_design"}}
	for _, rec := range recs {
		if rec.Extracted == nil {
			continue
		}
		row := []string{rec.PMID}
		for _, e := range rec.Extracted.Entries() {
			row = append(row, e.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

func robRows(recs []types.ArticleRecord) [][]string {
	rows := [][]string{{"pmid", "domain", "level", "explanation"}}
	for _, rec := range recs {
		if rec.RiskOfBias == nil {
			continue
		}
		for _, domain := range types.BiasDomains {
			a := rec.RiskOfBias[domain]
			rows = append(rows, []string{rec.PMID, domain, string(a.Level), a.Explanation})
		}
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
