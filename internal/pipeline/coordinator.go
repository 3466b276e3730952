// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline coordinates the end-to-end review run: search,
// normalization, screening, retrieval, conversion, extraction, and the
// final report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/review-engine/internal/convert"
	"github.com/pdiddy/review-engine/internal/extract"
	"github.com/pdiddy/review-engine/internal/judge"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/internal/query"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// ErrAborted is returned when the confirmation hook declines the run.
// Nothing has been written to the ledger at that point.
var ErrAborted = errors.New("run aborted before search")

const rawDir = "raw"

// Coordinator wires the pipeline stages together. Every collaborator is
// injectable so tests can substitute stubs.
type Coordinator struct {
	Config    types.PipelineConfig
	HTTP      *http.Client
	Judge     judge.Judge
	Search    *search.Client
	Chain     []retrieve.Source
	Converter convert.Converter
	Store     *store.Store

	// Confirm is consulted with the built query and the index's total
	// match count before anything is fetched or persisted. A nil hook
	// means proceed.
	Confirm func(query string, total int) bool

	Out io.Writer
}

// Run executes the full pipeline for the given review criteria and
// returns the resulting funnel statistics. The report is written even
// when no article survives screening.
func (c *Coordinator) Run(ctx context.Context, spec types.PICOS) (types.RunStatistics, error) {
	w := c.Out
	if w == nil {
		w = io.Discard
	}

	q := query.Build(spec)
	if q == "" {
		return types.RunStatistics{}, fmt.Errorf("review criteria produce an empty query")
	}
	fmt.Fprintf(w, "query: %s\n", q)

	var window search.DateRange
	if years := c.Config.Search.DateWindowYears; years > 0 {
		window = search.WindowEndingNow(years)
	}

	total, err := c.Search.Count(ctx, q, window)
	if err != nil {
		fmt.Fprintf(w, "warning: count probe failed: %v\n", err)
		total = -1
	} else {
		fmt.Fprintf(w, "matches: %d\n", total)
	}

	if c.Confirm != nil && !c.Confirm(q, total) {
		return types.RunStatistics{}, ErrAborted
	}

	// Search failures degrade to an empty result set so the run always
	// reaches the report, keeping failed runs auditable.
	ids, fetched, err := c.Search.FetchIDs(ctx, q, c.Config.Search.MaxResults, window)
	if err != nil {
		fmt.Fprintf(w, "warning: search failed, continuing with no results: %v\n", err)
		ids = nil
	} else {
		total = fetched
		fmt.Fprintf(w, "fetched %d record ids\n", len(ids))
	}

	var payload string
	if len(ids) > 0 {
		payload, err = c.Search.FetchRecords(ctx, ids)
		if err != nil {
			fmt.Fprintf(w, "warning: fetching records failed, continuing with none: %v\n", err)
			payload = ""
		} else if err := c.saveRawPayload(payload); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}

	var res normalize.Result
	if payload != "" {
		res, err = normalize.Normalize(payload, time.Now().Year(), c.Config.Normalize)
		if err != nil {
			fmt.Fprintf(w, "warning: normalizing records failed, continuing with none: %v\n", err)
			res = normalize.Result{}
		}
	}
	fmt.Fprintf(w, "normalized %d records (%d dropped)\n", len(res.Records), res.Dropped)

	if total < 0 {
		total = 0
	}
	runID, err := c.Store.BeginRun(ctx, q, total)
	if err != nil {
		return types.RunStatistics{}, err
	}
	if err := c.Store.UpsertArticles(ctx, res.Records); err != nil {
		return types.RunStatistics{}, err
	}

	// Screening.
	results, _ := screen.Batch(ctx, c.Judge, spec, res.Records, w)
	for _, r := range results {
		if err := c.Store.UpdateScreening(ctx, r.PMID, r.Decision, r.Reason); err != nil {
			return types.RunStatistics{}, err
		}
	}

	// Retrieval, included articles only.
	included, err := c.Store.LoadIncluded(ctx)
	if err != nil {
		return types.RunStatistics{}, err
	}
	batch := retrieve.Batch(c.HTTP, c.Chain, included, c.retrievalConfig(), w)
	for pmid, status := range batch.Statuses {
		if err := c.Store.UpdateRetrieval(ctx, pmid, status); err != nil {
			return types.RunStatistics{}, err
		}
	}

	// Conversion for retrieved full texts.
	var retrieved []string
	for _, rec := range included {
		if batch.Statuses[rec.PMID].Succeeded() {
			retrieved = append(retrieved, rec.PMID)
		}
	}
	conv := convert.Batch(c.Converter, retrieved, c.conversionConfig(), w)
	var converted []string
	for pmid, status := range conv.Statuses {
		if err := c.Store.UpdateConversion(ctx, pmid, status); err != nil {
			return types.RunStatistics{}, err
		}
		if status != types.ConversionFailed {
			converted = append(converted, pmid)
		}
	}

	// Extraction for converted texts.
	extracted, _ := extract.Batch(ctx, c.Judge, converted, c.extractionConfig(), w)
	for _, e := range extracted {
		if err := c.Store.UpdateExtraction(ctx, e.PMID, e.PICO, e.RiskOfBias); err != nil {
			return types.RunStatistics{}, err
		}
	}

	// Funnel, exports, report.
	stats, err := c.Store.ComputeStats(ctx)
	if err != nil {
		return types.RunStatistics{}, err
	}
	if err := c.Store.ExportCSV(ctx); err != nil {
		return stats, err
	}

	articles, err := c.Store.LoadArticles(ctx)
	if err != nil {
		return stats, err
	}
	path, err := report.WriteFile(report.Input{
		Stats:       stats,
		Spec:        spec,
		Query:       q,
		RunID:       runID,
		GeneratedAt: time.Now(),
		Articles:    articles,
	}, c.Config.Report.Lang, c.Config.DataDir)
	if err != nil {
		return stats, err
	}
	fmt.Fprintf(w, "report written to %s\n", path)

	return stats, nil
}

// saveRawPayload keeps the raw search response for audit.
func (c *Coordinator) saveRawPayload(payload string) error {
	dir := filepath.Join(c.Config.DataDir, rawDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating raw directory: %w", err)
	}
	path := filepath.Join(dir, "articles.xml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("saving raw payload: %w", err)
	}
	return nil
}

// Stage configs inherit the pipeline data directory when unset.

func (c *Coordinator) retrievalConfig() types.RetrievalConfig {
	cfg := c.Config.Retrieval
	if cfg.DataDir == "" {
		cfg.DataDir = c.Config.DataDir
	}
	return cfg
}

func (c *Coordinator) conversionConfig() types.ConversionConfig {
	cfg := c.Config.Conversion
	if cfg.DataDir == "" {
		cfg.DataDir = c.Config.DataDir
	}
	return cfg
}

func (c *Coordinator) extractionConfig() types.ExtractionConfig {
	cfg := c.Config.Extraction
	if cfg.DataDir == "" {
		cfg.DataDir = c.Config.DataDir
	}
	return cfg
}
