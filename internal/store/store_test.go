// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	s, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dataDir
}

func sampleRecords() []types.ArticleRecord {
	return []types.ArticleRecord{
		{
			PMID:        "111",
			ExternalIDs: map[types.IDType]string{types.IDDOI: "10.1/a", types.IDPMC: "PMC1"},
			Title:       "Trial A",
			Abstract:    "Abstract A",
			Journal:     "Journal A",
			PubYear:     2024,
			Status:      types.StatusNormalized,
		},
		{
			PMID:    "222",
			Title:   "Trial B",
			Journal: "Journal B",
			PubYear: 2023,
			Status:  types.StatusNormalized,
		},
	}
}

func TestUpsertAndLoad(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}

	recs, err := s.LoadArticles(ctx)
	if err != nil {
		t.Fatalf("LoadArticles: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].PMID != "111" || recs[1].PMID != "222" {
		t.Errorf("order = %s, %s", recs[0].PMID, recs[1].PMID)
	}
	if recs[0].DOI() != "10.1/a" || recs[0].PMCID() != "PMC1" {
		t.Errorf("external IDs = %v", recs[0].ExternalIDs)
	}
	if recs[0].Status != types.StatusNormalized {
		t.Errorf("status = %q", recs[0].Status)
	}
}

// Re-upserting an article must not move it to the end of the ledger.
func TestUpsertPreservesOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}
	updated := sampleRecords()[0]
	updated.Title = "Trial A, revised"
	if err := s.UpsertArticles(ctx, []types.ArticleRecord{updated}); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}

	recs, err := s.LoadArticles(ctx)
	if err != nil {
		t.Fatalf("LoadArticles: %v", err)
	}
	if recs[0].PMID != "111" || recs[0].Title != "Trial A, revised" {
		t.Errorf("first record = %s %q", recs[0].PMID, recs[0].Title)
	}
}

func TestStageUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}

	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "matches criteria"); err != nil {
		t.Fatalf("UpdateScreening: %v", err)
	}
	if err := s.UpdateScreening(ctx, "222", types.DecisionExcluded, "wrong design"); err != nil {
		t.Fatalf("UpdateScreening: %v", err)
	}
	if err := s.UpdateRetrieval(ctx, "111", types.RetrievalStatus{Kind: types.RetrievalDownloaded, Source: "unpaywall"}); err != nil {
		t.Fatalf("UpdateRetrieval: %v", err)
	}
	if err := s.UpdateConversion(ctx, "111", types.ConversionDone); err != nil {
		t.Fatalf("UpdateConversion: %v", err)
	}
	pico := types.PICOFields{Population: "adults", Intervention: "drug", StudyDesign: "RCT"}
	rob := types.RiskOfBiasProfile{
		"Randomization": {Level: types.BiasLow, Explanation: "central"},
	}
	if err := s.UpdateExtraction(ctx, "111", pico, rob); err != nil {
		t.Fatalf("UpdateExtraction: %v", err)
	}

	recs, err := s.LoadArticles(ctx)
	if err != nil {
		t.Fatalf("LoadArticles: %v", err)
	}

	a := recs[0]
	if a.Status != types.StatusExtracted {
		t.Errorf("status = %q", a.Status)
	}
	if a.ScreeningDecision != types.DecisionIncluded || a.ScreeningReason != "matches criteria" {
		t.Errorf("screening = %q %q", a.ScreeningDecision, a.ScreeningReason)
	}
	if !a.HasFulltext {
		t.Error("HasFulltext = false")
	}
	if a.Retrieval.Kind != types.RetrievalDownloaded || a.Retrieval.Source != "unpaywall" {
		t.Errorf("retrieval = %v", a.Retrieval)
	}
	if a.Extracted == nil || a.Extracted.Population != "adults" {
		t.Errorf("extracted = %+v", a.Extracted)
	}
	if a.RiskOfBias["Randomization"].Level != types.BiasLow {
		t.Errorf("risk of bias = %+v", a.RiskOfBias)
	}

	b := recs[1]
	if b.ScreeningDecision != types.DecisionExcluded {
		t.Errorf("second decision = %q", b.ScreeningDecision)
	}
	if b.Extracted != nil {
		t.Errorf("unextracted article has fields: %+v", b.Extracted)
	}
}

func TestUpdateConversionRecordsFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}
	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRetrieval(ctx, "111", types.RetrievalStatus{Kind: types.RetrievalDownloaded, Source: "pmc"}); err != nil {
		t.Fatal(err)
	}

	// A failed conversion lands in the ledger without advancing the stage.
	if err := s.UpdateConversion(ctx, "111", types.ConversionFailed); err != nil {
		t.Fatalf("UpdateConversion: %v", err)
	}
	recs, err := s.LoadArticles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Conversion != types.ConversionFailed {
		t.Errorf("conversion = %q, want failed", recs[0].Conversion)
	}
	if recs[0].Status != types.StatusRetrievalAttempted {
		t.Errorf("status = %q, want retrieval_attempted", recs[0].Status)
	}

	// A later successful pass overwrites the failure and advances.
	if err := s.UpdateConversion(ctx, "111", types.ConversionDone); err != nil {
		t.Fatalf("retry UpdateConversion: %v", err)
	}
	recs, err = s.LoadArticles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Conversion != types.ConversionDone || recs[0].Status != types.StatusConverted {
		t.Errorf("conversion = %q status = %q", recs[0].Conversion, recs[0].Status)
	}
}

func TestUpdateUnknownArticle(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.UpdateScreening(context.Background(), "999", types.DecisionIncluded, "x"); err == nil {
		t.Error("expected error for unknown pmid")
	}
}

func TestUpdateRejectsStageSkip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatalf("UpsertArticles: %v", err)
	}

	// Extraction on a freshly normalized article skips three stages.
	pico := types.PICOFields{Population: "adults"}
	if err := s.UpdateExtraction(ctx, "111", pico, nil); err == nil {
		t.Error("expected error for stage skip")
	}

	// Re-recording the same stage is allowed (stage retry).
	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "first pass"); err != nil {
		t.Fatalf("UpdateScreening: %v", err)
	}
	if err := s.UpdateScreening(ctx, "111", types.DecisionExcluded, "second pass"); err != nil {
		t.Fatalf("repeat UpdateScreening: %v", err)
	}
}

func TestLoadIncluded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateScreening(ctx, "222", types.DecisionExcluded, "no"); err != nil {
		t.Fatal(err)
	}

	included, err := s.LoadIncluded(ctx)
	if err != nil {
		t.Fatalf("LoadIncluded: %v", err)
	}
	if len(included) != 1 || included[0].PMID != "111" {
		t.Errorf("included = %+v", included)
	}
}

func TestComputeStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.BeginRun(ctx, `"heart failure"[tiab]`, 57); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateScreening(ctx, "222", types.DecisionExcluded, "no"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRetrieval(ctx, "111", types.RetrievalStatus{Kind: types.RetrievalDownloaded, Source: "pmc"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.ComputeStats(ctx)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	want := types.RunStatistics{TotalFound: 57, Screened: 2, Excluded: 1, Included: 1, Retrieved: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if !stats.FunnelConsistent() {
		t.Error("FunnelConsistent = false")
	}
}

func TestExportCSV(t *testing.T) {
	s, dataDir := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertArticles(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	pico := types.PICOFields{Population: "adults", Intervention: "drug"}
	rob := types.RiskOfBiasProfile{}
	for _, d := range types.BiasDomains {
		rob[d] = types.BiasAssessment{Level: types.BiasUnclear}
	}
	if err := s.UpdateScreening(ctx, "111", types.DecisionIncluded, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRetrieval(ctx, "111", types.RetrievalStatus{Kind: types.RetrievalDownloaded, Source: "pmc"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateConversion(ctx, "111", types.ConversionDone); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateExtraction(ctx, "111", pico, rob); err != nil {
		t.Fatal(err)
	}

	if err := s.ExportCSV(ctx); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	readCSV := func(name string) [][]string {
		f, err := os.Open(filepath.Join(dataDir, "tables", name))
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return rows
	}

	articles := readCSV("articles.csv")
	if len(articles) != 3 {
		t.Errorf("articles.csv rows = %d, want 3", len(articles))
	}

	picoRows := readCSV("extracted_pico.csv")
	if len(picoRows) != 2 {
		t.Fatalf("extracted_pico.csv rows = %d, want 2", len(picoRows))
	}
	if picoRows[1][0] != "111" || picoRows[1][1] != "adults" {
		t.Errorf("pico row = %v", picoRows[1])
	}

	robCSV := readCSV("rob_assessment.csv")
	if len(robCSV) != 1+len(types.BiasDomains) {
		t.Errorf("rob_assessment.csv rows = %d", len(robCSV))
	}
}

func TestReset(t *testing.T) {
	s, dataDir := newTestStore(t)
	s.Close()

	for _, sub := range []string{"pdf", "text", "raw"} {
		dir := filepath.Join(dataDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dataDir, "report_EN.md"), []byte("report"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Reset(dataDir, &out); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	for _, entry := range []string{"index", "pdf", "text", "raw", "report_EN.md"} {
		if _, err := os.Stat(filepath.Join(dataDir, entry)); !os.IsNotExist(err) {
			t.Errorf("%s survived reset", entry)
		}
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data directory removed: %v", err)
	}
}
