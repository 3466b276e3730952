// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls structured study characteristics and risk-of-bias
// judgements out of converted full text via the AI judge.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/review-engine/internal/convert"
	"github.com/pdiddy/review-engine/internal/jsonblock"
	"github.com/pdiddy/review-engine/internal/judge"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	defaultPICOSnippetLimit = 8000
	defaultRoBSnippetLimit  = 12000
)

// Result holds the extraction output for one article.
type Result struct {
	PMID       string
	PICO       types.PICOFields
	RiskOfBias types.RiskOfBiasProfile
}

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Failed    int
}

// Total returns the number of articles processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Failed
}

// HasFailures reports whether any articles failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the judge with exponential backoff.
func callWithRetry(ctx context.Context, j judge.Judge, p judge.Prompt, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := j.Judge(ctx, p)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// snippet truncates text to at most limit bytes without splitting a
// UTF-8 rune. Extraction prompts front-load the abstract and methods, so
// a prefix is a usable sample.
func snippet(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// PICO extracts the five study-characteristic fields from full text. All
// keys are present in the result; elements the model omits come back as
// empty strings.
func PICO(ctx context.Context, j judge.Judge, text string, cfg types.ExtractionConfig) (types.PICOFields, error) {
	limit := cfg.PICOSnippetLimit
	if limit <= 0 {
		limit = defaultPICOSnippetLimit
	}
	user, err := renderPrompt(picoPromptTmpl, snippet(text, limit))
	if err != nil {
		return types.PICOFields{}, err
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	raw, err := callWithRetry(ctx, j, judge.Prompt{System: picoSystemPrompt, User: user}, maxRetries)
	if err != nil {
		return types.PICOFields{}, fmt.Errorf("PICO extraction: %w", err)
	}

	obj, ok := jsonblock.FirstObject(raw)
	if !ok {
		return types.PICOFields{}, fmt.Errorf("no JSON object in PICO response")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return types.PICOFields{}, fmt.Errorf("parsing PICO response: %w", err)
	}

	return types.PICOFields{
		Population:   stringField(m, "population"),
		Intervention: stringField(m, "intervention"),
		Comparison:   stringField(m, "comparison"),
		Outcome:      stringField(m, "outcome"),
		StudyDesign:  stringField(m, "study_design"),
	}, nil
}

// RoB assesses the five bias domains from full text. Every domain in
// BiasDomains is present in the result; a domain the model skipped is
// marked Unclear.
func RoB(ctx context.Context, j judge.Judge, text string, cfg types.ExtractionConfig) (types.RiskOfBiasProfile, error) {
	limit := cfg.RoBSnippetLimit
	if limit <= 0 {
		limit = defaultRoBSnippetLimit
	}
	user, err := renderPrompt(robPromptTmpl, snippet(text, limit))
	if err != nil {
		return nil, err
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	raw, err := callWithRetry(ctx, j, judge.Prompt{System: robSystemPrompt, User: user}, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("risk of bias assessment: %w", err)
	}

	obj, ok := jsonblock.FirstObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in risk of bias response")
	}

	var m map[string]struct {
		Level       string `json:"level"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return nil, fmt.Errorf("parsing risk of bias response: %w", err)
	}

	profile := types.RiskOfBiasProfile{}
	for _, domain := range types.BiasDomains {
		profile[domain] = types.BiasAssessment{Level: types.BiasUnclear}
	}
	for key, v := range m {
		domain, ok := matchDomain(key)
		if !ok {
			continue
		}
		profile[domain] = types.BiasAssessment{
			Level:       parseBiasLevel(v.Level),
			Explanation: v.Explanation,
		}
	}
	return profile, nil
}

// Article runs both extractions for one article's converted text file.
func Article(ctx context.Context, j judge.Judge, pmid string, cfg types.ExtractionConfig) (Result, error) {
	text, err := os.ReadFile(convert.TextPath(cfg.DataDir, pmid))
	if err != nil {
		return Result{}, fmt.Errorf("reading text for %s: %w", pmid, err)
	}

	pico, err := PICO(ctx, j, string(text), cfg)
	if err != nil {
		return Result{}, fmt.Errorf("article %s: %w", pmid, err)
	}

	rob, err := RoB(ctx, j, string(text), cfg)
	if err != nil {
		return Result{}, fmt.Errorf("article %s: %w", pmid, err)
	}

	return Result{PMID: pmid, PICO: pico, RiskOfBias: rob}, nil
}

// Batch extracts every article with converted text, printing per-article
// status. One failure never stops the run.
func Batch(ctx context.Context, j judge.Judge, pmids []string, cfg types.ExtractionConfig, w io.Writer) ([]Result, BatchSummary) {
	var results []Result
	var summary BatchSummary

	for _, pmid := range pmids {
		res, err := Article(ctx, j, pmid, cfg)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", pmid, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "extracted %s\n", pmid)
		summary.Extracted++
		results = append(results, res)
	}

	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d failed (total: %d)\n",
		summary.Extracted, summary.Failed, summary.Total())
	return results, summary
}

// stringField reads a string value from a decoded JSON map, tolerating
// absent keys and non-string values.
func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// domainKeywords maps response-key substrings to canonical domain names.
// Models vary in how they label the domains; keyword matching absorbs
// synonyms like "performance bias" or "attrition".
var domainKeywords = []struct {
	substrings []string
	domain     string
}{
	{[]string{"random"}, types.BiasDomains[0]},
	{[]string{"deviation", "performance"}, types.BiasDomains[1]},
	{[]string{"missing", "attrition"}, types.BiasDomains[2]},
	{[]string{"measurement", "detection"}, types.BiasDomains[3]},
	{[]string{"report", "selection"}, types.BiasDomains[4]},
}

func matchDomain(key string) (string, bool) {
	lower := strings.ToLower(key)
	for _, dk := range domainKeywords {
		for _, sub := range dk.substrings {
			if strings.Contains(lower, sub) {
				return dk.domain, true
			}
		}
	}
	return "", false
}

// parseBiasLevel normalizes a free-form level string. Anything that is
// neither low nor high is Unclear.
func parseBiasLevel(s string) types.BiasLevel {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "low"):
		return types.BiasLow
	case strings.Contains(lower, "high"):
		return types.BiasHigh
	default:
		return types.BiasUnclear
	}
}
