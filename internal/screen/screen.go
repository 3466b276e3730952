// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen applies title and abstract screening to normalized
// article records. Decisions are biased toward inclusion: any failure in
// the model call or response parsing keeps the article in the review.
package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/review-engine/internal/jsonblock"
	"github.com/pdiddy/review-engine/internal/judge"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Result is the screening outcome for one article.
type Result struct {
	PMID     string
	Decision types.ScreeningDecision
	Reason   string
}

// decisionResponse is the JSON shape the model is asked to return.
type decisionResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// BatchSummary holds counts from a batch screening run.
type BatchSummary struct {
	Included int
	Excluded int
	Failed   int
}

// Total returns the number of articles screened.
func (s BatchSummary) Total() int {
	return s.Included + s.Excluded
}

// InclusionRate returns the included fraction, 0 when nothing was screened.
func (s BatchSummary) InclusionRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Included) / float64(s.Total())
}

// Record screens a single article. It never returns an error: when the
// model call or the response parse fails the article is included with a
// reason recording the failure, and the failure is reported in the bool.
func Record(ctx context.Context, j judge.Judge, spec types.PICOS, rec types.ArticleRecord) (Result, bool) {
	res := Result{PMID: rec.PMID}

	prompt, err := renderPrompt(spec, rec)
	if err != nil {
		res.Decision = types.DecisionIncluded
		res.Reason = fmt.Sprintf("screening failed, kept for full-text review: %v", err)
		return res, false
	}

	raw, err := j.Judge(ctx, judge.Prompt{System: systemPrompt, User: prompt})
	if err != nil {
		res.Decision = types.DecisionIncluded
		res.Reason = fmt.Sprintf("screening failed, kept for full-text review: %v", err)
		return res, false
	}

	decision, reason, err := parseDecision(raw)
	if err != nil {
		res.Decision = types.DecisionIncluded
		res.Reason = fmt.Sprintf("screening failed, kept for full-text review: %v", err)
		return res, false
	}

	res.Decision = decision
	res.Reason = reason
	return res, true
}

// Batch screens every record and writes per-article progress to w. Each
// article is judged independently so one failure never stops the run.
func Batch(ctx context.Context, j judge.Judge, spec types.PICOS, recs []types.ArticleRecord, w io.Writer) ([]Result, BatchSummary) {
	var results []Result
	var summary BatchSummary

	for _, rec := range recs {
		res, ok := Record(ctx, j, spec, rec)
		if !ok {
			summary.Failed++
		}
		switch res.Decision {
		case types.DecisionIncluded:
			summary.Included++
			fmt.Fprintf(w, "included %s: %s\n", res.PMID, res.Reason)
		case types.DecisionExcluded:
			summary.Excluded++
			fmt.Fprintf(w, "excluded %s: %s\n", res.PMID, res.Reason)
		}
		results = append(results, res)
	}

	return results, summary
}

// parseDecision recovers the decision object from raw model output. Any
// decision string containing "exclud" (case-insensitive) maps to
// Excluded; everything else maps to Included.
func parseDecision(raw string) (types.ScreeningDecision, string, error) {
	obj, ok := jsonblock.FirstObject(raw)
	if !ok {
		return "", "", fmt.Errorf("no JSON object in model output")
	}

	var resp decisionResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return "", "", fmt.Errorf("parsing decision JSON: %w", err)
	}

	if strings.Contains(strings.ToLower(resp.Decision), "exclud") {
		return types.DecisionExcluded, resp.Reason, nil
	}
	return types.DecisionIncluded, resp.Reason, nil
}
