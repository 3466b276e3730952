// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/judge"
	"github.com/pdiddy/review-engine/pkg/types"
)

// stubJudge returns canned responses keyed by a substring of the user prompt.
type stubJudge struct {
	byTitle map[string]string
	err     error
	calls   int
}

func (s *stubJudge) Judge(_ context.Context, p judge.Prompt) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for title, resp := range s.byTitle {
		if strings.Contains(p.User, title) {
			return resp, nil
		}
	}
	return `{"decision":"Included","reason":"default"}`, nil
}

var testSpec = types.PICOS{
	Population:   "adults with heart failure",
	Intervention: "beta blockers",
	Outcome:      "mortality",
}

func rec(pmid, title string) types.ArticleRecord {
	return types.ArticleRecord{PMID: pmid, Title: title, Abstract: "some abstract"}
}

func TestRecordDecisions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     types.ScreeningDecision
	}{
		{"plain include", `{"decision":"Included","reason":"matches"}`, types.DecisionIncluded},
		{"plain exclude", `{"decision":"Excluded","reason":"wrong population"}`, types.DecisionExcluded},
		{"lowercase excluded", `{"decision":"excluded","reason":"animal study"}`, types.DecisionExcluded},
		{"verbose exclude", `{"decision":"This should be EXCLUDED","reason":"review article"}`, types.DecisionExcluded},
		{"prose around JSON", "Sure, here is my decision:\n```json\n{\"decision\":\"Excluded\",\"reason\":\"no RCT\"}\n```", types.DecisionExcluded},
		{"unrecognized decision word", `{"decision":"maybe","reason":"unclear"}`, types.DecisionIncluded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &stubJudge{byTitle: map[string]string{"Trial A": tt.response}}
			res, ok := Record(context.Background(), j, testSpec, rec("1", "Trial A"))
			if !ok {
				t.Fatal("Record reported failure")
			}
			if res.Decision != tt.want {
				t.Errorf("decision = %q, want %q", res.Decision, tt.want)
			}
		})
	}
}

func TestRecordJudgeFailureIncludes(t *testing.T) {
	j := &stubJudge{err: errors.New("connection refused")}
	res, ok := Record(context.Background(), j, testSpec, rec("1", "Trial A"))
	if ok {
		t.Error("expected failure to be reported")
	}
	if res.Decision != types.DecisionIncluded {
		t.Errorf("decision = %q, want Included on failure", res.Decision)
	}
	if !strings.Contains(res.Reason, "connection refused") {
		t.Errorf("reason = %q, want the failure recorded", res.Reason)
	}
}

func TestRecordUnparseableIncludes(t *testing.T) {
	j := &stubJudge{byTitle: map[string]string{"Trial A": "I cannot answer in JSON."}}
	res, ok := Record(context.Background(), j, testSpec, rec("1", "Trial A"))
	if ok {
		t.Error("expected failure to be reported")
	}
	if res.Decision != types.DecisionIncluded {
		t.Errorf("decision = %q, want Included on parse failure", res.Decision)
	}
}

func TestBatch(t *testing.T) {
	j := &stubJudge{byTitle: map[string]string{
		"Trial A": `{"decision":"Included","reason":"matches criteria"}`,
		"Trial B": `{"decision":"Excluded","reason":"wrong outcome"}`,
	}}
	recs := []types.ArticleRecord{rec("1", "Trial A"), rec("2", "Trial B")}

	var out bytes.Buffer
	results, summary := Batch(context.Background(), j, testSpec, recs, &out)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if summary.Included != 1 || summary.Excluded != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Total() != 2 {
		t.Errorf("Total = %d, want 2", summary.Total())
	}
	if got := summary.InclusionRate(); got != 0.5 {
		t.Errorf("InclusionRate = %v, want 0.5", got)
	}
	if !strings.Contains(out.String(), "excluded 2: wrong outcome") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBatchAllFailuresInclude(t *testing.T) {
	j := &stubJudge{err: errors.New("model down")}
	recs := []types.ArticleRecord{rec("1", "A"), rec("2", "B"), rec("3", "C")}

	var out bytes.Buffer
	results, summary := Batch(context.Background(), j, testSpec, recs, &out)
	if summary.Included != 3 || summary.Excluded != 0 || summary.Failed != 3 {
		t.Errorf("summary = %+v", summary)
	}
	for _, r := range results {
		if r.Decision != types.DecisionIncluded {
			t.Errorf("pmid %s decision = %q, want Included", r.PMID, r.Decision)
		}
	}
}

// Screening one article does not depend on its position in the batch.
func TestBatchOrderIndependent(t *testing.T) {
	j := &stubJudge{byTitle: map[string]string{
		"Trial A": `{"decision":"Included","reason":"ok"}`,
		"Trial B": `{"decision":"Excluded","reason":"no"}`,
	}}
	forward := []types.ArticleRecord{rec("1", "Trial A"), rec("2", "Trial B")}
	reverse := []types.ArticleRecord{rec("2", "Trial B"), rec("1", "Trial A")}

	byPMID := func(results []Result) map[string]types.ScreeningDecision {
		m := map[string]types.ScreeningDecision{}
		for _, r := range results {
			m[r.PMID] = r.Decision
		}
		return m
	}

	var out bytes.Buffer
	f, _ := Batch(context.Background(), j, testSpec, forward, &out)
	r, _ := Batch(context.Background(), j, testSpec, reverse, &out)

	fm, rm := byPMID(f), byPMID(r)
	for pmid, want := range fm {
		if rm[pmid] != want {
			t.Errorf("pmid %s: forward %q, reverse %q", pmid, want, rm[pmid])
		}
	}
}
