// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine pipeline.
package types

// PICOS is the structured research-question specification driving query
// construction, screening, and extraction. Fields are free text; empty
// fields are simply omitted from the generated query and the rubric.
// A loaded specification is treated as immutable once a run starts.
type PICOS struct {
	// Population describes the study population or condition.
	Population string `json:"population" yaml:"population"`

	// Intervention describes the intervention or exposure under review.
	Intervention string `json:"intervention" yaml:"intervention"`

	// Comparison describes the comparator, if any.
	Comparison string `json:"comparison" yaml:"comparison"`

	// Outcome describes the outcomes of interest.
	Outcome string `json:"outcome" yaml:"outcome"`

	// StudyDesign restricts the study design (e.g. "randomized controlled trial").
	StudyDesign string `json:"study_design" yaml:"study_design"`
}

// IsEmpty reports whether every field of the specification is blank.
// An empty spec produces an empty query and must not start a run.
func (p PICOS) IsEmpty() bool {
	return p.Population == "" && p.Intervention == "" && p.Comparison == "" &&
		p.Outcome == "" && p.StudyDesign == ""
}

// Entry is one (key, value) pair of a PICOS specification in canonical order.
type Entry struct {
	Key   string
	Value string
}

// Entries returns the specification fields in canonical order, including
// empty ones. Callers that only want populated fields filter on Value.
func (p PICOS) Entries() []Entry {
	return []Entry{
		{Key: "population", Value: p.Population},
		{Key: "intervention", Value: p.Intervention},
		{Key: "comparison", Value: p.Comparison},
		{Key: "outcome", Value: p.Outcome},
		{Key: "study_design", Value: p.StudyDesign},
	}
}

// PICOFields holds the structured fields extracted from an article's full
// text. All five keys are always present; missing data is represented as an
// empty string, never as an absent key, because downstream tabular rendering
// assumes key presence.
type PICOFields struct {
	Population   string `json:"population" yaml:"population"`
	Intervention string `json:"intervention" yaml:"intervention"`
	Comparison   string `json:"comparison" yaml:"comparison"`
	Outcome      string `json:"outcome" yaml:"outcome"`
	StudyDesign  string `json:"study_design" yaml:"study_design"`
}

// Entries returns the extracted fields in canonical order.
func (f PICOFields) Entries() []Entry {
	return []Entry{
		{Key: "population", Value: f.Population},
		{Key: "intervention", Value: f.Intervention},
		{Key: "comparison", Value: f.Comparison},
		{Key: "outcome", Value: f.Outcome},
		{Key: "study_design", Value: f.StudyDesign},
	}
}
