// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// IDType names a class of external bibliographic identifier carried by an
// article record alongside its primary PMID.
type IDType string

const (
	IDDOI IDType = "doi"
	IDPMC IDType = "pmc"
)

// StageStatus tracks an article's progress through the pipeline. Statuses
// advance monotonically; a record is mutated only by the stage that owns
// the corresponding transition and is never deleted during a run.
type StageStatus string

const (
	StatusFound              StageStatus = "found"
	StatusNormalized         StageStatus = "normalized"
	StatusScreened           StageStatus = "screened"
	StatusRetrievalAttempted StageStatus = "retrieval_attempted"
	StatusConverted          StageStatus = "converted"
	StatusExtracted          StageStatus = "extracted"
)

// stageRank orders statuses for monotonicity checks.
var stageRank = map[StageStatus]int{
	StatusFound:              0,
	StatusNormalized:         1,
	StatusScreened:           2,
	StatusRetrievalAttempted: 3,
	StatusConverted:          4,
	StatusExtracted:          5,
}

// CanAdvance reports whether a record may move from its current status to
// next. Transitions go forward one stage at a time; re-recording the
// current stage is allowed so a stage can be retried after a failure.
func (s StageStatus) CanAdvance(next StageStatus) bool {
	cur, ok := stageRank[s]
	if !ok {
		return false
	}
	nxt, ok := stageRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1 || nxt == cur
}

// ScreeningDecision is the outcome of title/abstract screening.
type ScreeningDecision string

const (
	DecisionIncluded ScreeningDecision = "Included"
	DecisionExcluded ScreeningDecision = "Excluded"
)

// RetrievalKind classifies the outcome of the full-text fallback chain.
type RetrievalKind string

const (
	// RetrievalAlreadyPresent means the local PDF already exists; the
	// chain was short-circuited without any external call.
	RetrievalAlreadyPresent RetrievalKind = "AlreadyPresent"

	// RetrievalDownloaded means a chain step succeeded; Source names it.
	RetrievalDownloaded RetrievalKind = "Downloaded"

	// RetrievalNoSourceIdentifier means no chain step had its required
	// identifier present on the record.
	RetrievalNoSourceIdentifier RetrievalKind = "NoSourceIdentifier"

	// RetrievalNoOpenAccessLink means a step was attempted but the
	// service reported no open-access location.
	RetrievalNoOpenAccessLink RetrievalKind = "NoOpenAccessLink"

	// RetrievalSourceFailed means a step was attempted and failed;
	// Source names the failing step.
	RetrievalSourceFailed RetrievalKind = "SourceFailed"

	// RetrievalAllSourcesExhausted means every chain step failed or was
	// skipped. Terminal.
	RetrievalAllSourcesExhausted RetrievalKind = "AllSourcesExhausted"
)

// RetrievalStatus records the fallback chain's result for one article.
type RetrievalStatus struct {
	Kind   RetrievalKind `json:"kind" yaml:"kind"`
	Source string        `json:"source,omitempty" yaml:"source,omitempty"`
}

// Succeeded reports whether the article's full text is available locally.
func (s RetrievalStatus) Succeeded() bool {
	return s.Kind == RetrievalAlreadyPresent || s.Kind == RetrievalDownloaded
}

// String renders the status with its source when one applies, e.g.
// "Downloaded(unpaywall)" or "SourceFailed(openalex)".
func (s RetrievalStatus) String() string {
	if s.Source != "" {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Source)
	}
	return string(s.Kind)
}

// ParseRetrievalStatus is the inverse of String, used when reading the
// ledger back from disk. Unknown input yields a zero status.
func ParseRetrievalStatus(s string) RetrievalStatus {
	if s == "" {
		return RetrievalStatus{}
	}
	if i := strings.IndexByte(s, '('); i > 0 && strings.HasSuffix(s, ")") {
		return RetrievalStatus{
			Kind:   RetrievalKind(s[:i]),
			Source: s[i+1 : len(s)-1],
		}
	}
	return RetrievalStatus{Kind: RetrievalKind(s)}
}

// ConversionStatus indicates the state of full-text conversion for an article.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// BiasLevel is the judged risk level for one bias domain.
type BiasLevel string

const (
	BiasLow     BiasLevel = "Low"
	BiasHigh    BiasLevel = "High"
	BiasUnclear BiasLevel = "Unclear"
)

// BiasDomains is the fixed risk-of-bias taxonomy, in report order.
var BiasDomains = []string{
	"Randomization",
	"Deviations from intended interventions",
	"Missing outcome data",
	"Measurement of the outcome",
	"Selection of the reported result",
}

// BiasAssessment is the judged level and justification for one domain.
type BiasAssessment struct {
	Level       BiasLevel `json:"level" yaml:"level"`
	Explanation string    `json:"explanation" yaml:"explanation"`
}

// RiskOfBiasProfile maps each domain in BiasDomains to its assessment.
type RiskOfBiasProfile map[string]BiasAssessment

// ArticleRecord is one row of the per-article ledger. Created by the record
// normalizer from a raw search hit and carried through every stage.
type ArticleRecord struct {
	// PMID is the primary bibliographic identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// ExternalIDs maps secondary identifier types (DOI, PMC) to values.
	ExternalIDs map[IDType]string `json:"external_ids,omitempty" yaml:"external_ids,omitempty"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract, possibly empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Journal is the publishing journal's title.
	Journal string `json:"journal" yaml:"journal"`

	// PubYear is the parsed publication year. Records whose year is
	// missing or in the future never enter the ledger.
	PubYear int `json:"pub_year" yaml:"pub_year"`

	// Status is the record's position in the pipeline state machine.
	Status StageStatus `json:"status" yaml:"status"`

	// ScreeningDecision and ScreeningReason are set by the screening stage.
	ScreeningDecision ScreeningDecision `json:"screening_decision,omitempty" yaml:"screening_decision,omitempty"`
	ScreeningReason   string            `json:"screening_reason,omitempty" yaml:"screening_reason,omitempty"`

	// Retrieval is set by the retrieval stage for included articles.
	Retrieval RetrievalStatus `json:"retrieval,omitempty" yaml:"retrieval,omitempty"`

	// HasFulltext reports whether a local PDF exists for the article.
	HasFulltext bool `json:"has_fulltext" yaml:"has_fulltext"`

	// Conversion is the recorded outcome of full-text conversion.
	// ConversionNone means the conversion stage has not reached the
	// article yet.
	Conversion ConversionStatus `json:"conversion,omitempty" yaml:"conversion,omitempty"`

	// Extracted holds the PICO fields derived from the full text, when
	// extraction succeeded.
	Extracted *PICOFields `json:"extracted,omitempty" yaml:"extracted,omitempty"`

	// RiskOfBias holds the bias profile derived from the full text.
	RiskOfBias RiskOfBiasProfile `json:"risk_of_bias,omitempty" yaml:"risk_of_bias,omitempty"`
}

// DOI returns the record's DOI, or "" when absent.
func (r *ArticleRecord) DOI() string { return r.ExternalIDs[IDDOI] }

// PMCID returns the record's PubMed Central id, or "" when absent.
func (r *ArticleRecord) PMCID() string { return r.ExternalIDs[IDPMC] }
