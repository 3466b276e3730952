// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a PICOS specification into a bibliographic search
// query and round-trips the specification file.
package query

import (
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// tagTitleAbstract restricts a term to title/abstract matching.
	tagTitleAbstract = "[tiab]"
	// tagPublicationType restricts a term to the publication-type field,
	// used for the study-design element only.
	tagPublicationType = "[pt]"
)

// Build constructs the search query from the specification. Each non-empty
// field contributes one field-tagged term; multi-word terms are quoted; the
// terms are joined with AND. An empty specification yields an empty string,
// which callers must treat as invalid.
func Build(spec types.PICOS) string {
	var parts []string
	for _, term := range []string{spec.Population, spec.Intervention, spec.Comparison, spec.Outcome} {
		if t := formatTerm(term, tagTitleAbstract); t != "" {
			parts = append(parts, t)
		}
	}
	if t := formatTerm(spec.StudyDesign, tagPublicationType); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, " AND ")
}

// formatTerm renders one query term with its field tag. Multi-word terms
// are quoted so the index treats them as a phrase.
func formatTerm(term, tag string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	if strings.ContainsAny(term, " \t") {
		return `"` + term + `"` + tag
	}
	return term + tag
}
