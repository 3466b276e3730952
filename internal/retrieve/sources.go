// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve downloads full-text PDFs for included articles by
// walking a chain of open-access sources. Each source needs a specific
// external identifier and is skipped when the article lacks it.
package retrieve

import (
	"net/http"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Resolver maps an external identifier to a PDF URL. An empty URL with a
// nil error means the source answered but has no open-access copy.
type Resolver func(client *http.Client, id string, cfg types.RetrievalConfig) (string, error)

// Source is one step in the retrieval chain.
type Source struct {
	Name     string
	Requires types.IDType
	Resolve  Resolver
}

// DefaultChain returns the retrieval order: Unpaywall, then OpenAlex,
// then PubMed Central.
func DefaultChain() []Source {
	return []Source{
		{Name: "unpaywall", Requires: types.IDDOI, Resolve: resolveUnpaywall},
		{Name: "openalex", Requires: types.IDDOI, Resolve: resolveOpenAlex},
		{Name: "pmc", Requires: types.IDPMC, Resolve: resolvePMC},
	}
}
