// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"net/http"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// pmcPDFBase is the PubMed Central article base URL. Declared as a var so
// tests can substitute an httptest server.
var pmcPDFBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/"

// resolvePMC constructs the direct PDF URL for a PMC identifier. No API
// call is involved; whether the PDF is really there surfaces at download.
func resolvePMC(_ *http.Client, pmcid string, _ types.RetrievalConfig) (string, error) {
	id := strings.TrimSpace(pmcid)
	if id == "" {
		return "", nil
	}
	if !strings.HasPrefix(id, "PMC") {
		id = "PMC" + id
	}
	return pmcPDFBase + id + "/pdf/", nil
}
