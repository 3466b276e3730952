// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/review-engine/pkg/types"
)

// unpaywallAPIBase is the Unpaywall API endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// resolveUnpaywall queries the Unpaywall API for a DOI and returns the
// open-access PDF URL if one exists. The API requires a contact email as
// a query parameter.
func resolveUnpaywall(client *http.Client, doi string, cfg types.RetrievalConfig) (string, error) {
	apiURL := unpaywallAPIBase + doi + "?email=" + url.QueryEscape(cfg.Email)

	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating Unpaywall request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var uw unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&uw); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if uw.BestOALocation == nil {
		return "", nil
	}
	return uw.BestOALocation.URLForPDF, nil
}
