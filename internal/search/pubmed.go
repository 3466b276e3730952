// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search wraps the PubMed E-utilities endpoints behind a record
// source with a two-phase contract: a count probe bounds the retrieval
// volume before the full fetch commits.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

const dateFmt = "2006/01/02"

// DateRange bounds a search by publication date. A zero range means
// unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// WindowEndingNow returns a range covering the given number of years back
// from today.
func WindowEndingNow(years int) DateRange {
	now := time.Now()
	return DateRange{From: now.AddDate(-years, 0, 0), To: now}
}

// Client queries the PubMed E-utilities API. The endpoint fields default
// to the package vars; callers embedding the client in a larger harness
// can point them elsewhere.
type Client struct {
	HTTP *http.Client
	Cfg  types.SearchConfig

	ESearchURL string
	EFetchURL  string
}

func (c *Client) esearchURL() string {
	if c.ESearchURL != "" {
		return c.ESearchURL
	}
	return esearchBase
}

func (c *Client) efetchURL() string {
	if c.EFetchURL != "" {
		return c.EFetchURL
	}
	return efetchBase
}

// esearch JSON structures. PubMed serializes the count as a string.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// FetchIDs runs an esearch query and returns up to limit record ids plus
// the index's total match count. The ids preserve the index's sort order.
func (c *Client) FetchIDs(ctx context.Context, query string, limit int, window DateRange) ([]string, int, error) {
	if query == "" {
		return nil, 0, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = c.Cfg.MaxResults
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(limit))
	params.Set("retmode", "json")
	if c.Cfg.Sort != "" {
		params.Set("sort", c.Cfg.Sort)
	}
	if c.Cfg.APIKey != "" {
		params.Set("api_key", c.Cfg.APIKey)
	}
	if !window.IsZero() {
		params.Set("datetype", "pdat")
		params.Set("mindate", window.From.Format(dateFmt))
		params.Set("maxdate", window.To.Format(dateFmt))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.esearchURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("esearch returned HTTP %d", resp.StatusCode)
	}

	var es esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&es); err != nil {
		return nil, 0, fmt.Errorf("parsing esearch response: %w", err)
	}

	count, err := strconv.Atoi(es.Result.Count)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing esearch count %q: %w", es.Result.Count, err)
	}

	return es.Result.IDList, count, nil
}

// Count probes the index for the total match count without committing to a
// full fetch. It issues the same esearch call with retmax=1.
func (c *Client) Count(ctx context.Context, query string, window DateRange) (int, error) {
	_, count, err := c.FetchIDs(ctx, query, 1, window)
	return count, err
}

// FetchRecords retrieves the raw XML payload for the given ids via efetch.
// Long id lists go in the POST body rather than the URL.
func (c *Client) FetchRecords(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	form := url.Values{}
	form.Set("db", "pubmed")
	form.Set("id", strings.Join(ids, ","))
	form.Set("retmode", "xml")
	if c.Cfg.APIKey != "" {
		form.Set("api_key", c.Cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.efetchURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0, nil)
	if err != nil {
		return "", fmt.Errorf("efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("efetch returned HTTP %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading efetch response: %w", err)
	}
	return string(payload), nil
}
