// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

const pdfDir = "pdf"

// BatchResult holds the outcome of a batch retrieval run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Statuses   map[string]types.RetrievalStatus
}

// Total returns the number of articles processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any articles failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// PDFPath returns the destination path for an article's PDF.
func PDFPath(dataDir, pmid string) string {
	return filepath.Join(dataDir, pdfDir, pmid+".pdf")
}

// Article attempts to retrieve one article's full-text PDF by walking the
// source chain. A PDF already on disk short-circuits before any network
// call. Sources whose identifier the article lacks are skipped; a failure
// in one source never blocks the next.
func Article(client *http.Client, chain []Source, rec types.ArticleRecord, cfg types.RetrievalConfig, w io.Writer) types.RetrievalStatus {
	dest := PDFPath(cfg.DataDir, rec.PMID)

	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", rec.PMID)
		return types.RetrievalStatus{Kind: types.RetrievalAlreadyPresent}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", rec.PMID, err)
		return types.RetrievalStatus{Kind: types.RetrievalSourceFailed}
	}

	attempted := 0
	var last types.RetrievalStatus

	for _, src := range chain {
		id := rec.ExternalIDs[src.Requires]
		if id == "" {
			continue
		}
		attempted++

		pdfURL, err := src.Resolve(client, id, cfg)
		if err != nil {
			fmt.Fprintf(w, "  warning: %s resolve failed for %s: %v\n", src.Name, rec.PMID, err)
			last = types.RetrievalStatus{Kind: types.RetrievalSourceFailed, Source: src.Name}
			continue
		}
		if pdfURL == "" {
			last = types.RetrievalStatus{Kind: types.RetrievalNoOpenAccessLink, Source: src.Name}
			continue
		}

		if err := downloadFile(client, pdfURL, dest, cfg); err != nil {
			fmt.Fprintf(w, "  warning: %s download failed for %s: %v\n", src.Name, rec.PMID, err)
			last = types.RetrievalStatus{Kind: types.RetrievalSourceFailed, Source: src.Name}
			continue
		}

		fmt.Fprintf(w, "downloaded: %s (%s)\n", rec.PMID, src.Name)
		return types.RetrievalStatus{Kind: types.RetrievalDownloaded, Source: src.Name}
	}

	switch attempted {
	case 0:
		fmt.Fprintf(w, "failed:  %s (no usable source identifier)\n", rec.PMID)
		return types.RetrievalStatus{Kind: types.RetrievalNoSourceIdentifier}
	case 1:
		fmt.Fprintf(w, "failed:  %s (%s)\n", rec.PMID, last)
		return last
	default:
		fmt.Fprintf(w, "failed:  %s (all sources exhausted)\n", rec.PMID)
		return types.RetrievalStatus{Kind: types.RetrievalAllSourcesExhausted}
	}
}

// Batch retrieves PDFs for multiple articles, printing per-item status
// and returning a summary. It continues after individual failures and
// applies a politeness delay between consecutive articles.
func Batch(client *http.Client, chain []Source, recs []types.ArticleRecord, cfg types.RetrievalConfig, w io.Writer) BatchResult {
	result := BatchResult{Statuses: map[string]types.RetrievalStatus{}}
	for i, rec := range recs {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		status := Article(client, chain, rec, cfg, w)
		result.Statuses[rec.PMID] = status
		switch {
		case status.Kind == types.RetrievalAlreadyPresent:
			result.Skipped++
		case status.Succeeded():
			result.Downloaded++
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}
