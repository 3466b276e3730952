// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-text conversion with pluggable backends.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/review-engine/internal/container"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// textDir is the subdirectory under the data base for extracted text.
	textDir = "text"
	// pdfDir is the subdirectory under the data base for downloaded PDFs.
	pdfDir = "pdf"
)

// Converter transforms a PDF file into plain text. Different backends
// (GROBID, markitdown) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the body text.
	Convert(pdfPath string) (string, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Statuses  map[string]types.ConversionStatus
}

// Total returns the total number of articles processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any articles failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TextPath returns the destination path for an article's extracted text.
func TextPath(dataDir, pmid string) string {
	return filepath.Join(dataDir, textDir, pmid+".txt")
}

// PDFPath returns the expected location of an article's PDF.
func PDFPath(dataDir, pmid string) string {
	return filepath.Join(dataDir, pdfDir, pmid+".pdf")
}

// Article converts a single article's PDF to text, writing the result
// under the data directory. If the text output already exists it skips
// conversion and returns ConversionNone.
func Article(c Converter, pmid string, cfg types.ConversionConfig, w io.Writer) types.ConversionStatus {
	txtPath := TextPath(cfg.DataDir, pmid)

	if _, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", pmid)
		return types.ConversionNone
	}

	if err := os.MkdirAll(filepath.Dir(txtPath), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", pmid, err)
		return types.ConversionFailed
	}

	text, err := c.Convert(PDFPath(cfg.DataDir, pmid))
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", pmid, err)
		return types.ConversionFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", pmid, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s\n", pmid)
	return types.ConversionDone
}

// Batch processes a list of articles through the converter, printing
// per-file status to w and returning a summary.
func Batch(c Converter, pmids []string, cfg types.ConversionConfig, w io.Writer) BatchResult {
	result := BatchResult{Statuses: map[string]types.ConversionStatus{}}
	for _, pmid := range pmids {
		status := Article(c, pmid, cfg, w)
		result.Statuses[pmid] = status
		switch status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// New builds the converter named by the configuration.
func New(cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendGROBID, "":
		return &GrobidConverter{Host: cfg.GrobidHost, Timeout: cfg.Timeout}, nil
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, fmt.Errorf("markitdown backend: %w", err)
		}
		return NewMarkitdownConverter(rt)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}
