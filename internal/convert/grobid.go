// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultGrobidHost = "http://localhost:8070"

// GrobidConverter converts PDFs through a GROBID server's full-text
// endpoint and extracts the body text from the returned TEI XML.
type GrobidConverter struct {
	Host    string
	Timeout time.Duration
	Client  *http.Client
}

func (g *GrobidConverter) host() string {
	if g.Host == "" {
		return defaultGrobidHost
	}
	return strings.TrimRight(g.Host, "/")
}

func (g *GrobidConverter) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	timeout := g.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

// IsAlive checks the GROBID health endpoint. The server answers the
// literal string "true" when ready.
func (g *GrobidConverter) IsAlive() error {
	resp, err := g.client().Get(g.host() + "/api/isalive")
	if err != nil {
		return fmt.Errorf("reaching GROBID at %s: %w", g.host(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GROBID health check returned HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading GROBID health response: %w", err)
	}
	if strings.TrimSpace(string(body)) != "true" {
		return fmt.Errorf("GROBID not ready: %q", strings.TrimSpace(string(body)))
	}
	return nil
}

// Convert uploads the PDF to the GROBID full-text endpoint and returns
// the body text extracted from the TEI response.
func (g *GrobidConverter) Convert(pdfPath string) (string, error) {
	tei, err := g.ProcessPDF(pdfPath)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(tei)
	if err != nil {
		return "", fmt.Errorf("extracting text from TEI for %s: %w", pdfPath, err)
	}
	if text == "" {
		return "", fmt.Errorf("GROBID produced no body text for %s", pdfPath)
	}
	return text, nil
}

// ProcessPDF uploads the PDF and returns the raw TEI XML document.
func (g *GrobidConverter) ProcessPDF(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("input", pdfPath)
	if err != nil {
		return "", fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.host()+"/api/processFulltextDocument", &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("GROBID request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("GROBID returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tei, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading GROBID response: %w", err)
	}
	return string(tei), nil
}
