// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/review-engine/internal/container"
)

// markitdownImage is the converter image piped one PDF per container run.
const markitdownImage = "markitdown:latest"

// MarkitdownConverter is the conversion fallback for deployments without
// a GROBID server: each PDF is streamed through a markitdown container
// and the Markdown-flavored text comes back on stdout.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter builds the fallback converter on the given
// container runtime, verifying up front that the converter image is
// present so a batch does not fail one document at a time.
func NewMarkitdownConverter(rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(markitdownImage); err != nil {
		return nil, fmt.Errorf("markitdown converter unavailable: %w", err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Convert streams the PDF at pdfPath through the converter container and
// returns the text it produced.
func (m *MarkitdownConverter) Convert(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(markitdownImage, f, &out); err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("conversion of %s produced no text", pdfPath)
	}
	return text, nil
}
