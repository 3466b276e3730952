// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

// stubConverter returns fixed text or an error.
type stubConverter struct {
	text  string
	err   error
	calls int
}

func (s *stubConverter) Convert(string) (string, error) {
	s.calls++
	return s.text, s.err
}

func testConvCfg(t *testing.T) types.ConversionConfig {
	t.Helper()
	return types.ConversionConfig{DataDir: t.TempDir()}
}

func TestArticleWritesText(t *testing.T) {
	cfg := testConvCfg(t)
	c := &stubConverter{text: "Introduction\n\nMethods text."}

	var out bytes.Buffer
	status := Article(c, "123", cfg, &out)
	if status != types.ConversionDone {
		t.Fatalf("status = %q", status)
	}
	data, err := os.ReadFile(TextPath(cfg.DataDir, "123"))
	if err != nil {
		t.Fatalf("reading text: %v", err)
	}
	if string(data) != c.text {
		t.Errorf("text = %q", data)
	}
}

func TestArticleSkipsExisting(t *testing.T) {
	cfg := testConvCfg(t)
	path := TextPath(cfg.DataDir, "123")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &stubConverter{text: "new"}
	var out bytes.Buffer
	status := Article(c, "123", cfg, &out)
	if status != types.ConversionNone {
		t.Errorf("status = %q", status)
	}
	if c.calls != 0 {
		t.Errorf("converter invoked %d times for existing output", c.calls)
	}
}

func TestArticleFailure(t *testing.T) {
	cfg := testConvCfg(t)
	c := &stubConverter{err: errors.New("grobid down")}

	var out bytes.Buffer
	status := Article(c, "123", cfg, &out)
	if status != types.ConversionFailed {
		t.Errorf("status = %q", status)
	}
	if _, err := os.Stat(TextPath(cfg.DataDir, "123")); !os.IsNotExist(err) {
		t.Error("text file written despite failure")
	}
}

func TestBatch(t *testing.T) {
	cfg := testConvCfg(t)
	c := &stubConverter{text: "body"}

	var out bytes.Buffer
	result := Batch(c, []string{"1", "2"}, cfg, &out)
	if result.Converted != 2 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Statuses["1"] != types.ConversionDone {
		t.Errorf("status for 1 = %q", result.Statuses["1"])
	}
	if !strings.Contains(out.String(), "Batch summary: 2 converted, 0 skipped, 0 failed (total: 2)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(types.ConversionConfig{Backend: "pandoc"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
