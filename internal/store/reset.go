// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reset removes every derived artifact under dataDir: the ledger
// database, downloaded PDFs, converted text, exported tables, raw search
// payloads, and generated reports. It prints each removed entry to w.
// The data directory itself survives.
func Reset(dataDir string, w io.Writer) error {
	entries := []string{
		filepath.Join(dataDir, indexDir),
		filepath.Join(dataDir, "raw"),
		filepath.Join(dataDir, "pdf"),
		filepath.Join(dataDir, "text"),
		filepath.Join(dataDir, tablesDir),
	}

	for _, entry := range entries {
		if _, err := os.Stat(entry); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(entry); err != nil {
			return fmt.Errorf("removing %s: %w", entry, err)
		}
		fmt.Fprintf(w, "removed: %s\n", entry)
	}

	// Generated reports sit directly under the data directory.
	reports, err := filepath.Glob(filepath.Join(dataDir, "report_*.md"))
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}
	for _, report := range reports {
		if err := os.Remove(report); err != nil {
			return fmt.Errorf("removing %s: %w", report, err)
		}
		fmt.Fprintf(w, "removed: %s\n", report)
	}
	return nil
}
