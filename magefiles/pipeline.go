//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runBinary executes the built CLI with the given arguments, building it
// first if bin/review-engine does not exist yet.
func runBinary(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		if err := Build(); err != nil {
			return err
		}
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Pipeline runs the full review pipeline end to end against review.yaml.
func Pipeline() error {
	fmt.Println("[pipeline] search, screen, retrieve, convert, extract, report")
	return runBinary("run")
}

// Report regenerates the markdown report from the current ledger.
func Report() error {
	return runBinary("report")
}

// Reset removes all generated pipeline data after confirmation.
func Reset() error {
	return runBinary("reset")
}
