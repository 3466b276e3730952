// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all derived review data",
	Long: `Reset deletes the ledger database, downloaded PDFs, converted text,
exported tables, raw search payloads, and generated reports under the
data directory. The criteria file is untouched.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	dir := dataDir(cmd)

	if skip, _ := cmd.Flags().GetBool("yes"); !skip {
		fmt.Printf("remove all review data under %s? [y/N] ", dir)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "y" && answer != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	return store.Reset(dir, os.Stdout)
}
