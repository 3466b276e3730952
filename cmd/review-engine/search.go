// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/internal/query"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search PubMed for articles matching the review criteria",
	Long: `Search builds a PubMed query from the PICOS criteria file, probes the
index for the total match count, and after confirmation fetches and
normalizes the matching records into the review ledger. Records without a
plausible publication year are dropped.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("picos", "review.yaml", "PICOS criteria file")
	searchCmd.Flags().Int("max", 0, "maximum records to fetch (default from config, 50)")
	searchCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	specPath, _ := cmd.Flags().GetString("picos")
	spec, err := loadSpec(specPath)
	if err != nil {
		return err
	}

	q := query.Build(spec)
	if q == "" {
		return fmt.Errorf("criteria in %s produce an empty query", specPath)
	}
	fmt.Printf("query: %s\n", q)

	if max, _ := cmd.Flags().GetInt("max"); max > 0 {
		cfg.Search.MaxResults = max
	}

	client := &search.Client{HTTP: newHTTPClient(cfg.Search.Timeout), Cfg: cfg.Search}

	var window search.DateRange
	if cfg.Search.DateWindowYears > 0 {
		window = search.WindowEndingNow(cfg.Search.DateWindowYears)
	}

	total, err := client.Count(cmd.Context(), q, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: count probe failed: %v\n", err)
		total = -1
	} else {
		fmt.Printf("matches: %d\n", total)
	}

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm && !confirmFetch(total, cfg.Search.MaxResults) {
		fmt.Println("aborted")
		return nil
	}

	// Search failures degrade to an empty result set so the run is still
	// recorded in the ledger.
	ids, fetched, err := client.FetchIDs(cmd.Context(), q, cfg.Search.MaxResults, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: search failed, continuing with no results: %v\n", err)
		ids = nil
	} else {
		total = fetched
		fmt.Printf("fetched %d record ids\n", len(ids))
	}

	var payload string
	if len(ids) > 0 {
		payload, err = client.FetchRecords(cmd.Context(), ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: fetching records failed, continuing with none: %v\n", err)
			payload = ""
		} else {
			rawDir := filepath.Join(cfg.DataDir, "raw")
			if err := os.MkdirAll(rawDir, 0o755); err != nil {
				return fmt.Errorf("creating raw directory: %w", err)
			}
			if err := os.WriteFile(filepath.Join(rawDir, "articles.xml"), []byte(payload), 0o644); err != nil {
				return fmt.Errorf("saving raw payload: %w", err)
			}
		}
	}

	var res normalize.Result
	if payload != "" {
		res, err = normalize.Normalize(payload, time.Now().Year(), cfg.Normalize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: normalizing records failed, continuing with none: %v\n", err)
			res = normalize.Result{}
		}
	}
	fmt.Printf("normalized %d records (%d dropped)\n", len(res.Records), res.Dropped)

	if total < 0 {
		total = 0
	}

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.BeginRun(cmd.Context(), q, total); err != nil {
		return err
	}
	return s.UpsertArticles(cmd.Context(), res.Records)
}

// confirmFetch asks on stdin whether to proceed with the fetch.
func confirmFetch(total, max int) bool {
	if total >= 0 {
		fmt.Printf("fetch up to %d of %d matching records? [y/N] ", max, total)
	} else {
		fmt.Printf("match count unavailable; fetch up to %d records anyway? [y/N] ", max)
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
