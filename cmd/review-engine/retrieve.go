// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Download full-text PDFs for included articles",
	Long: `Retrieve walks the open-access source chain (Unpaywall, OpenAlex,
PubMed Central) for every article the screening stage included. Sources
whose identifier an article lacks are skipped; PDFs already on disk are
never re-downloaded.`,
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		cfg.Retrieval.DownloadDelay = delay
	}

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	included, err := s.LoadIncluded(cmd.Context())
	if err != nil {
		return err
	}
	var candidates []types.ArticleRecord
	for _, rec := range included {
		if rec.Status.CanAdvance(types.StatusRetrievalAttempted) {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		fmt.Println("no included articles to retrieve")
		return nil
	}

	client := newHTTPClient(cfg.Retrieval.Timeout)
	result := retrieve.Batch(client, retrieve.DefaultChain(), candidates, cfg.Retrieval, os.Stdout)

	for pmid, status := range result.Statuses {
		if err := s.UpdateRetrieval(cmd.Context(), pmid, status); err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed retrieval", result.Failed)
	}
	return nil
}
