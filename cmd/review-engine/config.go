// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/judge"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "review-engine/0.1"
	defaultMaxResult = 50
)

// dataDir resolves the base data directory from the persistent flag.
func dataDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("data-dir")
	if dir == "" {
		dir = "data"
	}
	return dir
}

// buildConfig assembles the pipeline configuration from config file
// values, loaded secrets, and the command's flags.
func buildConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{DataDir: dataDir(cmd)}

	cfg.Search = types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:      viper.GetInt("search.max_results"),
		Sort:            viper.GetString("search.sort"),
		DateWindowYears: viper.GetInt("search.date_window_years"),
		APIKey:          secrets.Get(loadedSecrets, "ncbi-api-key", viper.GetString("search.api_key")),
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = defaultMaxResult
	}

	cfg.Normalize = types.NormalizeConfig{
		MaxYearOffset: viper.GetInt("normalize.max_year_offset"),
	}

	ai := types.AIConfig{
		Provider:   viper.GetString("ai.provider"),
		Model:      viper.GetString("ai.model"),
		BaseURL:    secrets.Get(loadedSecrets, "llm-base-url", viper.GetString("ai.base_url")),
		APIKey:     aiAPIKey(),
		MaxRetries: viper.GetInt("ai.max_retries"),
		Timeout:    defaultTimeout,
	}
	cfg.Screening = types.ScreeningConfig{AIConfig: ai}

	cfg.Retrieval = types.RetrievalConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: defaultDelay,
		DataDir:       cfg.DataDir,
		Email:         secrets.Get(loadedSecrets, "unpaywall-email", viper.GetString("retrieval.email")),
	}

	cfg.Conversion = types.ConversionConfig{
		Backend:    types.ConversionBackend(viper.GetString("conversion.backend")),
		GrobidHost: viper.GetString("conversion.grobid_host"),
		Timeout:    2 * time.Minute,
		DataDir:    cfg.DataDir,
	}

	cfg.Extraction = types.ExtractionConfig{
		AIConfig:         ai,
		DataDir:          cfg.DataDir,
		PICOSnippetLimit: viper.GetInt("extraction.pico_snippet_limit"),
		RoBSnippetLimit:  viper.GetInt("extraction.rob_snippet_limit"),
	}

	cfg.Report = types.ReportConfig{
		Lang:    viper.GetString("report.lang"),
		DataDir: cfg.DataDir,
	}

	return cfg
}

// aiAPIKey prefers the provider-specific secret over the generic one.
func aiAPIKey() string {
	if viper.GetString("ai.provider") == "claude" {
		if key := secrets.Get(loadedSecrets, "anthropic-api-key", ""); key != "" {
			return key
		}
	}
	return secrets.Get(loadedSecrets, "llm-api-key", viper.GetString("ai.api_key"))
}

// newHTTPClient builds the HTTP client the pipeline stages share.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// newJudge builds the AI judge from the screening configuration.
func newJudge(cfg types.PipelineConfig) (judge.Judge, error) {
	return judge.New(cfg.Screening.AIConfig)
}
