package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests. A per-call timeout is mandatory: external services are the
// pipeline's only non-deterministic-latency points.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the bibliographic search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps the number of records fetched after the count
	// probe (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Sort is the search index sort order (default "relevance").
	Sort string `json:"sort" yaml:"sort"`

	// DateWindowYears bounds the search to publications within this many
	// years before today (default 20).
	DateWindowYears int `json:"date_window_years" yaml:"date_window_years"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// NormalizeConfig holds settings for record normalization.
type NormalizeConfig struct {
	// MaxYearOffset sets the future-year boundary: records whose parsed
	// publication year exceeds currentYear+MaxYearOffset are dropped.
	// The default 0 retains records dated up to and including the
	// current year.
	MaxYearOffset int `json:"max_year_offset" yaml:"max_year_offset"`
}

// AIConfig holds shared settings for stages that call a language-model judge.
type AIConfig struct {
	// Provider selects the judge backend: "openai" (an OpenAI-compatible
	// endpoint such as a local llamafile server) or "claude".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the provider endpoint (required for local
	// OpenAI-compatible servers, e.g. "http://127.0.0.1:8080/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ScreeningConfig holds settings for title/abstract screening.
type ScreeningConfig struct {
	AIConfig `yaml:",inline"`
}

// RetrievalConfig holds settings for the full-text retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the politeness delay between consecutive articles'
	// external calls (default 1s). A configuration knob, not a
	// correctness requirement.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// DataDir is the base data directory (contains pdf/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Email is the contact address the open-access resolvers require.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// ConversionBackend identifies the full-text conversion tool.
type ConversionBackend string

const (
	BackendGROBID     ConversionBackend = "grobid"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: grobid or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// GrobidHost is the GROBID service address (default "http://localhost:8070").
	GrobidHost string `json:"grobid_host" yaml:"grobid_host"`

	// Timeout is the per-document conversion timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// DataDir is the base data directory (contains pdf/ and text/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ExtractionConfig holds settings for the PICO and risk-of-bias extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// DataDir is the base data directory (contains text/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// PICOSnippetLimit bounds the characters of converted text sent to
	// the judge for field extraction (default 8000).
	PICOSnippetLimit int `json:"pico_snippet_limit" yaml:"pico_snippet_limit"`

	// RoBSnippetLimit bounds the characters sent for bias assessment
	// (default 12000).
	RoBSnippetLimit int `json:"rob_snippet_limit" yaml:"rob_snippet_limit"`
}

// ReportConfig holds settings for the report assembler.
type ReportConfig struct {
	// Lang selects the report text catalog: "EN" or "KO" (default "EN").
	Lang string `json:"lang" yaml:"lang"`

	// DataDir is the base data directory the report is written under.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for a run. It is built
// once before the run starts and threaded through the coordinator
// unchanged; stages never reach for ambient global state.
type PipelineConfig struct {
	DataDir    string           `json:"data_dir" yaml:"data_dir"`
	Search     SearchConfig     `json:"search" yaml:"search"`
	Normalize  NormalizeConfig  `json:"normalize" yaml:"normalize"`
	Screening  ScreeningConfig  `json:"screening" yaml:"screening"`
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Report     ReportConfig     `json:"report" yaml:"report"`
}
