// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge abstracts the Generative AI API used for screening
// decisions and structured extraction. Implementations return the model's
// raw text; callers own the parsing.
package judge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Prompt pairs a system instruction with the user message for one call.
type Prompt struct {
	System string
	User   string
}

// Judge submits a prompt to a language model and returns the raw response
// text. Tests supply a stub; production code uses New.
type Judge interface {
	Judge(ctx context.Context, p Prompt) (string, error)
}

const defaultJudgeTimeout = 60 * time.Second

// New builds a Judge for the configured provider. Every backend carries a
// per-call HTTP timeout so a hung endpoint cannot stall a batch.
func New(cfg types.AIConfig) (Judge, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "openai", "":
		return &OpenAIBackend{Model: cfg.Model, BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Client: client}, nil
	case "claude":
		return &ClaudeBackend{Model: cfg.Model, APIKey: cfg.APIKey, Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
