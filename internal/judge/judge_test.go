// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"claude", false},
		{"", false},
		{"gemini", true},
	}
	for _, tt := range tests {
		_, err := New(types.AIConfig{Provider: tt.provider, Model: "m"})
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
		}
	}
}

func TestNewSetsClientTimeout(t *testing.T) {
	j, err := New(types.AIConfig{Provider: "openai", Model: "m", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := j.(*OpenAIBackend).Client.Timeout; got != 5*time.Second {
		t.Errorf("openai timeout = %v, want 5s", got)
	}

	j, err = New(types.AIConfig{Provider: "claude", Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := j.(*ClaudeBackend).Client.Timeout; got != defaultJudgeTimeout {
		t.Errorf("claude timeout = %v, want default", got)
	}
}

func TestClaudeBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["system"] != "You screen articles." {
			t.Errorf("system = %v", body["system"])
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"decision\":\"Included\"}"}]}`))
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	b := &ClaudeBackend{APIKey: "test-key", Model: "claude-test"}
	out, err := b.Judge(context.Background(), Prompt{System: "You screen articles.", User: "Title: X"})
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if out != `{"decision":"Included"}` {
		t.Errorf("out = %q", out)
	}
}

func TestClaudeBackendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	b := &ClaudeBackend{APIKey: "k", Model: "m"}
	if _, err := b.Judge(context.Background(), Prompt{User: "x"}); err == nil {
		t.Error("expected error for HTTP 503")
	}
}

func TestOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", body.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	b := &OpenAIBackend{Model: "local", BaseURL: srv.URL + "/v1"}
	out, err := b.Judge(context.Background(), Prompt{System: "sys", User: "user"})
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q", out)
	}
}

func TestOpenAIBackendNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	b := &OpenAIBackend{Model: "local", BaseURL: srv.URL}
	if _, err := b.Judge(context.Background(), Prompt{User: "x"}); err == nil {
		t.Error("expected error for empty choices")
	}
}
