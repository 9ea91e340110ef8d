package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/keyring"
)

func staticToken(token string) TokenSource {
	return func() (string, error) { return token, nil }
}

func setupTestServer(t *testing.T, reply string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestCompleteNotConfigured(t *testing.T) {
	c := New(config.LLMConfig{}, staticToken(""))
	if _, err := c.Complete(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Complete() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestComplete(t *testing.T) {
	srv, requests := setupTestServer(t, "Hello there")
	c := New(config.LLMConfig{BaseURL: srv.URL, Model: "test-model", Timeout: 5 * time.Second}, staticToken("test-token"))

	out, err := c.Complete(context.Background(), "Say hello")
	if err != nil {
		t.Fatalf("failed to complete: %v", err)
	}
	if out != "Hello there" {
		t.Errorf("Complete() = %q", out)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	if got := (*requests)[0]["model"]; got != "test-model" {
		t.Errorf("request model = %v", got)
	}
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(config.LLMConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, staticToken("test-token"))
	if _, err := c.Complete(context.Background(), "hi"); err == nil {
		t.Error("expected an error from a failing server")
	}
}

func TestConfigToken(t *testing.T) {
	gokeyring.MockInit()

	src := ConfigToken(config.LLMConfig{})
	if tok, err := src(); err != nil || tok != "" {
		t.Errorf("empty source = %q, %v", tok, err)
	}

	if err := keyring.SetLLMToken("from-keyring"); err != nil {
		t.Fatalf("failed to set token: %v", err)
	}
	if tok, _ := src(); tok != "from-keyring" {
		t.Errorf("keyring token = %q", tok)
	}

	src = ConfigToken(config.LLMConfig{Token: "from-config"})
	if tok, _ := src(); tok != "from-config" {
		t.Errorf("config token = %q, want it to win over the keyring", tok)
	}
}
