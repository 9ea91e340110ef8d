// Package llm is a thin client for an OpenAI-compatible completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/keyring"
	"github.com/julianstephens/goalkeeper/internal/logger"
)

// ErrNotConfigured is returned by Complete when no API token is available.
var ErrNotConfigured = errors.New("LLM is not configured: set llm.token or run 'goalkeeper keyring set'")

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TokenSource resolves the API token at call time. An empty token means the
// client is not configured.
type TokenSource func() (string, error)

// ConfigToken returns the configured token, falling back to the OS keyring.
func ConfigToken(cfg config.LLMConfig) TokenSource {
	return func() (string, error) {
		if cfg.Token.IsSet() {
			return cfg.Token.Value(), nil
		}
		token, err := keyring.GetLLMToken()
		if err != nil {
			if !errors.Is(err, keyring.ErrNotFound) {
				logger.Debug("Keyring lookup for LLM token failed", "error", err)
			}
			return "", nil
		}
		return token, nil
	}
}

type Client struct {
	baseURL     string
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
	token       TokenSource

	mu    sync.Mutex
	llm   llms.Model
	keyed string
}

var _ Completer = (*Client)(nil)

// New builds a client. No connection is made and no token is read until the
// first Complete call.
func New(cfg config.LLMConfig, token TokenSource) *Client {
	c := &Client{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		token:       token,
	}
	if c.model == "" {
		c.model = constants.DefaultLLMModel
	}
	if c.maxTokens == 0 {
		c.maxTokens = constants.DefaultLLMMaxTokens
	}
	if c.temperature == 0 {
		c.temperature = constants.DefaultLLMTemperature
	}
	if c.timeout == 0 {
		c.timeout = constants.DefaultLLMTimeout
	}
	if c.token == nil {
		c.token = ConfigToken(cfg)
	}
	return c
}

// client returns a langchaingo model for the current token, rebuilding it when
// the token changed.
func (c *Client) client() (llms.Model, error) {
	token, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve LLM token: %w", err)
	}
	if token == "" {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.llm != nil && c.keyed == token {
		return c.llm, nil
	}

	opts := []openai.Option{
		openai.WithModel(c.model),
		openai.WithToken(token),
	}
	if c.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	c.llm, c.keyed = m, token
	return m, nil
}

// Complete sends prompt as a single user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	m, err := c.client()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := llms.GenerateFromSinglePrompt(ctx, m, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		logger.Warn("LLM completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("llm completion: %w", err)
	}
	logger.Debug("LLM completion", "model", c.model, "duration", time.Since(start), "chars", len(out))
	return out, nil
}
