// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP transport for the Ollama native chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/logging"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL uses an explicit IPv4 address to avoid IPv6 resolution issues on Windows.
	DefaultBaseURL = "http://127.0.0.1:11434"

	// DefaultTimeout bounds one whole chat request.
	DefaultTimeout = 120 * time.Second

	// DefaultModel is used when the request names no model.
	DefaultModel = "llama3.1:8b"

	// MaxResponseSize caps how much of a reply body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	BaseURL string

	// Timeout for a chat request (default: 120s)
	Timeout time.Duration

	// DefaultModel to use if none specified
	DefaultModel string

	// Temperature is passed through when non-zero
	Temperature float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		DefaultModel: DefaultModel,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends schema-constrained chat requests to Ollama. It implements
// completion.Transport and is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return completion.NewError(completion.KindTransport, "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion.NewError(completion.KindTransport, "Ollama is not running", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return completion.StatusError(resp.StatusCode, "unexpected status from Ollama: "+resp.Status)
	}
	return nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Complete sends one non-streaming chat request. The schema is passed as
// the format so Ollama constrains decoding to it.
func (c *Client) Complete(ctx context.Context, r completion.Request) (string, error) {
	model := r.Model
	if model == "" {
		model = c.config.DefaultModel
	}

	reqBody := ChatRequest{
		Model:    model,
		Messages: toMessages(r),
		Stream:   false,
		Format:   r.Schema,
	}
	if r.MaxTokens > 0 || c.config.Temperature != 0 {
		reqBody.Options = &Options{Temperature: c.config.Temperature}
		if r.MaxTokens > 0 {
			reqBody.Options.NumPredict = r.MaxTokens
		}
	}

	resp, err := c.Chat(ctx, reqBody)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Chat sends a chat request and returns the complete response.
func (c *Client) Chat(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, completion.NewError(completion.KindEnvelope, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, completion.NewError(completion.KindTransport, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, completion.NewError(completion.KindTransport, "request timed out", err)
		}
		return nil, completion.NewError(completion.KindTransport, "Ollama is not reachable", err)
	}
	defer resp.Body.Close()
	logging.Debugf("OLLAMA: %d %s (%v)", resp.StatusCode, req.URL.Path, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, completion.NewError(completion.KindTransport, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, data, reqBody.Model)
	}

	var result ChatResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, completion.NewError(completion.KindEnvelope, "failed to decode response", err)
	}
	if !result.Done && result.Message.Content == "" {
		return nil, completion.NewError(completion.KindEnvelope, "empty response from Ollama", nil)
	}

	return &result, nil
}

func statusError(resp *http.Response, data []byte, model string) error {
	var ollamaErr OllamaError
	if err := json.Unmarshal(data, &ollamaErr); err == nil && ollamaErr.Error != "" {
		return completion.StatusError(resp.StatusCode, ollamaErr.Error)
	}
	if resp.StatusCode == http.StatusNotFound {
		return completion.StatusError(resp.StatusCode, fmt.Sprintf("model %q not found", model))
	}
	return completion.StatusError(resp.StatusCode, "chat request failed: "+resp.Status)
}

func toMessages(r completion.Request) []Message {
	out := make([]Message, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = Message{Role: m.Role.String(), Content: m.Content}
	}
	return out
}
