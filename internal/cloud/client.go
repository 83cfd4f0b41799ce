// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the transport for OpenAI-compatible chat completion servers.
//
// Any server that speaks the /chat/completions protocol works: hosted
// OpenAI, OpenRouter, or a local runtime such as Foundry Local, LM Studio
// or llama.cpp's server.
package cloud

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/model"
)

// Configuration constants.
const (
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default timeout for one completion request.
	DefaultTimeout = 120 * time.Second

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// placeholderKey is sent to local servers that ignore authentication.
	placeholderKey = "not-needed"
)

// Client sends strict JSON-schema chat completion requests. It implements
// completion.Transport.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	temperature float32
	api         *openai.Client
}

// NewClient creates a client for an OpenAI-compatible endpoint. An empty
// key is replaced by a placeholder so local servers accept the request.
func NewClient(apiKey string) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	c.rebuild()
	return c
}

// WithBaseURL sets a custom base URL (e.g., a local server at http://localhost:5273/v1).
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
		c.rebuild()
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
		c.rebuild()
	}
	return c
}

// WithModel sets the model used when a request names none.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithTemperature sets the sampling temperature. Zero leaves the server default.
func (c *Client) WithTemperature(t float32) *Client {
	c.temperature = t
	return c
}

func (c *Client) rebuild() {
	key := c.apiKey
	if key == "" {
		key = placeholderKey
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = &http.Client{Timeout: c.timeout}
	c.api = openai.NewClientWithConfig(cfg)
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a masked version of the API key for display.
func (c *Client) APIKeyMasked() string {
	return MaskKey(c.apiKey)
}

// MaskKey shortens a secret to its first and last four characters.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 12 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Complete sends one non-streaming request with a strict json_schema
// response format and returns choices[0].message.content.
func (c *Client) Complete(ctx context.Context, r completion.Request) (string, error) {
	req := BuildRequest(r, c.model)
	if c.temperature != 0 {
		req.Temperature = c.temperature
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	logging.Debugf("CLOUD: POST %s/chat/completions model=%s (%v)", c.baseURL, req.Model, time.Since(start))
	if err != nil {
		return "", translateError(err)
	}

	if len(resp.Choices) == 0 {
		return "", completion.NewError(completion.KindEnvelope, "response contained no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildRequest maps a completion request onto the OpenAI wire format.
func BuildRequest(r completion.Request, defaultModel string) openai.ChatCompletionRequest {
	model := r.Model
	if model == "" {
		model = defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toMessages(r.Messages),
	}
	if len(r.Schema) > 0 {
		name := r.SchemaName
		if name == "" {
			name = completion.DefaultSchemaName
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: r.Schema,
				Strict: true,
			},
		}
	}
	if r.MaxTokens > 0 {
		req.MaxTokens = r.MaxTokens
	}
	return req
}

func toMessages(msgs []model.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// translateError maps go-openai errors onto completion errors.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.HTTPStatusCode)
		}
		return &completion.Error{
			Kind:       completion.KindStatus,
			Message:    msg,
			StatusCode: apiErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &completion.Error{
			Kind:       completion.KindStatus,
			Message:    "chat request failed: " + http.StatusText(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return completion.NewError(completion.KindTransport, "request timed out", err)
	}
	return completion.NewError(completion.KindTransport, "chat request failed", err)
}
