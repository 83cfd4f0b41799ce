// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP transport for the Ollama native chat API.
package ollama

import (
	"encoding/json"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message sent to /api/chat.
type Message struct {
	Role    string `json:"role"`    // "system" or "user"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for /api/chat endpoint.
type ChatRequest struct {
	Model    string          `json:"model"`             // Model name (e.g., "llama3.1:8b")
	Messages []Message       `json:"messages"`          // Prompt messages
	Stream   bool            `json:"stream"`            // Always false; replies are atomic
	Format   json.RawMessage `json:"format,omitempty"`  // JSON schema the reply must follow
	Options  *Options        `json:"options,omitempty"` // Model parameters
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"` // 0.0-2.0
	NumCtx      int     `json:"num_ctx,omitempty"`     // Context window size
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens to generate
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response from /api/chat endpoint.
type ChatResponse struct {
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	Message         Message   `json:"message"`
	Done            bool      `json:"done"`
	DoneReason      string    `json:"done_reason,omitempty"`
	TotalDuration   int64     `json:"total_duration,omitempty"`    // nanoseconds
	PromptEvalCount int       `json:"prompt_eval_count,omitempty"` // number of tokens in prompt
	EvalCount       int       `json:"eval_count,omitempty"`        // number of tokens generated
}

// OllamaError represents an error body from the Ollama API.
type OllamaError struct {
	Error string `json:"error"`
}
