// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the narrator.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/prompt"
	"github.com/jeranaias/zork-narrator/internal/ui/styles"
)

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e ValidateErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks every field and returns all problems as ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// ==========================================================================
	// Prompt and streaming
	// ==========================================================================

	if c.MaxLogLines <= 0 {
		add("max_log_lines", "%v (got %d)", prompt.ErrInvalidMaxLogLines, c.MaxLogLines)
	}
	if c.ChunkSize <= 0 {
		add("chunk_size", "must be greater than zero (got %d)", c.ChunkSize)
	}
	if c.MaxTokens < 0 {
		add("max_tokens", "must not be negative (got %d); use 0 to leave it unset", c.MaxTokens)
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		add("system_prompt", "must not be empty")
	}
	if !strings.Contains(c.UserPromptTemplate, prompt.GameLogPlaceholder) {
		add("user_prompt_template", "must contain %s", prompt.GameLogPlaceholder)
	}
	if c.ChunkRate < 0 {
		add("chunk_rate", "must not be negative (got %g)", c.ChunkRate)
	}

	// ==========================================================================
	// Transport
	// ==========================================================================

	switch strings.ToLower(c.Provider) {
	case ProviderOpenAI, ProviderOllama:
	default:
		add("provider", "invalid provider '%s', must be one of: %s, %s", c.Provider, ProviderOpenAI, ProviderOllama)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("base_url", "invalid URL '%s', must be http(s)://host[:port]", c.BaseURL)
		}
	}
	if c.TimeoutSecs < 0 {
		add("timeout", "must not be negative (got %d)", c.TimeoutSecs)
	}
	if c.ResponseSchemaPath != "" {
		if _, err := os.Stat(c.ResponseSchemaPath); err != nil {
			add("response_schema_path", "cannot read '%s'", c.ResponseSchemaPath)
		}
	}

	// ==========================================================================
	// Sources and UI
	// ==========================================================================

	if c.GameCommand != "" && c.FollowPath != "" {
		add("game_command", "cannot be combined with follow_path")
	}
	if !styles.ValidTheme(c.UI.Theme) {
		add("ui.theme", "unknown theme '%s', must be one of: %s", c.UI.Theme, strings.Join(styles.Themes(), ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
