// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the two-message model prompt from a transcript window.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultMaxLogLines is the transcript window used when none is configured.
	DefaultMaxLogLines = 40

	// GameLogPlaceholder is the substitution point in the user template.
	GameLogPlaceholder = "{game_log}"

	// SchemaPlaceholder is replaced by the response schema in the system prompt.
	SchemaPlaceholder = "{response_schema}"
)

//go:embed response_schema.json
var schemaJSON []byte

// DefaultSchema is the JSON schema the model reply must follow.
var DefaultSchema = json.RawMessage(schemaJSON)

// DefaultSystemPrompt instructs the model to narrate without spoiling.
const DefaultSystemPrompt = "You are the narrator riding along with a player of a classic text adventure. " +
	"Read the recent game log and add a short, atmospheric narration that complements what the game printed. " +
	"Never reveal puzzle solutions, never invent objects the player has not seen, and never issue commands on the player's behalf. " +
	"Reply with a single JSON object that follows this schema exactly:\n" + SchemaPlaceholder

// DefaultUserTemplate wraps the transcript excerpt.
const DefaultUserTemplate = "Recent game log (commands are prefixed with '>'):\n\n" + GameLogPlaceholder + "\n\nNarrate the latest moment."

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidMaxLogLines is returned when the window size is not positive.
var ErrInvalidMaxLogLines = errors.New("max_log_lines must be greater than zero")

// ConfigError reports a builder misconfiguration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("prompt: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder turns a transcript window into the system and user messages.
// The zero value is not usable; MaxLogLines must be positive.
type Builder struct {
	// SystemPrompt is the fully resolved system prompt.
	SystemPrompt string

	// UserTemplate contains GameLogPlaceholder where the excerpt goes.
	UserTemplate string

	// MaxLogLines bounds how many trailing transcript lines are used.
	MaxLogLines int
}

// NewBuilder returns a builder with the default prompts and window size.
func NewBuilder() Builder {
	return Builder{
		SystemPrompt: ResolveSystemPrompt(DefaultSystemPrompt, DefaultSchema),
		UserTemplate: DefaultUserTemplate,
		MaxLogLines:  DefaultMaxLogLines,
	}
}

// Build returns exactly two messages, system then user. The user content is
// the last min(len(window), MaxLogLines) lines joined by newlines and
// substituted into the user template.
func (b Builder) Build(window []string) ([]model.Message, error) {
	if b.MaxLogLines <= 0 {
		return nil, &ConfigError{Field: "max_log_lines", Err: ErrInvalidMaxLogLines}
	}

	excerpt := strings.Join(Tail(window, b.MaxLogLines), "\n")

	return []model.Message{
		model.NewSystemMessage(b.SystemPrompt),
		model.NewUserMessage(FillTemplate(b.UserTemplate, excerpt)),
	}, nil
}

// Tail returns the last n elements of lines without copying.
func Tail(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}

// FillTemplate substitutes excerpt for GameLogPlaceholder. Doubled braces
// render as literal braces. The excerpt itself is inserted verbatim.
func FillTemplate(tmpl, excerpt string) string {
	return strings.NewReplacer("{{", "{", "}}", "}", GameLogPlaceholder, excerpt).Replace(tmpl)
}

// ResolveSystemPrompt replaces every SchemaPlaceholder with the compact
// schema JSON. Non-ASCII text in the schema is kept as is.
func ResolveSystemPrompt(tmpl string, schema json.RawMessage) string {
	if !strings.Contains(tmpl, SchemaPlaceholder) {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, SchemaPlaceholder, compactSchema(schema))
}

func compactSchema(schema json.RawMessage) string {
	if len(schema) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, schema); err != nil {
		return strings.TrimSpace(string(schema))
	}
	return buf.String()
}
