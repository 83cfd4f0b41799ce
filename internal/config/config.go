// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the narrator.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/zork-narrator/internal/chunk"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/prompt"
	"github.com/jeranaias/zork-narrator/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config is the complete narrator configuration.
type Config struct {
	// Prompt and streaming
	SystemPrompt        string `toml:"system_prompt" json:"system_prompt" yaml:"system_prompt"`
	UserPromptTemplate  string `toml:"user_prompt_template" json:"user_prompt_template" yaml:"user_prompt_template"`
	MaxLogLines         int    `toml:"max_log_lines" json:"max_log_lines" yaml:"max_log_lines"`
	StreamOnlyNarration bool   `toml:"stream_only_narration" json:"stream_only_narration" yaml:"stream_only_narration"`
	MaxTokens           int    `toml:"max_tokens" json:"max_tokens" yaml:"max_tokens"`
	ChunkSize           int    `toml:"chunk_size" json:"chunk_size" yaml:"chunk_size"`

	// Model transport
	Provider           string `toml:"provider" json:"provider" yaml:"provider"`
	Model              string `toml:"model" json:"model" yaml:"model"`
	BaseURL            string `toml:"base_url" json:"base_url" yaml:"base_url"`
	APIKey             string `toml:"api_key" json:"api_key" yaml:"api_key"`
	TimeoutSecs        int    `toml:"timeout" json:"timeout" yaml:"timeout"`
	ResponseSchemaPath string `toml:"response_schema_path" json:"response_schema_path" yaml:"response_schema_path"`

	// Files
	LogDir    string `toml:"log_dir" json:"log_dir" yaml:"log_dir"`
	StorePath string `toml:"store_path" json:"store_path" yaml:"store_path"`

	// Presentation
	ShowSeparator bool    `toml:"show_separator" json:"show_separator" yaml:"show_separator"`
	ChunkRate     float64 `toml:"chunk_rate" json:"chunk_rate" yaml:"chunk_rate"`
	AutoNarrate   bool    `toml:"auto_narrate" json:"auto_narrate" yaml:"auto_narrate"`

	// Game sources
	GameCommand string `toml:"game_command" json:"game_command" yaml:"game_command"`
	FollowPath  string `toml:"follow_path" json:"follow_path" yaml:"follow_path"`

	// Speech
	VoiceCommand string `toml:"voice_command" json:"voice_command" yaml:"voice_command"`

	Companion CompanionConfig `toml:"companion" json:"companion" yaml:"companion"`
	UI        UIConfig        `toml:"ui" json:"ui" yaml:"ui"`
}

// CompanionConfig controls the scene-prompt companion.
type CompanionConfig struct {
	Enabled       bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	PreviewPath   string `toml:"preview_path" json:"preview_path" yaml:"preview_path"`
	StylePreset   string `toml:"style_preset" json:"style_preset" yaml:"style_preset"`
	NegativeExtra string `toml:"negative_extra" json:"negative_extra" yaml:"negative_extra"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
}

// DefaultTimeoutSecs bounds one model call.
const DefaultTimeoutSecs = 120

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SystemPrompt:        prompt.DefaultSystemPrompt,
		UserPromptTemplate:  prompt.DefaultUserTemplate,
		MaxLogLines:         prompt.DefaultMaxLogLines,
		StreamOnlyNarration: true,
		MaxTokens:           0,
		ChunkSize:           chunk.DefaultSize,

		Provider:    ProviderOllama,
		TimeoutSecs: DefaultTimeoutSecs,

		ShowSeparator: true,
		AutoNarrate:   true,

		UI: UIConfig{Theme: "default"},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvConfigPath names the variable that points at a config file.
const EnvConfigPath = "NARRATOR_CONFIG"

// ConfigDir returns the narrator configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".narrator"), nil
}

// DefaultPath returns the path of the primary TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// candidatePaths lists the files Load tries, in order.
func candidatePaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return []string{env}
	}
	dir, err := ConfigDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.yaml"),
	}
}

// inDir resolves a relative setting against the config directory.
func inDir(value, fallback string) string {
	if value == "" {
		value = fallback
	}
	if filepath.IsAbs(value) {
		return value
	}
	dir, err := ConfigDir()
	if err != nil {
		return value
	}
	return filepath.Join(dir, value)
}

// LogDirPath is where the audit log and TUI log are written.
func (c *Config) LogDirPath() string {
	return inDir(c.LogDir, "logs")
}

// StoreFilePath is the turn archive database.
func (c *Config) StoreFilePath() string {
	return inDir(c.StorePath, "turns.db")
}

// PreviewFilePath is where the companion writes scene prompts.
func (c *Config) PreviewFilePath() string {
	return inDir(c.Companion.PreviewPath, "scene.txt")
}

// Timeout returns the model call timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return DefaultTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// ErrNotFound is returned when an explicitly named config file is missing.
var ErrNotFound = errors.New("config file not found")

// Load finds and loads the configuration. It returns the path that was
// read, or "" when only defaults (plus environment overrides) apply.
func Load(explicit string) (*Config, string, error) {
	for _, path := range candidatePaths(explicit) {
		if _, err := os.Stat(path); err != nil {
			if explicit != "" || os.Getenv(EnvConfigPath) != "" {
				return nil, "", fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, "", nil
}

// LoadFromPath loads one file over the defaults, applies environment
// overrides and validates. The format follows the file extension; TOML is
// assumed for anything unrecognized.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the file format from a path extension; TOML is the fallback.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Parse decodes data over the defaults. Keys absent from data keep their
// default values.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML: %w", err)
		}
		for _, key := range md.Undecoded() {
			logging.Warnf("CONFIG: unknown key %q ignored", key.String())
		}
	}
	return cfg, nil
}

// =============================================================================
// SCHEMA
// =============================================================================

// LoadSchema returns the response schema: the file named by
// response_schema_path, or the built-in schema.
func (c *Config) LoadSchema() (json.RawMessage, error) {
	if c.ResponseSchemaPath == "" {
		return prompt.DefaultSchema, nil
	}

	data, err := os.ReadFile(c.ResponseSchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read response schema: %w", err)
	}
	var object map[string]any
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("response schema %s is not a JSON object: %w", c.ResponseSchemaPath, err)
	}
	return json.RawMessage(bytes.TrimSpace(data)), nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path in the format its extension names. Files are
// written atomically with 0600 permissions since they may hold an API key.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg, FormatOf(path))
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveTOML writes cfg as TOML regardless of the file extension.
func SaveTOML(cfg *Config, path string) error {
	data, err := Encode(cfg, FormatTOML)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode renders cfg in the given format.
func Encode(cfg *Config, format Format) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		enc.Close()
	default:
		fmt.Fprintln(&buf, "# zork-narrator configuration file")
		fmt.Fprintln(&buf, "# {game_log} in user_prompt_template receives the transcript excerpt;")
		fmt.Fprintln(&buf, "# {response_schema} in system_prompt receives the response schema.")
		fmt.Fprintln(&buf)
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
	}
	return buf.Bytes(), nil
}
