// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the narrator.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - NARRATOR_PROVIDER: overrides provider
//   - NARRATOR_MODEL: overrides model
//   - NARRATOR_BASE_URL: overrides base_url
//   - NARRATOR_API_KEY: overrides api_key
//   - OPENAI_API_KEY: used for api_key when neither the file nor NARRATOR_API_KEY set one
//   - NARRATOR_MAX_TOKENS: overrides max_tokens
func (c *Config) ApplyEnvOverrides() {
	if provider := os.Getenv("NARRATOR_PROVIDER"); provider != "" {
		c.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("NARRATOR_MODEL"); model != "" {
		c.Model = model
	}
	if baseURL := os.Getenv("NARRATOR_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if key := os.Getenv("NARRATOR_API_KEY"); key != "" {
		c.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.APIKey == "" {
		c.APIKey = key
	}

	if raw := os.Getenv("NARRATOR_MAX_TOKENS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			logging.Warnf("CONFIG: ignoring NARRATOR_MAX_TOKENS=%q: not an integer", raw)
		} else {
			c.MaxTokens = n
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned for a key that names no setting.
var ErrUnknownKey = errors.New("unknown config key")

// Get returns a setting by its file key, e.g. "max_log_lines" or "ui.theme".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value for the setting named by key. Validate is not run.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number, got %q", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: is a section, not a value", key)
	}
	return nil
}

// Keys lists every settable key in dot notation, sorted.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := tagName(f)
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), ".")
	v := reflect.ValueOf(c).Elem()

	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %s is not a section", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}
