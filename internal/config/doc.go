// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the narrator.
//
// TOML is the primary format; JSON and YAML files are accepted too. Values
// missing from a file keep their defaults, environment variables override
// the file, and Validate reports every invalid field at once.
//
// # Search Order
//
//   - the --config path
//   - $NARRATOR_CONFIG
//   - ~/.narrator/config.toml
//   - ~/.narrator/config.json
//   - ~/.narrator/config.yaml
//   - built-in defaults
//
// # Environment Overrides
//
//   - NARRATOR_PROVIDER, NARRATOR_MODEL, NARRATOR_BASE_URL
//   - NARRATOR_API_KEY (or OPENAI_API_KEY when unset)
//   - NARRATOR_MAX_TOKENS
//
// # Usage
//
//	cfg, path, err := config.Load(flagPath)
//	schema, err := cfg.LoadSchema()
//	cfg.Set("max_log_lines", "60")
//	err = config.Save(cfg, path)
package config
