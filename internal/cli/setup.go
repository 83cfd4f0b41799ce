// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Configuration and logging setup shared by the commands.

package cli

import (
	"os"

	"github.com/jeranaias/zork-narrator/internal/config"
	"github.com/jeranaias/zork-narrator/internal/logging"
)

// loadConfig applies --verbose and loads the configuration --config or the
// search order names.
func loadConfig(args Args) (*config.Config, string, error) {
	logging.SetVerbose(args.Verbose)

	cfg, path, err := config.Load(args.ConfigPath)
	if err != nil {
		return nil, path, err
	}
	if path != "" {
		logging.Debugf("CLI: loaded config from %s", path)
	}
	return cfg, path, nil
}

// configFilePath is where config init/set write: --config, then
// $NARRATOR_CONFIG, then the default path.
func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}
