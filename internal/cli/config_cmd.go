// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Create, inspect and edit the config file.

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/cloud"
	"github.com/jeranaias/zork-narrator/internal/config"
)

// HandleConfig runs "narrator config".
func HandleConfig(args Args) error {
	p := args.Parser("force", "json", "yaml")

	switch p.Subcommand() {
	case "init":
		return configInit(args, p.BoolFlag("force"))
	case "show", "":
		format := config.FormatTOML
		if p.BoolFlag("json") {
			format = config.FormatJSON
		} else if p.BoolFlag("yaml") {
			format = config.FormatYAML
		}
		return configShow(args, format)
	case "path":
		return configPath(args)
	case "get":
		return configGet(args, p.Positional(1))
	case "set":
		return configSet(args, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(stdout, k)
		}
		return nil
	default:
		return NewUsageError(fmt.Sprintf("unknown config subcommand %q", p.Subcommand()), "narrator config show")
	}
}

func configInit(args Args, force bool) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", "file exists (use --force to overwrite)", errors.New(path))
	}
	if err := config.Save(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "write", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func configShow(args Args, format config.Format) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.APIKey != "" {
		shown.APIKey = cloud.MaskKey(shown.APIKey)
	}
	data, err := config.Encode(&shown, format)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func configPath(args Args) error {
	_, loaded, err := loadConfig(args)
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return err
	}
	if loaded != "" {
		fmt.Fprintln(stdout, loaded)
		return nil
	}

	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s\n", path, DimStyle.Render("(not created; defaults in use)"))
	return nil
}

func configGet(args Args, key string) error {
	if key == "" {
		return NewUsageError("config get needs a key", "narrator config get max_log_lines")
	}
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, v)
	return nil
}

// configSet edits the file itself, so environment overrides never leak
// into it.
func configSet(args Args, key, value string) error {
	if key == "" {
		return NewUsageError("config set needs a key and a value", "narrator config set max_log_lines 60")
	}

	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = config.Parse(data, config.FormatOf(path)); err != nil {
			return NewCommandError("config", "set", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return NewCommandError("config", "set", path, err)
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return NewCommandError("config", "set", "write", err)
	}
	fmt.Fprintf(stdout, "%s = %v\n", key, value)
	return nil
}
