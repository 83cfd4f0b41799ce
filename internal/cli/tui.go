// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Start the three-pane interface.

package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/ui/app"
	"github.com/jeranaias/zork-narrator/internal/ui/styles"
)

// tuiLogFile is the log written while the alternate screen is active.
const tuiLogFile = "narrator.log"

// HandleTUI runs "narrator tui", the default command.
func HandleTUI(args Args) error {
	p := args.Parser()

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	gameCmd := p.FlagOrDefault("game", cfg.GameCommand)
	follow := p.FlagOrDefault("follow", cfg.FollowPath)
	if p.Flag("game") != "" {
		follow = p.Flag("follow")
	} else if p.Flag("follow") != "" {
		gameCmd = ""
	}
	if gameCmd != "" && follow != "" {
		return NewUsageError("--game and --follow cannot be combined", `narrator --game "dfrotz zork1.z5"`)
	}

	if err := RequiresTTY("start the interface"); err != nil {
		return err
	}

	// Logs go to a file so they never corrupt the alternate screen.
	if err := os.MkdirAll(cfg.LogDirPath(), 0700); err == nil {
		if f, err := tea.LogToFile(filepath.Join(cfg.LogDirPath(), tuiLogFile), ""); err == nil {
			logging.SetOutput(f)
			defer f.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source app.GameSource
	switch {
	case gameCmd != "":
		proc, err := game.StartProcess(ctx, gameCmd, game.DefaultSettle)
		if err != nil {
			return NewCommandError("tui", "start game", gameCmd, err)
		}
		defer proc.Close()
		source = proc
	case follow != "":
		f, err := game.NewFollower(follow, true)
		if err != nil {
			return NewCommandError("tui", "follow", follow, err)
		}
		defer f.Close()
		source = f
	}

	rt, err := narrator.New(cfg, runtimeOptions...)
	if err != nil {
		return err
	}
	defer rt.Close()

	m := app.New(rt, app.Options{
		Theme:       styles.NewTheme(cfg.UI.Theme),
		Source:      source,
		AutoNarrate: cfg.AutoNarrate,
		Highlight:   !cfg.StreamOnlyNarration,
	})
	return app.Run(ctx, m)
}
