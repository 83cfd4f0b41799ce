// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// art_cmd.go - ASCII-art panels of a recorded scene.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/jeranaias/zork-narrator/internal/art"
	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/narrator"
)

// HandleArt runs "narrator art".
func HandleArt(args Args) error {
	p := args.Parser("each", "plain")

	path := p.FlagOrDefault("transcript", p.Positional(0))
	if path == "" {
		return NewUsageError("art needs a transcript file", "narrator art --transcript play.jsonl --lines 20")
	}

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	n := cfg.MaxLogLines
	if p.HasFlag("lines") {
		n, err = p.FlagInt("lines")
		if err != nil || n < 1 {
			return NewUsageError("--lines must be a positive number", "narrator art --transcript play.jsonl --lines 20")
		}
	}

	transport, err := narrator.ResolveTransport(cfg, runtimeOptions...)
	if err != nil {
		return err
	}
	artist := art.New(transport, art.Options{Model: cfg.Model})

	profile := GetColorProfile()
	show := func(drawing string) {
		if p.BoolFlag("plain") {
			fmt.Fprintln(stdout, drawing)
			return
		}
		fmt.Fprint(stdout, art.Render(drawing, profile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if p.BoolFlag("each") {
		return drawMoments(ctx, artist, path, show)
	}

	lines, err := game.ReadFile(path)
	if err != nil {
		return transcriptError("art", path, err)
	}
	drawing, err := artist.Draw(ctx, art.Scene(lines, n))
	if errors.Is(err, art.ErrEmptyScene) {
		return NewCommandError("art", "draw", path, err)
	}
	if err != nil {
		return err
	}
	show(drawing)
	return nil
}

// drawMoments draws every printed message of the transcript. A failed
// drawing shows the game text instead; cancellation stops the run.
func drawMoments(ctx context.Context, artist *art.Artist, path string, show func(string)) error {
	entries, err := game.ReadEntries(path)
	if err != nil {
		return transcriptError("art", path, err)
	}

	for _, m := range art.Moments(entries) {
		source := m.Source
		if source == "" {
			source = "scene"
		}
		header := CommandStyle.Render(source)
		if m.Command != "" {
			header += DimStyle.Render("  · prev: " + m.Command)
		}
		fmt.Fprintln(stdout, header)

		drawing, err := artist.DrawMoment(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(stderr, "%s %v, showing text instead\n", WarningStyle.Render("model error:"), err)
			drawing = m.Text
		}
		show(drawing)
		fmt.Fprintln(stdout)
	}
	return nil
}
