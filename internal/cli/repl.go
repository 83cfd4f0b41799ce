// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-oriented narration session with input history.
//
// Every line typed is appended to the transcript as game text. Lines
// starting with ':' are session commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/jeranaias/zork-narrator/internal/config"
	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/stream"
)

const (
	replPrompt      = "game> "
	replHistoryFile = "repl_history"
)

const replHelp = `Type game text or commands; each line joins the transcript.
  :n, :narrate   Narrate the latest moment
  :w, :window    Show the lines the next turn will see
  :h, :help      Show this help
  :q, :quit      Leave (Ctrl+D works too)`

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the subset of liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// historyPath is the REPL history file in the config directory.
func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, replHistoryFile)
}

func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

// saveHistory writes history with 0600 permissions.
func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		logging.Debugf("CLI: failed to save REPL history: %v", err)
	}
}

// =============================================================================
// SESSION LOOP
// =============================================================================

// replSession is the state of one REPL run.
type replSession struct {
	rt       *narrator.Runtime
	out      io.Writer
	renderer stream.Renderer
}

// HandleREPL runs "narrator repl".
func HandleREPL(args Args) error {
	if err := RequiresTTY("run the REPL"); err != nil {
		return err
	}

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	rt, err := narrator.New(cfg, runtimeOptions...)
	if err != nil {
		return err
	}
	defer rt.Close()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	hist := historyPath()
	loadHistory(line, hist)
	defer func() {
		saveHistory(line, hist)
		line.Close()
	}()

	s := &replSession{
		rt:       rt,
		out:      stdout,
		renderer: stream.NewWriterRenderer(stdout, termenv.WithProfile(GetColorProfile())),
	}
	fmt.Fprintln(stdout, DimStyle.Render("Session "+rt.Session().ID()+". Type :h for help."))
	return s.loop(line)
}

// loop reads lines until :q, EOF or Ctrl+C.
func (s *replSession) loop(in lineReader) error {
	for {
		input, err := in.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			in.AppendHistory(input)
		}

		quit, err := s.handle(input)
		if err != nil {
			fmt.Fprintf(s.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether to quit.
func (s *replSession) handle(input string) (bool, error) {
	trimmed := strings.TrimSpace(input)

	switch strings.ToLower(trimmed) {
	case ":q", ":quit", ":exit":
		return true, nil
	case ":h", ":help":
		fmt.Fprintln(s.out, replHelp)
		return false, nil
	case ":w", ":window":
		for _, l := range s.rt.Window() {
			if strings.HasPrefix(l, game.CommandPrefix) {
				l = CommandStyle.Render(l)
			}
			fmt.Fprintln(s.out, l)
		}
		return false, nil
	case ":n", ":narrate":
		return false, s.narrate()
	}

	if strings.HasPrefix(trimmed, ":") {
		return false, fmt.Errorf("unknown session command %s (try :h)", trimmed)
	}
	if l := game.PlainLine(input); l != "" {
		s.rt.Feed(l)
	}
	return false, nil
}

// narrate runs one turn; Ctrl+C cancels it without leaving the REPL.
func (s *replSession) narrate() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err := s.rt.Turn(ctx, s.renderer)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(s.out, WarningStyle.Render("[Cancelled]"))
		return nil
	}
	return err
}
