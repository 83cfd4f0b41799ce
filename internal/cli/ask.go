// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One narration turn over a transcript file.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/stream"
)

// errNoTranscript marks a missing transcript file.
var errNoTranscript = errors.New("transcript not found")

// runtimeOptions are added to every runtime the commands build. Tests use
// it to replace the transport.
var runtimeOptions []narrator.Option

// transcriptError reports a transcript that could not be read.
func transcriptError(command, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", errNoTranscript, path)
	}
	return NewCommandError(command, "read transcript", path, err)
}

// askOutput is the --json document.
type askOutput struct {
	Turn      int             `json:"turn"`
	Narration string          `json:"narration"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Rung      string          `json:"recovery,omitempty"`
	Millis    int64           `json:"duration_ms"`
}

// HandleAsk runs "narrator ask".
func HandleAsk(args Args) error {
	p := args.Parser("markdown", "json", "dry-run")

	path := p.FlagOrDefault("transcript", p.Positional(0))
	if path == "" {
		return NewUsageError("ask needs a transcript file", "narrator ask --transcript play.jsonl")
	}

	lines, err := game.ReadFile(path)
	if err != nil {
		return transcriptError("ask", path, err)
	}

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	if p.BoolFlag("dry-run") {
		opts := append([]narrator.Option{narrator.WithoutStore(), narrator.WithoutAudit(), narrator.WithoutVoice()}, runtimeOptions...)
		rt, err := narrator.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer rt.Close()

		rt.Feed(lines...)
		msgs, err := rt.Prompt()
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Fprintln(stdout, TitleStyle.Render("["+m.Role.String()+"]"))
			fmt.Fprintln(stdout, m.Content)
			fmt.Fprintln(stdout)
		}
		return nil
	}

	rt, err := narrator.New(cfg, runtimeOptions...)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.Feed(lines...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		renderer stream.Renderer = stream.NullRenderer{}
		writer   *stream.WriterRenderer
	)
	if !p.BoolFlag("json") && !p.BoolFlag("markdown") {
		writer = stream.NewWriterRenderer(stdout, termenv.WithProfile(GetColorProfile()))
		renderer = writer
	}

	result, err := rt.Turn(ctx, renderer)
	if err != nil {
		return err
	}
	if writer != nil && writer.Err() != nil {
		return NewCommandError("ask", "write", "narration", writer.Err())
	}

	switch {
	case p.BoolFlag("json"):
		return writeAskJSON(result)
	case p.BoolFlag("markdown"):
		out, err := renderMarkdown(result.Text)
		if err != nil {
			return NewCommandError("ask", "render", "markdown", err)
		}
		fmt.Fprint(stdout, out)
	}
	return nil
}

func writeAskJSON(result *narrator.TurnResult) error {
	out := askOutput{
		Turn:      result.Number,
		Narration: result.Text,
		Millis:    result.Duration.Milliseconds(),
	}
	if result.Reply != nil {
		out.Narration = result.Reply.Narration
		out.Rung = result.Reply.Rung.String()
		if data, err := result.Reply.Payload.JSON(); err == nil {
			out.Payload = data
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// renderMarkdown formats narration for the terminal. Without colors the
// plain "notty" style is used.
func renderMarkdown(text string) (string, error) {
	style := glamour.WithAutoStyle()
	if !ColorsEnabled() {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(GetTerminalWidth()-2))
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
