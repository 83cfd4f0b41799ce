// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package art

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// DefaultMaxTokens caps a scene drawing.
	DefaultMaxTokens = 800

	// DefaultMomentMaxTokens caps a drawing of a single moment.
	DefaultMomentMaxTokens = 400
)

var (
	ErrEmptyScene = errors.New("nothing to draw: the scene is empty")
	ErrNoArt      = errors.New("model returned no art")
)

const (
	sceneSystemPrompt = "You are an in-world artist for a text adventure. " +
		"Create a compact ASCII art depiction of the current scene described by the log. " +
		"Stay complementary and avoid spoilers or inventing unseen objects. " +
		"Constraints: 40-60 columns wide, 12-20 rows tall, use only standard ASCII. " +
		"Output STRICTLY a single fenced code block with just the art (no commentary)."

	momentSystemPrompt = "You are an in-world artist for a text adventure. " +
		"Create a compact ASCII art depiction of the current moment. " +
		"Stay complementary and avoid spoilers or inventing unseen objects. " +
		"Constraints: 40-60 columns wide, 12-20 rows tall, ASCII only. " +
		"Output STRICTLY a single fenced code block with just the art."
)

// languageHints are fence labels dropped from the art.
var languageHints = map[string]bool{
	"ascii":     true,
	"text":      true,
	"txt":       true,
	"plaintext": true,
	"json":      true,
}

// =============================================================================
// PROMPTS
// =============================================================================

// Moment is one printed game message and the command that preceded it.
type Moment struct {
	Command string
	Text    string
	Source  string
}

// Moments pairs every printed entry with the latest command before it.
func Moments(entries []game.Entry) []Moment {
	var (
		out  []Moment
		last string
	)
	for _, e := range entries {
		if e.Kind == game.EntryCommand {
			last = e.Text
			continue
		}
		out = append(out, Moment{Command: last, Text: e.Text, Source: e.Source})
	}
	return out
}

// Scene returns the trailing n non-blank lines. n <= 0 keeps every line.
func Scene(lines []string, n int) []string {
	scene := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			scene = append(scene, line)
		}
	}
	if n > 0 && len(scene) > n {
		scene = scene[len(scene)-n:]
	}
	return scene
}

// SceneMessages builds the request for a drawing of the scene lines.
func SceneMessages(scene []string) []model.Message {
	user := "Recent scene log (game outputs interleaved with commands):\n\n" +
		strings.Join(scene, "\n") +
		"\n\nPlease render one ASCII art panel representing the location and salient objects."
	return []model.Message{
		model.NewSystemMessage(sceneSystemPrompt),
		model.NewUserMessage(user),
	}
}

// MomentMessages builds the request for a drawing of a single moment.
func MomentMessages(m Moment) []model.Message {
	prev := "(no previous command)"
	if m.Command != "" {
		prev = game.CommandPrefix + m.Command
	}
	user := fmt.Sprintf("Previous command: %s\nGame output: %s\nSource function: %s\n\n"+
		"Render one ASCII panel representing this moment.", prev, m.Text, m.Source)
	return []model.Message{
		model.NewSystemMessage(momentSystemPrompt),
		model.NewUserMessage(user),
	}
}

// ExtractBlock returns the contents of the reply's first fenced code
// block, without a language hint such as "ascii". A reply with no closed
// fence is returned with surrounding blank lines and trailing spaces
// removed. Leading spaces of the first art row are kept.
func ExtractBlock(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			inner := rest[:end]
			if first, body, found := strings.Cut(inner, "\n"); found {
				hint := strings.ToLower(strings.TrimSpace(first))
				if hint == "" || languageHints[hint] {
					inner = body
				}
			}
			return trimBlankLines(inner)
		}
	}
	return trimBlankLines(text)
}

// trimBlankLines drops leading blank lines and trailing whitespace.
func trimBlankLines(s string) string {
	for {
		line, rest, found := strings.Cut(s, "\n")
		if !found || strings.TrimSpace(line) != "" {
			break
		}
		s = rest
	}
	return strings.TrimRight(s, " \t\n")
}

// =============================================================================
// ARTIST
// =============================================================================

// Options configures an Artist.
type Options struct {
	Model string

	// MaxTokens caps a scene drawing. Zero means DefaultMaxTokens.
	MaxTokens int

	// MomentMaxTokens caps a moment drawing. Zero means DefaultMomentMaxTokens.
	MomentMaxTokens int
}

// Artist requests drawings from a model.
type Artist struct {
	transport completion.Transport
	opts      Options
}

// New returns an Artist sending through transport.
func New(transport completion.Transport, opts Options) *Artist {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MomentMaxTokens <= 0 {
		opts.MomentMaxTokens = DefaultMomentMaxTokens
	}
	return &Artist{transport: transport, opts: opts}
}

// Draw returns an ASCII-art panel of the scene lines.
func (a *Artist) Draw(ctx context.Context, scene []string) (string, error) {
	if len(scene) == 0 {
		return "", ErrEmptyScene
	}
	return a.draw(ctx, SceneMessages(scene), a.opts.MaxTokens)
}

// DrawMoment returns an ASCII-art panel of one moment.
func (a *Artist) DrawMoment(ctx context.Context, m Moment) (string, error) {
	if strings.TrimSpace(m.Text) == "" {
		return "", ErrEmptyScene
	}
	return a.draw(ctx, MomentMessages(m), a.opts.MomentMaxTokens)
}

func (a *Artist) draw(ctx context.Context, msgs []model.Message, maxTokens int) (string, error) {
	raw, err := a.transport.Complete(ctx, completion.Request{
		Model:     a.opts.Model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("draw: %w", err)
	}

	drawing := ExtractBlock(raw)
	if strings.TrimSpace(drawing) == "" {
		logging.Debugf("ART: reply had no art: %q", raw)
		return "", ErrNoArt
	}
	logging.Debugf("ART: %d rows drawn", strings.Count(drawing, "\n")+1)
	return drawing, nil
}
