// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/zork-narrator/internal/art"
	"github.com/jeranaias/zork-narrator/internal/audit"
	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/config"
	"github.com/jeranaias/zork-narrator/internal/model"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// sandbox isolates HOME and captures output.
func sandbox(t *testing.T) (home string, out *bytes.Buffer) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range []string{config.EnvConfigPath, "NARRATOR_PROVIDER", "NARRATOR_MODEL",
		"NARRATOR_BASE_URL", "NARRATOR_API_KEY", "OPENAI_API_KEY", "NARRATOR_MAX_TOKENS"} {
		t.Setenv(name, "")
	}

	out = &bytes.Buffer{}
	oldOut, oldErr, oldOpts := stdout, stderr, runtimeOptions
	stdout, stderr = out, out
	t.Cleanup(func() {
		stdout, stderr, runtimeOptions = oldOut, oldErr, oldOpts
	})
	return home, out
}

func useReply(raw string) *[]completion.Request {
	var seen []completion.Request
	runtimeOptions = []narrator.Option{
		narrator.WithTransport(completion.TransportFunc(func(ctx context.Context, req completion.Request) (string, error) {
			seen = append(seen, req)
			return raw, nil
		})),
	}
	return &seen
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "play.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

// =============================================================================
// ARG PARSING
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		bools   []string
		sub     string
		flags   map[string]string
		boolOn  []string
		nonFlag []string
	}{
		{
			name:  "value flag",
			raw:   []string{"show", "--limit", "5"},
			sub:   "show",
			flags: map[string]string{"limit": "5"},
		},
		{
			name:   "equals form",
			raw:    []string{"--transcript=play.jsonl", "--json=true"},
			flags:  map[string]string{"transcript": "play.jsonl"},
			boolOn: []string{"json"},
		},
		{
			name:    "declared bool does not eat positional",
			raw:     []string{"--json", "show"},
			bools:   []string{"json"},
			sub:     "show",
			boolOn:  []string{"json"},
			nonFlag: []string{"show"},
		},
		{
			name:    "double dash ends flags",
			raw:     []string{"set", "--", "-x"},
			sub:     "set",
			nonFlag: []string{"set", "-x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.raw, tt.bools...)
			if p.Subcommand() != tt.sub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.sub)
			}
			for k, v := range tt.flags {
				if got := p.Flag(k); got != v {
					t.Errorf("Flag(%q) = %q, want %q", k, got, v)
				}
			}
			for _, k := range tt.boolOn {
				if !p.BoolFlag(k) {
					t.Errorf("BoolFlag(%q) = false, want true", k)
				}
			}
			if tt.nonFlag != nil {
				assert.Equal(t, tt.nonFlag, p.PositionalFrom(0))
			}
		})
	}
}

func TestParse(t *testing.T) {
	cmd, args := Parse(nil)
	assert.Equal(t, CmdTUI, cmd)

	cmd, args = Parse([]string{"--game", "dfrotz zork1.z5"})
	assert.Equal(t, CmdTUI, cmd)
	assert.Equal(t, "dfrotz zork1.z5", args.Parser().Flag("game"))

	cmd, args = Parse([]string{"ask", "--verbose", "--transcript", "t.txt", "--config", "c.toml"})
	assert.Equal(t, CmdAsk, cmd)
	assert.True(t, args.Verbose)
	assert.Equal(t, "c.toml", args.ConfigPath)
	assert.Equal(t, []string{"--transcript", "t.txt"}, args.Rest)

	cmd, _ = Parse([]string{"art", "--each"})
	assert.Equal(t, CmdArt, cmd)

	cmd, _ = Parse([]string{"--version"})
	assert.Equal(t, CmdVersion, cmd)

	cmd, args = Parse([]string{"frobnicate"})
	assert.Equal(t, CmdUnknown, cmd)
	assert.Equal(t, "frobnicate", args.Name)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitUsageError, ExitCode(NewUsageError("bad", "")))
	assert.Equal(t, ExitConfigError, ExitCode(config.ErrNotFound))
	assert.Equal(t, ExitNetworkError, ExitCode(completion.StatusError(500, "boom")))
	assert.Equal(t, ExitNotFoundError, ExitCode(errNoTranscript))
	assert.Equal(t, ExitGeneralError, ExitCode(errors.New("other")))
}

func TestRunUnknownCommand(t *testing.T) {
	_, out := sandbox(t)
	code := Run(CmdUnknown, Args{Name: "frobnicate"})
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, out.String(), `unknown command "frobnicate"`)
}

// =============================================================================
// ASK
// =============================================================================

func TestAskStreamsNarration(t *testing.T) {
	_, out := sandbox(t)
	seen := useReply(`{"narration":"You see a door."}`)
	path := writeTranscript(t, "West of House", "> open door")

	require.NoError(t, HandleAsk(Args{Rest: []string{"--transcript", path}}))
	assert.Equal(t, "You see a door.\n", out.String())

	require.Len(t, *seen, 1)
	assert.Contains(t, (*seen)[0].Messages[1].Content, "West of House\n> open door")
}

func TestAskJSON(t *testing.T) {
	_, out := sandbox(t)
	useReply("```json\n{\"narration\":\"Dust swirls.\",\"mood\":\"eerie\"}\n```")
	path := writeTranscript(t, "Attic")

	require.NoError(t, HandleAsk(Args{Rest: []string{path, "--json"}}))

	var got struct {
		Turn      int            `json:"turn"`
		Narration string         `json:"narration"`
		Payload   map[string]any `json:"payload"`
		Recovery  string         `json:"recovery"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 1, got.Turn)
	assert.Equal(t, "Dust swirls.", got.Narration)
	assert.Equal(t, "eerie", got.Payload["mood"])
	assert.NotEmpty(t, got.Recovery)
}

func TestAskDryRun(t *testing.T) {
	_, out := sandbox(t)
	seen := useReply(`{}`)
	path := writeTranscript(t, "Kitchen", "> take sack")

	require.NoError(t, HandleAsk(Args{Rest: []string{"--dry-run", "--transcript", path}}))
	assert.Empty(t, *seen)
	assert.Contains(t, out.String(), "[system]")
	assert.Contains(t, out.String(), "Kitchen\n> take sack")
}

func TestAskErrors(t *testing.T) {
	sandbox(t)
	useReply(`{}`)

	err := HandleAsk(Args{})
	var usage *UsageError
	assert.True(t, errors.As(err, &usage))

	err = HandleAsk(Args{Rest: []string{"--transcript", filepath.Join(t.TempDir(), "missing.txt")}})
	assert.ErrorIs(t, err, errNoTranscript)

	runtimeOptions = []narrator.Option{narrator.WithTransport(completion.TransportFunc(
		func(ctx context.Context, req completion.Request) (string, error) {
			return "", completion.NewError(completion.KindTransport, "connection refused", nil)
		}))}
	err = HandleAsk(Args{Rest: []string{writeTranscript(t, "x")}})
	assert.Equal(t, ExitNetworkError, ExitCode(err))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInitSetGet(t *testing.T) {
	home, out := sandbox(t)
	path := filepath.Join(home, ".narrator", "config.toml")

	require.NoError(t, HandleConfig(Args{Rest: []string{"init"}}))
	assert.FileExists(t, path)
	assert.Error(t, HandleConfig(Args{Rest: []string{"init"}}), "init does not overwrite")
	require.NoError(t, HandleConfig(Args{Rest: []string{"init", "--force"}}))

	t.Setenv("NARRATOR_MODEL", "from-env")
	require.NoError(t, HandleConfig(Args{Rest: []string{"set", "max_log_lines", "12"}}))
	require.NoError(t, HandleConfig(Args{Rest: []string{"set", "ui.theme", "mono"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env", "environment overrides stay out of the file")

	out.Reset()
	require.NoError(t, HandleConfig(Args{Rest: []string{"get", "max_log_lines"}}))
	assert.Equal(t, "12\n", out.String())

	err = HandleConfig(Args{Rest: []string{"set", "max_log_lines", "0"}})
	var verrs config.ValidateErrors
	assert.True(t, errors.As(err, &verrs))

	assert.ErrorIs(t, HandleConfig(Args{Rest: []string{"get", "bogus"}}), config.ErrUnknownKey)
}

func TestConfigShowMasksKey(t *testing.T) {
	_, out := sandbox(t)
	t.Setenv("NARRATOR_API_KEY", "sk-abcdefghijklmnop")

	require.NoError(t, HandleConfig(Args{Rest: []string{"show", "--json"}}))
	assert.NotContains(t, out.String(), "sk-abcdefghijklmnop")
	assert.Contains(t, out.String(), "sk-a...mnop")
}

func TestConfigPath(t *testing.T) {
	home, out := sandbox(t)
	require.NoError(t, HandleConfig(Args{Rest: []string{"path"}}))
	assert.Contains(t, out.String(), filepath.Join(home, ".narrator", "config.toml"))
	assert.Contains(t, out.String(), "not created")
}

// =============================================================================
// AUDIT AND HISTORY
// =============================================================================

func TestAuditCommand(t *testing.T) {
	_, out := sandbox(t)
	path := filepath.Join(t.TempDir(), "ai.jsonl")

	log, err := audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, log.LogRequest([]model.Message{model.NewSystemMessage("sys"), model.NewUserMessage("Recent game log\nWest of House")}))
	require.NoError(t, log.LogResponse(model.NewPayload("The wind howls.")))
	require.NoError(t, log.LogRequest([]model.Message{model.NewUserMessage("second")}))
	require.NoError(t, log.Close())

	require.NoError(t, HandleAudit(Args{Rest: []string{"--path", path}}))
	text := out.String()
	assert.Contains(t, text, "2 turns")
	assert.Contains(t, text, "The wind howls.")
	assert.Contains(t, text, "no response recorded")

	out.Reset()
	require.NoError(t, HandleAudit(Args{Rest: []string{"--path", path, "--json", "--limit", "1"}}))
	var pairs []audit.Pair
	require.NoError(t, json.Unmarshal(out.Bytes(), &pairs))
	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].Answered)
}

func TestHistoryCommand(t *testing.T) {
	_, out := sandbox(t)
	useReply(`{"narration":"A grue lurks."}`)
	path := writeTranscript(t, "Dark room")

	require.NoError(t, HandleAsk(Args{Rest: []string{"--transcript", path, "--json"}}))
	out.Reset()

	require.NoError(t, HandleHistory(Args{Rest: []string{"--json"}}))
	var entries []historyEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "A grue lurks.", entries[0].Narration)
	assert.Equal(t, []string{"Dark room"}, entries[0].Window)

	err := HandleHistory(Args{Rest: []string{"--limit", "zero"}})
	var usage *UsageError
	assert.True(t, errors.As(err, &usage))
}

func TestExportCommand(t *testing.T) {
	_, out := sandbox(t)

	err := HandleExport(Args{})
	assert.ErrorIs(t, err, storage.ErrNoSessions)
	assert.Equal(t, ExitNotFoundError, ExitCode(err))

	useReply(`{"narration":"A grue lurks."}`)
	path := writeTranscript(t, "Dark room")
	require.NoError(t, HandleAsk(Args{Rest: []string{"--transcript", path, "--json"}}))
	out.Reset()

	require.NoError(t, HandleExport(Args{Rest: []string{"--output", "-"}}))
	assert.Contains(t, out.String(), "## Turn 1")
	assert.Contains(t, out.String(), "A grue lurks.")
	assert.Contains(t, out.String(), "Dark room")

	out.Reset()
	require.NoError(t, HandleExport(Args{Rest: []string{"--format", "json", "--output", "-", "--no-transcript"}}))
	var decoded struct {
		SessionID string `json:"session_id"`
		Turns     []struct {
			Narration string `json:"narration"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Turns, 1)
	assert.Equal(t, "A grue lurks.", decoded.Turns[0].Narration)

	out.Reset()
	dir := t.TempDir()
	require.NoError(t, HandleExport(Args{Rest: []string{"--session", decoded.SessionID[:6], "--dir", dir}}))
	assert.Contains(t, out.String(), "Exported 1 turns")
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".md", filepath.Ext(files[0].Name()))

	err = HandleExport(Args{Rest: []string{"--session", "zzz"}})
	assert.ErrorIs(t, err, errUnknownSession)

	err = HandleExport(Args{Rest: []string{"--format", "html"}})
	var usage *UsageError
	assert.True(t, errors.As(err, &usage))
}

// =============================================================================
// ART
// =============================================================================

const mailbox = "  _____\n |     |\n |_____|\n    |"

func TestArtDrawsRecentScene(t *testing.T) {
	_, out := sandbox(t)
	seen := useReply("Here you go:\n```ascii\n" + mailbox + "\n```")
	path := writeTranscript(t, "West of House", "There is a small mailbox here.", "> open mailbox", "Opening the mailbox reveals a leaflet.")

	require.NoError(t, HandleArt(Args{Rest: []string{"--transcript", path, "--lines", "2"}}))

	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].Schema)
	user := (*seen)[0].Messages[1].Content
	assert.Contains(t, user, "> open mailbox\nOpening the mailbox reveals a leaflet.")
	assert.NotContains(t, user, "West of House", "--lines keeps only the trailing scene")

	assert.Contains(t, out.String(), art.Title)
	assert.Contains(t, out.String(), "│  |_____| │")
	assert.NotContains(t, out.String(), "```")
}

func TestArtPlain(t *testing.T) {
	_, out := sandbox(t)
	useReply("```\n" + mailbox + "\n```")
	path := writeTranscript(t, "West of House")

	require.NoError(t, HandleArt(Args{Rest: []string{path, "--plain"}}))
	assert.Equal(t, mailbox+"\n", out.String())
}

func TestArtEachFallsBackToText(t *testing.T) {
	_, out := sandbox(t)
	path := filepath.Join(t.TempDir(), "play.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		`{"message": null, "printed_messages": [["West of House", "room"]]}`,
		`{"message": "open mailbox", "printed_messages": [["Opening the mailbox reveals a leaflet.", "v-open"]]}`,
	}, "\n")), 0600))

	var seen []completion.Request
	runtimeOptions = []narrator.Option{narrator.WithTransport(completion.TransportFunc(
		func(ctx context.Context, req completion.Request) (string, error) {
			seen = append(seen, req)
			if len(seen) == 2 {
				return "", completion.NewError(completion.KindTransport, "connection refused", nil)
			}
			return "```ascii\n" + mailbox + "\n```", nil
		}))}

	require.NoError(t, HandleArt(Args{Rest: []string{path, "--each", "--plain"}}))

	require.Len(t, seen, 2)
	assert.Contains(t, seen[1].Messages[1].Content, "Previous command: > open mailbox")
	assert.Equal(t, 400, seen[1].MaxTokens)

	got := out.String()
	assert.Contains(t, got, "room\n"+mailbox+"\n")
	assert.Contains(t, got, "v-open  · prev: open mailbox\n")
	assert.Contains(t, got, "showing text instead")
	assert.Contains(t, got, "Opening the mailbox reveals a leaflet.\n")
}

func TestArtErrors(t *testing.T) {
	sandbox(t)
	seen := useReply("```ascii\n" + mailbox + "\n```")

	var usage *UsageError
	assert.True(t, errors.As(HandleArt(Args{}), &usage))

	path := writeTranscript(t, "West of House")
	assert.True(t, errors.As(HandleArt(Args{Rest: []string{path, "--lines", "0"}}), &usage))

	err := HandleArt(Args{Rest: []string{"--transcript", filepath.Join(t.TempDir(), "missing.txt")}})
	assert.ErrorIs(t, err, errNoTranscript)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n>\n"), 0600))
	assert.ErrorIs(t, HandleArt(Args{Rest: []string{empty}}), art.ErrEmptyScene)
	assert.Empty(t, *seen)
}

// =============================================================================
// REPL
// =============================================================================

type scriptReader struct {
	lines   []string
	history []string
}

func (s *scriptReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptReader) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func TestREPLLoop(t *testing.T) {
	_, out := sandbox(t)
	seen := useReply(`{"narration":"Light floods in."}`)

	cfg := config.Default()
	cfg.ShowSeparator = false
	rt, err := narrator.New(cfg, append(runtimeOptions, narrator.WithoutStore(), narrator.WithoutAudit())...)
	require.NoError(t, err)
	defer rt.Close()

	s := &replSession{rt: rt, out: out, renderer: &recordingRenderer{out: out}}
	in := &scriptReader{lines: []string{"Living Room", "> open trapdoor", "", ":w", ":bogus", ":n", ":q", "never read"}}

	require.NoError(t, s.loop(in))
	assert.Equal(t, []string{"never read"}, in.lines)
	assert.Equal(t, []string{"Living Room", "> open trapdoor"}, rt.Window())
	assert.NotContains(t, in.history, "")

	require.Len(t, *seen, 1)
	text := out.String()
	assert.Contains(t, text, "unknown session command :bogus")
	assert.Contains(t, text, "Light floods in.")
}

type recordingRenderer struct{ out io.Writer }

func (r *recordingRenderer) Start(string)      {}
func (r *recordingRenderer) Write(string)      {}
func (r *recordingRenderer) Finalize(s string) { io.WriteString(r.out, s+"\n") }
