// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/stream"
	"github.com/jeranaias/zork-narrator/internal/ui/styles"
	"github.com/jeranaias/zork-narrator/internal/ui/viewport"
)

// Pane titles.
const (
	ZorkTitle   = "Zork Output"
	AITitle     = "AI Output"
	PromptTitle = "Prompt"
)

// =============================================================================
// CONTRACTS
// =============================================================================

// Narrator is the part of the narration runtime the interface drives.
type Narrator interface {
	Feed(lines ...string)
	Turn(ctx context.Context, renderer stream.Renderer) (*narrator.TurnResult, error)
}

// GameSource delivers game output in batches. The channel is closed when
// the source ends.
type GameSource interface {
	Batches() <-chan game.Batch
}

// CommandSink accepts player commands. game.Process implements it.
type CommandSink interface {
	Send(command string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures the interface.
type Options struct {
	Theme *styles.Theme

	// Source is the game output, nil for a narration-only session.
	Source GameSource

	// AutoNarrate starts a turn for every game batch.
	AutoNarrate bool

	// Highlight colors finalized JSON payloads in the narration pane.
	Highlight bool
}

// Model is the Bubble Tea model of the interface.
type Model struct {
	rt     Narrator
	theme  *styles.Theme
	keys   KeyMap
	source GameSource
	sink   CommandSink
	auto   bool

	zork     *viewport.Pane
	ai       *viewport.Pane
	renderer *viewport.Renderer
	bridge   *bridge

	input   textinput.Model
	spinner spinner.Model

	ctx    context.Context
	cancel context.CancelFunc

	busy    bool
	pending bool
	status  string
	failed  bool

	width  int
	height int
}

// New creates the model.
func New(rt Narrator, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeDefault)
	}

	ti := textinput.New()
	ti.Placeholder = "Type a command and press Enter"
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Busy

	ai := viewport.NewPane(AITitle)
	renderer := viewport.NewRenderer(ai)
	renderer.SetHighlight(opts.Highlight)

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		rt:       rt,
		theme:    theme,
		keys:     DefaultKeyMap(),
		source:   opts.Source,
		auto:     opts.AutoNarrate,
		zork:     viewport.NewPane(ZorkTitle),
		ai:       ai,
		renderer: renderer,
		bridge:   &bridge{},
		input:    ti,
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
		status:   "Ready",
	}
	if sink, ok := opts.Source.(CommandSink); ok {
		m.sink = sink
	}
	return m
}

// Attach connects the turn renderer to a running program.
func (m Model) Attach(send func(tea.Msg)) {
	m.bridge.attach(send)
}

// ZorkPane returns the game pane.
func (m Model) ZorkPane() *viewport.Pane {
	return m.zork
}

// AIPane returns the narration pane.
func (m Model) AIPane() *viewport.Pane {
	return m.ai
}

// Busy reports whether a narration turn is running.
func (m Model) Busy() bool {
	return m.busy
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Init starts listening to the game source.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForBatch())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 1)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Narrate):
			return m, m.narrate()
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		}

	case GameBatchMsg:
		m.appendGame(msg.Batch.Lines)
		cmds = append(cmds, m.waitForBatch())
		if m.auto && len(msg.Batch.Lines) > 0 {
			cmds = append(cmds, m.narrate())
		}
		return m, tea.Batch(cmds...)

	case GameClosedMsg:
		m.setStatus("Game ended", false)
		m.source = nil
		m.sink = nil
		return m, nil

	case renderMsg:
		m.applyRender(msg)
		return m, nil

	case TurnDoneMsg:
		return m, m.turnDone(msg)

	case sendErrMsg:
		m.setStatus("Game: "+msg.err.Error(), true)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// appendGame adds lines to the game pane and the session transcript.
func (m *Model) appendGame(lines []string) {
	if len(lines) == 0 {
		return
	}
	m.zork.Append(lines...)
	m.rt.Feed(lines...)
}

// submit handles Enter. With a game process the command goes to the game,
// whose reply then drives narration. Without one the command is recorded
// and narrated directly.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return nil
	}

	line := game.CommandPrefix + text
	if m.sink != nil {
		m.appendGame([]string{line})
		sink := m.sink
		return func() tea.Msg {
			if err := sink.Send(text); err != nil {
				return sendErrMsg{err: err}
			}
			return nil
		}
	}

	m.appendGame([]string{line})
	return m.narrate()
}

// narrate starts a turn, or queues one follow-up when a turn is running.
func (m *Model) narrate() tea.Cmd {
	if m.busy {
		m.pending = true
		return nil
	}
	m.busy = true
	m.setStatus("Narrating", false)

	rt, ctx, renderer := m.rt, m.ctx, m.bridge
	turn := func() tea.Msg {
		result, err := rt.Turn(ctx, renderer)
		return TurnDoneMsg{Result: result, Err: err}
	}
	return tea.Batch(m.spinner.Tick, turn)
}

func (m *Model) turnDone(msg TurnDoneMsg) tea.Cmd {
	m.busy = false

	switch {
	case msg.Err == nil:
		m.setStatus("Ready", false)
	case errors.Is(msg.Err, context.Canceled):
		m.setStatus("Cancelled", false)
	default:
		logging.Warnf("UI: narration turn failed: %v", msg.Err)
		m.setStatus("AI: "+msg.Err.Error(), true)
		m.ai.Append(m.theme.Error.Render("[error] " + msg.Err.Error()))
	}

	if m.pending {
		m.pending = false
		return m.narrate()
	}
	return nil
}

func (m *Model) applyRender(msg renderMsg) {
	switch msg.op {
	case renderStart:
		m.renderer.Start(msg.text)
	case renderWrite:
		m.renderer.Write(msg.text)
	case renderFinalize:
		m.renderer.Finalize(msg.text)
	}
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

// waitForBatch reads the next batch from the game source.
func (m Model) waitForBatch() tea.Cmd {
	if m.source == nil {
		return nil
	}
	ch := m.source.Batches()
	return func() tea.Msg {
		batch, ok := <-ch
		if !ok {
			return GameClosedMsg{}
		}
		return GameBatchMsg{Batch: batch}
	}
}

// shutdown cancels a running turn and detaches the narration pane.
func (m *Model) shutdown() {
	m.cancel()
	m.renderer.Stop()
}
