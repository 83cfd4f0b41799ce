// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/narrator"
	"github.com/jeranaias/zork-narrator/internal/stream"
	"github.com/jeranaias/zork-narrator/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeNarrator struct {
	mu    sync.Mutex
	lines []string
	turns int
	text  string
	err   error
}

func (f *fakeNarrator) Feed(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, lines...)
}

func (f *fakeNarrator) Turn(ctx context.Context, r stream.Renderer) (*narrator.TurnResult, error) {
	f.mu.Lock()
	f.turns++
	n, text, err := f.turns, f.text, f.err
	f.mu.Unlock()

	r.Start(stream.Separator)
	if err == nil {
		r.Write(text)
		r.Finalize(text)
	} else {
		r.Finalize("")
	}
	return &narrator.TurnResult{Number: n, Text: text}, err
}

type fakeGame struct {
	ch   chan game.Batch
	sent []string
	err  error
}

func (g *fakeGame) Batches() <-chan game.Batch { return g.ch }
func (g *fakeGame) Send(cmd string) error {
	g.sent = append(g.sent, cmd)
	return g.err
}

// collect runs a command tree and returns the non-nil messages it produces.
// Blocking commands like spinner ticks are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// runTurn executes a narrate command with the bridge feeding m directly,
// the way the program would.
func runTurn(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	var posted []tea.Msg
	m.Attach(func(msg tea.Msg) { posted = append(posted, msg) })

	done := collectTurn(cmd)
	for _, msg := range posted {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	for _, msg := range done {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// collectTurn keeps only turn completions so spinner ticks do not block.
func collectTurn(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	for _, msg := range collectNonTick(cmd) {
		if _, ok := msg.(TurnDoneMsg); ok {
			out = append(out, msg)
		}
	}
	return out
}

func collectNonTick(cmd tea.Cmd) []tea.Msg {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			if c == nil {
				continue
			}
			out = append(out, collectNonTick(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func newModel(rt Narrator, src GameSource, auto bool) Model {
	m := New(rt, Options{Theme: styles.NewTheme(styles.ThemeMono), Source: src, AutoNarrate: auto})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestComputeLayout(t *testing.T) {
	m := newModel(&fakeNarrator{}, nil, false)
	l := m.ComputeLayout(100, 30)

	assert.Equal(t, 24, l.BodyHeight)
	assert.Equal(t, 40, l.ZorkWidth)
	assert.Equal(t, 60, l.AIWidth)
	assert.Equal(t, 36, l.ZorkContentWidth)
	assert.Equal(t, 56, l.AIContentWidth)
	assert.Equal(t, 21, l.ContentHeight)

	tiny := m.ComputeLayout(3, 4)
	assert.Zero(t, tiny.BodyHeight)
	assert.Zero(t, tiny.ContentHeight)
	assert.Zero(t, tiny.ZorkContentWidth)
}

func TestViewShowsPanes(t *testing.T) {
	m := newModel(&fakeNarrator{}, nil, false)
	m.ZorkPane().Append("West of House")
	m.AIPane().Append("The wind stirs.")

	view := m.View()
	for _, want := range []string{ZorkTitle, AITitle, PromptTitle, "West of House", "The wind stirs.", "Ready"} {
		assert.Contains(t, view, want)
	}
	assert.LessOrEqual(t, len(strings.Split(view, "\n")), 30)
}

func TestViewBeforeSize(t *testing.T) {
	m := New(&fakeNarrator{}, Options{})
	assert.Equal(t, "Starting...", m.View())
}

// =============================================================================
// GAME AND TURNS
// =============================================================================

func TestGameBatchFeedsSessionAndNarrates(t *testing.T) {
	rt := &fakeNarrator{text: "A chill settles."}
	src := &fakeGame{ch: make(chan game.Batch, 1)}
	m := newModel(rt, src, true)

	next, cmd := m.Update(GameBatchMsg{Batch: game.Batch{Lines: []string{"> north", "Forest"}}})
	m = next.(Model)
	assert.True(t, m.Busy())
	assert.Equal(t, []string{"> north", "Forest"}, m.ZorkPane().Lines())
	assert.Equal(t, []string{"> north", "Forest"}, rt.lines)

	// The batch command is one branch of cmd; feed it a batch so it returns.
	src.ch <- game.Batch{Lines: []string{"more"}}
	m = runTurn(t, m, cmd)

	assert.False(t, m.Busy())
	assert.Equal(t, "Ready", m.Status())
	assert.Equal(t, []string{"A chill settles."}, m.AIPane().Lines(), "no separator before the first block")
}

func TestBatchDuringTurnQueuesOneFollowUp(t *testing.T) {
	rt := &fakeNarrator{text: "x"}
	m := newModel(rt, nil, true)

	m.busy = true
	for i := 0; i < 3; i++ {
		next, _ := m.Update(GameBatchMsg{Batch: game.Batch{Lines: []string{"line"}}})
		m = next.(Model)
	}
	assert.True(t, m.pending)

	next, cmd := m.Update(TurnDoneMsg{})
	m = next.(Model)
	require.NotNil(t, cmd, "queued turn starts")
	assert.True(t, m.Busy())
	assert.False(t, m.pending)

	m = runTurn(t, m, cmd)
	assert.False(t, m.Busy())
	assert.Equal(t, 1, rt.turns)
}

func TestSubmitWithoutGameNarrates(t *testing.T) {
	rt := &fakeNarrator{text: "You wave."}
	m := newModel(rt, nil, false)
	m.input.SetValue("wave")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, []string{"> wave"}, m.ZorkPane().Lines())
	assert.Empty(t, m.input.Value())

	m = runTurn(t, m, cmd)
	assert.Equal(t, 1, rt.turns)
	assert.Contains(t, m.AIPane().Lines(), "You wave.")
}

func TestSubmitSendsToGame(t *testing.T) {
	rt := &fakeNarrator{}
	src := &fakeGame{ch: make(chan game.Batch)}
	m := newModel(rt, src, true)
	m.input.SetValue("open mailbox")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"open mailbox"}, src.sent)
	assert.False(t, m.Busy(), "narration waits for the game's reply")

	src.err = game.ErrProcessClosed
	m.input.SetValue("look")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(Model)
	assert.Contains(t, m.Status(), game.ErrProcessClosed.Error())
}

func TestTurnFailureShowsError(t *testing.T) {
	rt := &fakeNarrator{err: errors.New("model server unavailable")}
	m := newModel(rt, nil, false)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = next.(Model)
	m = runTurn(t, m, cmd)

	assert.Contains(t, m.Status(), "model server unavailable")
	lines := m.AIPane().Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "[error] model server unavailable")
}

func TestGameClosed(t *testing.T) {
	src := &fakeGame{ch: make(chan game.Batch)}
	close(src.ch)
	m := newModel(&fakeNarrator{}, src, true)

	msgs := collect(m.waitForBatch())
	require.Len(t, msgs, 1)
	next, _ := m.Update(msgs[0])
	m = next.(Model)
	assert.Equal(t, "Game ended", m.Status())
	assert.Nil(t, m.waitForBatch())
}

func TestQuitStopsRenderer(t *testing.T) {
	m := newModel(&fakeNarrator{}, nil, false)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())

	next, _ = m.Update(renderMsg{op: renderStart})
	m = next.(Model)
	assert.Empty(t, m.AIPane().Lines())
}
