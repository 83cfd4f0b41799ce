// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/stream"
	"github.com/jeranaias/zork-narrator/internal/ui/viewport"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	// promptHeight is the prompt pane height including its border.
	promptHeight = 4

	// chromeHeight is the header and status lines.
	chromeHeight = 2
)

// Layout is the computed screen geometry.
type Layout struct {
	BodyHeight int
	ZorkWidth  int
	AIWidth    int

	// Content sizes are what a pane's lines are fitted to.
	ZorkContentWidth int
	AIContentWidth   int
	ContentHeight    int
}

// ComputeLayout splits a terminal of the given size. The body takes what
// the prompt pane and the two chrome lines leave; the game and narration
// panes share it 2:3.
func (m Model) ComputeLayout(width, height int) Layout {
	frameX, frameY := m.theme.PaneFrame()

	l := Layout{BodyHeight: max(height-promptHeight-chromeHeight, 0)}
	l.ZorkWidth = width * 2 / 5
	l.AIWidth = width - l.ZorkWidth
	l.ZorkContentWidth = max(l.ZorkWidth-frameX, 0)
	l.AIContentWidth = max(l.AIWidth-frameX, 0)

	// One row of each pane holds its title.
	l.ContentHeight = max(l.BodyHeight-frameY-1, 0)
	return l
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}
	l := m.ComputeLayout(m.width, m.height)

	header := m.theme.Status.Render("Zork Narrator  " + m.help())

	var body string
	if l.BodyHeight > 0 {
		zork := m.renderPane(m.zork, m.theme.ZorkPane, m.theme.ZorkTitle.Render(ZorkTitle),
			l.ZorkWidth, l.BodyHeight, l.ZorkContentWidth, l.ContentHeight, m.styleGameLine)
		ai := m.renderPane(m.ai, m.theme.AIPane, m.theme.AITitle.Render(AITitle),
			l.AIWidth, l.BodyHeight, l.AIContentWidth, l.ContentHeight, m.styleAILine)
		body = lipgloss.JoinHorizontal(lipgloss.Top, zork, ai)
	}

	promptBox := m.theme.PromptPane.
		Width(max(m.width-2, 0)).
		Render(m.theme.PromptTitle.Render(PromptTitle) + "\n" + m.input.View())

	parts := []string{header}
	if body != "" {
		parts = append(parts, body)
	}
	parts = append(parts, promptBox, m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderPane draws one bordered pane showing the trailing lines that fit.
func (m Model) renderPane(p *viewport.Pane, style lipgloss.Style, title string,
	width, height, contentWidth, contentHeight int, styleLine func(string) string) string {

	win := p.Fit(contentWidth, contentHeight)
	lines := make([]string, 0, len(win.Lines)+1)
	lines = append(lines, title)
	for _, line := range win.Lines {
		lines = append(lines, styleLine(line))
	}

	_, frameY := m.theme.PaneFrame()
	return style.
		Width(max(width-2, 0)).
		Height(max(height-frameY, 0)).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) styleGameLine(line string) string {
	if strings.HasPrefix(line, game.CommandPrefix) {
		return m.theme.Command.Render(line)
	}
	return m.theme.Body.Render(line)
}

func (m Model) styleAILine(line string) string {
	if line == stream.Separator {
		return m.theme.Separator.Render(line)
	}
	return line
}

func (m Model) statusLine() string {
	if m.busy {
		return m.spinner.View() + " " + m.theme.Busy.Render(m.status)
	}
	if m.failed {
		return m.theme.Error.Render(m.status)
	}
	return m.theme.Status.Render(m.status)
}

func (m Model) help() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
