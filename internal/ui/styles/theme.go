// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the narrator TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	ThemeDefault = "default"
	ThemeMono    = "mono"
)

// Theme holds the styles the TUI draws with.
type Theme struct {
	Name         string
	ColorProfile termenv.Profile

	// ==========================================================================
	// PANES
	// ==========================================================================

	ZorkPane   lipgloss.Style
	AIPane     lipgloss.Style
	PromptPane lipgloss.Style

	ZorkTitle   lipgloss.Style
	AITitle     lipgloss.Style
	PromptTitle lipgloss.Style

	// ==========================================================================
	// TEXT
	// ==========================================================================

	Body      lipgloss.Style
	Command   lipgloss.Style
	Separator lipgloss.Style
	Status    lipgloss.Style
	Busy      lipgloss.Style
	Error     lipgloss.Style
}

// Themes lists the accepted theme names.
func Themes() []string {
	return []string{ThemeDefault, ThemeMono}
}

// ValidTheme reports whether name is a known theme. Empty means default.
func ValidTheme(name string) bool {
	switch name {
	case "", ThemeDefault, ThemeMono:
		return true
	}
	return false
}

// NewTheme builds the named theme; unknown names fall back to the default.
func NewTheme(name string) *Theme {
	if !ValidTheme(name) || name == "" {
		name = ThemeDefault
	}

	t := &Theme{
		Name:         name,
		ColorProfile: termenv.ColorProfile(),
	}
	if name == ThemeMono {
		t.initMono()
	} else {
		t.initDefault()
	}
	return t
}

func pane(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (t *Theme) initDefault() {
	t.ZorkPane = pane(Green)
	t.AIPane = pane(Cyan)
	t.PromptPane = pane(Magenta)

	t.ZorkTitle = lipgloss.NewStyle().Bold(true).Foreground(Green)
	t.AITitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.PromptTitle = lipgloss.NewStyle().Bold(true).Foreground(Magenta)

	t.Body = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Command = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.Separator = lipgloss.NewStyle().Foreground(TextMuted)
	t.Status = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Busy = lipgloss.NewStyle().Foreground(Amber)
	t.Error = lipgloss.NewStyle().Bold(true).Foreground(Rose)
}

func (t *Theme) initMono() {
	plain := lipgloss.NoColor{}
	t.ZorkPane = pane(plain)
	t.AIPane = pane(plain)
	t.PromptPane = pane(plain)

	t.ZorkTitle = lipgloss.NewStyle().Bold(true)
	t.AITitle = lipgloss.NewStyle().Bold(true)
	t.PromptTitle = lipgloss.NewStyle().Bold(true)

	t.Body = lipgloss.NewStyle()
	t.Command = lipgloss.NewStyle().Bold(true)
	t.Separator = lipgloss.NewStyle().Faint(true)
	t.Status = lipgloss.NewStyle()
	t.Busy = lipgloss.NewStyle().Italic(true)
	t.Error = lipgloss.NewStyle().Bold(true)
}

// PaneFrame returns the horizontal and vertical space a pane's border
// and padding take.
func (t *Theme) PaneFrame() (int, int) {
	return t.ZorkPane.GetHorizontalFrameSize(), t.ZorkPane.GetVerticalFrameSize()
}
