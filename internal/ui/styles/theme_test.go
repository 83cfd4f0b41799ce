// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the narrator TUI.
package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ThemeDefault},
		{ThemeDefault, ThemeDefault},
		{ThemeMono, ThemeMono},
		{"neon", ThemeDefault},
	}

	for _, tt := range tests {
		theme := NewTheme(tt.name)
		if theme.Name != tt.want {
			t.Errorf("NewTheme(%q).Name = %q, want %q", tt.name, theme.Name, tt.want)
		}
	}
}

func TestValidTheme(t *testing.T) {
	for _, name := range Themes() {
		if !ValidTheme(name) {
			t.Errorf("ValidTheme(%q) = false", name)
		}
	}
	if ValidTheme("neon") {
		t.Error(`ValidTheme("neon") = true`)
	}
}

func TestPaneFrame(t *testing.T) {
	// Rounded border (1 cell each side) plus horizontal padding of 1.
	h, v := NewTheme(ThemeDefault).PaneFrame()
	if h != 4 || v != 2 {
		t.Errorf("PaneFrame() = (%d, %d), want (4, 2)", h, v)
	}
}

func TestPaneRendersBorder(t *testing.T) {
	for _, name := range Themes() {
		out := NewTheme(name).AIPane.Width(20).Render("A grue lurks.")
		if !strings.Contains(out, "╭") || !strings.Contains(out, "A grue lurks.") {
			t.Errorf("theme %q pane render = %q", name, out)
		}
	}
}
