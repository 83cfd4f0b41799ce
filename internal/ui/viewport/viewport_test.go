// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
package viewport

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/zork-narrator/internal/stream"
	"github.com/jeranaias/zork-narrator/internal/util"
)

// =============================================================================
// ROW MEASUREMENT
// =============================================================================

func TestRowCount(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		width int
		want  int
	}{
		{"empty line", "", 10, 1},
		{"fits", "West of House", 20, 1},
		{"exact fit", "hello", 5, 1},
		{"word wrap", "hello world", 5, 2},
		{"several words", "a b c d", 3, 2},
		{"over-long word", "abcdefghij", 4, 3},
		{"escapes ignored", "\x1b[1;32mhello\x1b[0m", 5, 1},
		{"embedded newline", "one\ntwo", 10, 2},
		{"zero width", "hello", 0, 0},
		{"negative width", "hello", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowCount(tt.line, tt.width); got != tt.want {
				t.Errorf("RowCount(%q, %d) = %d, want %d", tt.line, tt.width, got, tt.want)
			}
		})
	}
}

// paneStyle frames content the way the TUI panes do: a rounded border and
// one column of padding on each side.
func paneStyle(contentWidth int) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(contentWidth + 2)
}

func TestRowCountMatchesRenderedHeight(t *testing.T) {
	check := func(line string, width int) {
		t.Helper()
		rendered := lipgloss.NewStyle().Padding(0, 1).Width(width + 2).Render(line)
		if got, want := RowCount(line, width), lipgloss.Height(rendered); got != want {
			t.Fatalf("RowCount(%q, %d) = %d, rendered height %d", line, width, got, want)
		}
	}

	check("of supercalifragilisticexpialidocious a supercalifragilisticexpialidocious the", 26)
	check("", 10)
	check("brass\tlantern", 8)
	check("one\r\ntwo", 10)

	rng := rand.New(rand.NewSource(11))
	words := []string{"of", "a", "the", "lamp", "grue", "west-of-house", "brass\tlantern",
		"supercalifragilisticexpialidocious", "\x1b[1mbold\x1b[0m", "  "}
	for i := 0; i < 2000; i++ {
		parts := make([]string, rng.Intn(14))
		for j := range parts {
			parts[j] = words[rng.Intn(len(words))]
		}
		check(strings.Join(parts, " "), 3+rng.Intn(40))
	}
}

func TestFitFillsRenderedPane(t *testing.T) {
	const width, height = 26, 10
	long := "of supercalifragilisticexpialidocious a supercalifragilisticexpialidocious the"

	pane := NewPane("AI Output")
	for i := 0; i < 6; i++ {
		pane.Append(long)
	}

	win := pane.Fit(width, height)
	require.Len(t, win.Lines, 2, "two five-row lines fit in ten rows")
	assert.Equal(t, height, win.Rows)

	style := paneStyle(width)
	rendered := style.Render(strings.Join(win.Lines, "\n"))
	assert.Equal(t, height, lipgloss.Height(rendered)-style.GetVerticalFrameSize())
}

// =============================================================================
// SELECTION
// =============================================================================

func sum(rows []int) int {
	total := 0
	for _, r := range rows {
		total += r
	}
	return total
}

func TestSelectTrailingExamples(t *testing.T) {
	tests := []struct {
		rows   []int
		height int
		want   int
	}{
		{[]int{1, 1, 1}, 2, 1},
		{[]int{1, 3, 1}, 3, 2},    // the 3-row line would overflow
		{[]int{1, 1, 5, 1}, 4, 3}, // stops at the first overflow, never skips it
		{[]int{2, 2}, 10, 0},      // everything fits
		{[]int{5}, 4, 1},          // newest line alone too tall
		{nil, 5, 0},
		{[]int{1, 1}, 0, 2},
	}

	for _, tt := range tests {
		if got := SelectTrailing(tt.rows, tt.height); got != tt.want {
			t.Errorf("SelectTrailing(%v, %d) = %d, want %d", tt.rows, tt.height, got, tt.want)
		}
	}
}

func TestSelectTrailingMaximality(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		rows := make([]int, rng.Intn(30))
		for j := range rows {
			rows[j] = 1 + rng.Intn(6)
		}
		height := rng.Intn(25)

		start := SelectTrailing(rows, height)
		require.GreaterOrEqual(t, start, 0)
		require.LessOrEqual(t, start, len(rows))

		visible := sum(rows[start:])
		if height > 0 {
			require.LessOrEqual(t, visible, height, "rows=%v height=%d start=%d", rows, height, start)
		}
		if start > 0 {
			require.Greater(t, visible+rows[start-1], height,
				"one more line would still fit: rows=%v height=%d start=%d", rows, height, start)
		}
	}
}

func TestFitMatchesSelectTrailing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"the", "lamp", "flickers", "and", "a", "grue", "lurks", "nearby", "extraordinarily"}

	for i := 0; i < 200; i++ {
		pane := NewPane("test")
		n := rng.Intn(20)
		for j := 0; j < n; j++ {
			k := rng.Intn(12)
			parts := make([]string, k)
			for w := range parts {
				parts[w] = words[rng.Intn(len(words))]
			}
			pane.Append(strings.Join(parts, " "))
		}
		width := 4 + rng.Intn(30)
		height := 1 + rng.Intn(15)

		lines := pane.Lines()
		rows := make([]int, len(lines))
		for j, line := range lines {
			rows[j] = RowCount(line, width)
		}

		win := pane.Fit(width, height)
		require.Equal(t, SelectTrailing(rows, height), win.Start)
		require.Equal(t, lines[win.Start:], nonNil(win.Lines))
		require.Equal(t, sum(rows[win.Start:]), win.Rows)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func TestFitNeverTruncatesLog(t *testing.T) {
	pane := NewPane("Zork Output")
	for i := 0; i < 100; i++ {
		pane.Append("You are in a maze of twisty little passages, all alike.")
	}

	win := pane.Fit(20, 10)
	assert.LessOrEqual(t, win.Rows, 10)
	assert.Equal(t, 100, pane.Len())
	assert.Equal(t, 100-len(win.Lines), win.Start)
}

func TestFitDegenerateSizes(t *testing.T) {
	pane := NewPane("x")
	pane.Append("a", "b")

	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {5, -1}} {
		win := pane.Fit(size[0], size[1])
		assert.Empty(t, win.Lines, "size %v", size)
		assert.Equal(t, 2, win.Start)
		assert.Equal(t, "", win.String())
	}
}

func TestAppendText(t *testing.T) {
	pane := NewPane("x")
	pane.AppendText("West of House\r\nYou are standing in an open field.")
	assert.Equal(t, []string{"West of House", "You are standing in an open field."}, pane.Lines())

	lines := pane.Lines()
	lines[0] = "mutated"
	assert.Equal(t, "West of House", pane.Lines()[0], "Lines returns a copy")
}

// =============================================================================
// RENDERER
// =============================================================================

func TestRendererStreamsBlock(t *testing.T) {
	pane := NewPane("AI Output")
	pane.Append("earlier narration")
	r := NewRenderer(pane)

	r.Start(stream.Separator)
	assert.Equal(t, []string{"earlier narration", stream.Separator, ""}, pane.Lines())
	assert.True(t, r.Open())

	r.Write("You see ")
	r.Write("a door.")
	assert.Equal(t, []string{"earlier narration", stream.Separator, "You see a door."}, pane.Lines())

	r.Finalize("You see a door.")
	assert.Equal(t, []string{"earlier narration", stream.Separator, "You see a door."}, pane.Lines())
	assert.False(t, r.Open())
}

func TestRendererNoSeparatorOnEmptyPane(t *testing.T) {
	pane := NewPane("AI Output")
	r := NewRenderer(pane)

	r.Start(stream.Separator)
	r.Finalize("first")
	assert.Equal(t, []string{"first"}, pane.Lines())
}

func TestRendererMultilineChunks(t *testing.T) {
	pane := NewPane("AI Output")
	r := NewRenderer(pane)

	r.Start("")
	r.Write("line one\nline ")
	r.Write("two")
	assert.Equal(t, []string{"line one", "line two"}, pane.Lines())
}

func TestRendererStartWhileOpenFinalizesPrevious(t *testing.T) {
	pane := NewPane("AI Output")
	r := NewRenderer(pane)

	r.Start("")
	r.Write("partial")
	r.Start("--")
	r.Write("next")
	r.Finalize("next turn")

	assert.Equal(t, []string{"partial", "--", "next turn"}, pane.Lines())
}

func TestRendererFinalizeWithoutStart(t *testing.T) {
	pane := NewPane("AI Output")
	pane.Append("x")
	r := NewRenderer(pane)

	r.Write("ignored")
	r.Finalize("appended")
	assert.Equal(t, []string{"x", "appended"}, pane.Lines())
}

func TestRendererStopIsNoOp(t *testing.T) {
	pane := NewPane("AI Output")
	r := NewRenderer(pane)

	r.Start("")
	r.Write("before")
	r.Stop()
	r.Write(" after")
	r.Finalize("final")
	r.Start("--")

	assert.Equal(t, []string{"before"}, pane.Lines())
}

func TestRendererHighlightsJSON(t *testing.T) {
	pane := NewPane("AI Output")
	r := NewRenderer(pane)
	r.SetHighlight(true)

	r.Start("")
	r.Finalize(`{"narration":"x"}`)

	plain := util.StripANSI(strings.Join(pane.Lines(), "\n"))
	assert.Equal(t, "{\n  \"narration\": \"x\"\n}", plain)

	r.Start("")
	r.Finalize("plain prose")
	assert.Equal(t, "plain prose", pane.Lines()[len(pane.Lines())-1])
}

func TestHighlightJSONRejectsNonObjects(t *testing.T) {
	for _, in := range []string{"prose", `["a"]`, `{"broken":`} {
		out, ok := HighlightJSON(in, DefaultHighlightStyle)
		assert.False(t, ok, in)
		assert.Equal(t, in, out)
	}
}

func TestRendererWithController(t *testing.T) {
	pane := NewPane("AI Output")
	pane.Append("previous")
	r := NewRenderer(pane)
	ctrl := stream.New(r, stream.Options{ShowSeparator: true})

	full, err := ctrl.Run(context.Background(), stream.TextSource{Text: "A grue lurks nearby.", ChunkSize: 8}, nil)
	require.NoError(t, err)

	assert.Equal(t, "A grue lurks nearby.", full)
	assert.Equal(t, []string{"previous", stream.Separator, "A grue lurks nearby."}, pane.Lines())
}
