// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
package viewport

import (
	"strings"
	"sync"
)

// =============================================================================
// PANE
// =============================================================================

// Window is the visible part of a pane.
type Window struct {
	// Lines are the selected logical lines, oldest first.
	Lines []string

	// Start is the index of Lines[0] in the pane log.
	Start int

	// Rows is the number of wrapped rows Lines occupy.
	Rows int
}

// String joins the window's lines for display.
func (w Window) String() string {
	return strings.Join(w.Lines, "\n")
}

// Pane is an append-only log of display lines. It is safe for concurrent use.
type Pane struct {
	title string

	mu    sync.RWMutex
	lines []string
}

// NewPane creates an empty pane.
func NewPane(title string) *Pane {
	return &Pane{title: title}
}

// Title returns the pane title.
func (p *Pane) Title() string {
	return p.title
}

// Append adds lines to the log.
func (p *Pane) Append(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, lines...)
}

// AppendText adds text, one log line per newline-separated segment.
func (p *Pane) AppendText(text string) {
	p.Append(splitLines(text)...)
}

// Len returns the number of logical lines.
func (p *Pane) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lines)
}

// Lines returns a copy of the whole log.
func (p *Pane) Lines() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.lines...)
}

// Fit selects the maximal trailing run of lines whose wrapped rows fit in
// height rows at the given content width. Only lines that are candidates
// for the window are measured. A non-positive width or height yields an
// empty window.
func (p *Pane) Fit(width, height int) Window {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.lines)
	if width <= 0 || height <= 0 {
		return Window{Start: n}
	}

	used := 0
	start := n
	for i := n - 1; i >= 0; i-- {
		rows := RowCount(p.lines[i], width)
		if used+rows > height {
			break
		}
		used += rows
		start = i
	}

	return Window{
		Lines: append([]string(nil), p.lines[start:]...),
		Start: start,
		Rows:  used,
	}
}

// replaceFrom replaces every line from index from onward with lines.
// The renderer uses it to rewrite the block it currently owns.
func (p *Pane) replaceFrom(from int, lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if from > len(p.lines) {
		from = len(p.lines)
	}
	p.lines = append(p.lines[:from], lines...)
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
