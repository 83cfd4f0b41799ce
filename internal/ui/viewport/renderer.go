// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
package viewport

import (
	"strings"
	"sync"
)

// =============================================================================
// PANE RENDERER
// =============================================================================

// Renderer streams narration turns into a Pane. Each turn owns one block
// of lines at the end of the pane; lines before the open block are never
// rewritten. After Stop every call is a no-op.
type Renderer struct {
	pane *Pane

	mu         sync.Mutex
	open       bool
	blockStart int
	text       strings.Builder
	stopped    bool

	highlight bool
	style     string
}

// NewRenderer creates a renderer that writes into pane.
func NewRenderer(pane *Pane) *Renderer {
	return &Renderer{pane: pane, style: DefaultHighlightStyle}
}

// SetHighlight enables JSON highlighting of finalized text.
func (r *Renderer) SetHighlight(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlight = on
}

// SetStyle selects the chroma style used for highlighting.
func (r *Renderer) SetStyle(style string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if style != "" {
		r.style = style
	}
}

// Pane returns the target pane.
func (r *Renderer) Pane() *Pane {
	return r.pane
}

// Start opens a new block. A separator is appended first when the pane
// already has content. A block left open by a previous turn is finalized
// with the text it streamed.
func (r *Renderer) Start(separator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	if r.open {
		r.finalizeLocked(r.text.String())
	}
	if separator != "" && r.pane.Len() > 0 {
		r.pane.Append(separator)
	}

	r.blockStart = r.pane.Len()
	r.open = true
	r.text.Reset()
	r.pane.Append("")
}

// Write appends a chunk to the open block.
func (r *Renderer) Write(chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || !r.open {
		return
	}

	r.text.WriteString(chunk)
	r.pane.replaceFrom(r.blockStart, splitLines(r.text.String()))
}

// Finalize replaces the block's streamed lines with the final text and
// closes it. Without an open block the text is appended as a new block.
func (r *Renderer) Finalize(full string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if !r.open {
		r.blockStart = r.pane.Len()
	}
	r.finalizeLocked(full)
}

// Stop detaches the renderer from its pane.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.open = false
}

// Open reports whether a block is being streamed.
func (r *Renderer) Open() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

func (r *Renderer) finalizeLocked(full string) {
	text := full
	if r.highlight {
		text, _ = HighlightJSON(full, r.style)
	}
	r.pane.replaceFrom(r.blockStart, splitLines(text))
	r.open = false
	r.text.Reset()
}
