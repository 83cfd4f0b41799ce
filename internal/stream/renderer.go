// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one narration turn from a chunk source into a renderer.
package stream

import (
	"io"
	"sync"

	"github.com/muesli/termenv"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// =============================================================================
// NULL RENDERER
// =============================================================================

// NullRenderer discards everything.
type NullRenderer struct{}

func (NullRenderer) Start(string)    {}
func (NullRenderer) Write(string)    {}
func (NullRenderer) Finalize(string) {}

// =============================================================================
// WRITER RENDERER
// =============================================================================

// WriterRenderer prints AI output to a plain terminal or any io.Writer.
// Chunks are written as they arrive; the separator is drawn faint on its own
// line. After Stop every call is a no-op. The first failed write (a closed
// pipe, say) is logged and stops the renderer.
type WriterRenderer struct {
	mu      sync.Mutex
	w       io.Writer
	out     *termenv.Output
	stopped bool
	open    bool
	wrote   bool
	last    string
	err     error
}

// NewWriterRenderer creates a renderer writing to w. The color profile is
// detected from w unless overridden with termenv options.
func NewWriterRenderer(w io.Writer, opts ...termenv.OutputOption) *WriterRenderer {
	return &WriterRenderer{w: w, out: termenv.NewOutput(w, opts...)}
}

// Start implements Renderer.
func (r *WriterRenderer) Start(separator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.open {
		r.write("\n")
	}
	if separator != "" && r.wrote {
		r.write(r.out.String(separator).Faint().String() + "\n")
	}
	r.open = true
}

// Write implements Renderer.
func (r *WriterRenderer) Write(chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || !r.open {
		return
	}
	r.write(chunk)
	r.wrote = true
}

// Finalize implements Renderer.
func (r *WriterRenderer) Finalize(full string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || !r.open {
		return
	}
	r.write("\n")
	r.open = false
	r.wrote = true
	r.last = full
}

// write must be called with mu held.
func (r *WriterRenderer) write(s string) {
	if r.stopped {
		return
	}
	if _, err := io.WriteString(r.w, s); err != nil {
		logging.Warnf("STREAM: output write failed, dropping further narration: %v", err)
		r.err = err
		r.stopped = true
	}
}

// Err returns the write error that stopped the renderer, if any.
func (r *WriterRenderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Last returns the text of the most recently finalized block.
func (r *WriterRenderer) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Stop turns the renderer into a no-op.
func (r *WriterRenderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}
