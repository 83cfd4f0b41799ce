// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one narration turn from a chunk source into a renderer.
package stream

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/recovery"
)

// Separator is drawn above a new AI block when separators are enabled.
var Separator = strings.Repeat("─", 40)

// ErrTurnInFlight is returned by Run while another turn is using the controller.
var ErrTurnInFlight = errors.New("a narration turn is already in flight")

// =============================================================================
// CONTRACTS
// =============================================================================

// Renderer is the presentation surface for AI output.
type Renderer interface {
	// Start opens a new message block. An empty separator means none.
	Start(separator string)
	// Write appends a chunk to the open block.
	Write(chunk string)
	// Finalize closes the block with its full text.
	Finalize(full string)
}

// Stream is one turn of output from a Source: an ordered sequence of chunks
// and, once the sequence has been drained, optionally the source's own full
// text.
type Stream struct {
	// Chunks yields text fragments in display order. A non-nil error ends the turn.
	Chunks iter.Seq2[string, error]

	// Final reports the source's full text. It is only consulted after
	// Chunks completed without error; nil means the source has none.
	Final func() (string, bool)
}

// Source produces the chunks for a transcript window. Each call is independent.
type Source interface {
	Stream(ctx context.Context, window []string) Stream
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, window []string) Stream

// Stream calls f.
func (f SourceFunc) Stream(ctx context.Context, window []string) Stream {
	return f(ctx, window)
}

// Observer receives the finalized text of each turn that completed cleanly
// and does not look like raw structured data. Observers are best effort.
type Observer interface {
	Finalized(text string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(text string)

// Finalized calls f.
func (f ObserverFunc) Finalized(text string) {
	f(text)
}

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle position of the current message block.
type State int32

const (
	StateIdle State = iota
	StateStarted
	StateStreaming
	StateFinalized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// ShowSeparator passes Separator to Renderer.Start.
	ShowSeparator bool

	// Observers run after finalize; see Observer.
	Observers []Observer

	// OnState, when set, is called on every state transition.
	OnState func(State)
}

// Controller runs turns against one renderer, one at a time.
type Controller struct {
	renderer Renderer
	opts     Options

	busy  atomic.Bool
	mu    sync.Mutex
	state State
}

// New creates a controller for renderer.
func New(renderer Renderer, opts Options) *Controller {
	return &Controller{renderer: renderer, opts: opts}
}

// State returns the current block state. Safe from any goroutine.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// Run executes one turn: Start, then every chunk forwarded in order, then
// Finalize exactly once however the turn ends. It returns the text passed to
// Finalize.
//
// Cancelling ctx stops consumption before the next chunk; Finalize still
// receives the chunks written so far and Run returns ctx.Err(). A source
// error ends the turn the same way and is returned. The source's own full
// text replaces the accumulated chunks only when the sequence completed.
func (c *Controller) Run(ctx context.Context, src Source, window []string) (full string, err error) {
	if !c.busy.CompareAndSwap(false, true) {
		return "", ErrTurnInFlight
	}
	defer c.busy.Store(false)

	separator := ""
	if c.opts.ShowSeparator {
		separator = Separator
	}

	c.setState(StateStarted)
	c.renderer.Start(separator)

	var (
		acc       strings.Builder
		st        Stream
		completed bool
	)

	defer func() {
		full = acc.String()
		if completed && st.Final != nil {
			if final, ok := st.Final(); ok {
				full = final
			}
		}

		c.setState(StateFinalized)
		c.renderer.Finalize(full)
		// A panicking renderer leaves completed unset with err still nil.
		if completed && err == nil {
			c.notify(full)
		}
		c.setState(StateIdle)
	}()

	st = src.Stream(ctx, window)
	if st.Chunks == nil {
		completed = true
		return "", nil
	}

	for chunk, serr := range st.Chunks {
		if serr != nil {
			return "", serr
		}
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		if c.State() == StateStarted {
			c.setState(StateStreaming)
		}
		c.renderer.Write(chunk)
		acc.WriteString(chunk)
	}

	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}
	completed = true
	return "", nil
}

func (c *Controller) notify(text string) {
	if len(c.opts.Observers) == 0 || text == "" || recovery.LooksStructured(text) {
		return
	}
	for _, o := range c.opts.Observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Warnf("STREAM: observer panicked: %v", r)
				}
			}()
			o.Finalized(text)
		}()
	}
}
