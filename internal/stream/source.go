// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one narration turn from a chunk source into a renderer.
package stream

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jeranaias/zork-narrator/internal/chunk"
	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/model"
	"github.com/jeranaias/zork-narrator/internal/prompt"
)

// =============================================================================
// NARRATION SOURCE
// =============================================================================

// Completer performs one completion turn.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (*completion.Reply, error)
}

// NarrationSource is the JSON-aware source. On first iteration it builds the
// prompt, makes the single model call, recovers the payload, and then chunks
// either the narration or the whole payload as indented JSON.
type NarrationSource struct {
	Client  Completer
	Builder prompt.Builder

	// StreamOnlyNarration streams just the narration; otherwise the full
	// payload is shown for debugging.
	StreamOnlyNarration bool

	// ChunkSize is the fragment threshold; zero uses chunk.DefaultSize.
	ChunkSize int

	// OnReply, when set, receives every reply before it is chunked.
	OnReply func(*completion.Reply)
}

// Stream implements Source.
func (s *NarrationSource) Stream(ctx context.Context, window []string) Stream {
	var (
		final string
		done  bool
	)

	chunks := func(yield func(string, error) bool) {
		msgs, err := s.Builder.Build(window)
		if err != nil {
			yield("", err)
			return
		}

		reply, err := s.Client.Complete(ctx, msgs)
		if reply == nil {
			if err == nil {
				err = completion.NewError(completion.KindEnvelope, "no reply", nil)
			}
			yield("", err)
			return
		}
		if err != nil {
			// The reply is usable; only its audit entry failed.
			logging.Warnf("STREAM: %v", err)
		}
		if s.OnReply != nil {
			s.OnReply(reply)
		}

		text := DisplayText(reply.Payload, s.StreamOnlyNarration)
		for frag := range chunk.Split(text, s.ChunkSize) {
			if !yield(frag, nil) {
				return
			}
		}
		final, done = text, true
	}

	return Stream{
		Chunks: chunks,
		Final:  func() (string, bool) { return final, done },
	}
}

// DisplayText picks what a turn shows: the narration, or the whole payload
// as indented JSON.
func DisplayText(p model.Payload, onlyNarration bool) string {
	if onlyNarration {
		return p.Narration()
	}
	text, err := p.IndentJSON()
	if err != nil {
		return p.Narration()
	}
	return text
}

// =============================================================================
// TEXT SOURCE
// =============================================================================

// TextSource is the degraded source: it chunks a fixed text without any
// model call or schema handling.
type TextSource struct {
	Text      string
	ChunkSize int
}

// Stream implements Source. The window is ignored.
func (s TextSource) Stream(ctx context.Context, _ []string) Stream {
	text := s.Text
	return Stream{
		Chunks: func(yield func(string, error) bool) {
			for frag := range chunk.Split(text, s.ChunkSize) {
				if !yield(frag, nil) {
					return
				}
			}
		},
		Final: func() (string, bool) { return text, true },
	}
}

// =============================================================================
// PACING
// =============================================================================

// Paced delays each chunk of the wrapped source with a rate limiter so an
// atomic reply appears at a readable pace.
type Paced struct {
	Source  Source
	Limiter *rate.Limiter
}

// NewPaced wraps src to emit at most perSecond chunks per second. A
// non-positive rate returns src unchanged.
func NewPaced(src Source, perSecond float64) Source {
	if perSecond <= 0 {
		return src
	}
	return &Paced{Source: src, Limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Stream implements Source.
func (p *Paced) Stream(ctx context.Context, window []string) Stream {
	inner := p.Source.Stream(ctx, window)
	if inner.Chunks == nil {
		return inner
	}

	return Stream{
		Chunks: func(yield func(string, error) bool) {
			for c, err := range inner.Chunks {
				if err != nil {
					yield("", err)
					return
				}
				if werr := p.Limiter.Wait(ctx); werr != nil {
					yield("", werr)
					return
				}
				if !yield(c, nil) {
					return
				}
			}
		},
		Final: inner.Final,
	}
}
