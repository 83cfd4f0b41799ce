// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package companion prepares text-to-image scene prompts from narration payloads.
package companion

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/session"
)

// =============================================================================
// COMPANION
// =============================================================================

const (
	// DefaultMailboxSize bounds pending messages.
	DefaultMailboxSize = 32

	// DefaultPollInterval is how often the mailbox is drained.
	DefaultPollInterval = 50 * time.Millisecond

	// JoinTimeout bounds how long Close waits for the goroutine.
	JoinTimeout = 2 * time.Second

	statusWaiting = "Waiting for structured AI response…"
	statusReady   = "Prompt ready – image generation pending model selection."
	statusAwait   = "Awaiting narrator response…"
)

var (
	// ErrClosed is returned when posting to a closed companion.
	ErrClosed = errors.New("companion closed")

	// ErrJoinTimeout is returned by Close when the goroutine did not exit in time.
	ErrJoinTimeout = errors.New("companion did not stop in time")
)

type messageKind int

const (
	msgStatus messageKind = iota
	msgPrompt
)

type message struct {
	kind   messageKind
	status string
	bundle Bundle
}

// Config tunes the mailbox goroutine.
type Config struct {
	Options

	// MailboxSize bounds pending messages (default 32).
	MailboxSize int

	// PollInterval is the drain period (default 50ms).
	PollInterval time.Duration
}

// Companion drives a Surface from its own goroutine. Posts never block.
type Companion struct {
	surface Surface
	config  Config

	mailbox chan message
	quit    chan struct{}
	done    chan struct{}

	closed    atomic.Bool
	dropped   atomic.Int64
	closeOnce sync.Once
	closeErr  error
}

// New starts a companion that presents scene prompts on surface.
func New(surface Surface, config Config) *Companion {
	if surface == nil {
		surface = NopSurface{}
	}
	if config.MailboxSize <= 0 {
		config.MailboxSize = DefaultMailboxSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	c := &Companion{
		surface: surface,
		config:  config,
		mailbox: make(chan message, config.MailboxSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	c.SetStatus(statusAwait)
	return c
}

// SetStatus posts a status line. It reports whether the message was queued.
func (c *Companion) SetStatus(status string) bool {
	return c.post(message{kind: msgStatus, status: status})
}

// ShowPrompt posts a scene prompt. It reports whether the message was queued.
func (c *Companion) ShowPrompt(b Bundle) bool {
	return c.post(message{kind: msgPrompt, bundle: b})
}

// Dropped returns how many posts were discarded because the mailbox was full.
func (c *Companion) Dropped() int64 {
	return c.dropped.Load()
}

// SceneReady builds the prompt for the latest scene. It reads the
// session's last payload and advances the session turn counter. Without a
// payload it only posts a waiting status and returns false.
func (c *Companion) SceneReady(sess *session.Session) (Bundle, bool) {
	payload, ok := sess.LastPayload()
	if !ok || len(payload) == 0 {
		c.SetStatus(statusWaiting)
		return Bundle{}, false
	}

	turn := sess.NextTurn()
	b := BuildBundle(payload, turn, c.config.Options)
	c.ShowPrompt(b)
	c.SetStatus(statusReady)
	logging.Infof("COMPANION: prepared image prompt seed=%d turn=%d", b.Seed, turn)
	return b, true
}

// Close stops the goroutine after it has applied every message posted
// before Close, waits up to JoinTimeout, and closes the surface.
func (c *Companion) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.quit)

		select {
		case <-c.done:
		case <-time.After(JoinTimeout):
			logging.Warnf("COMPANION: goroutine did not stop within %v", JoinTimeout)
			c.closeErr = ErrJoinTimeout
			return
		}

		if err := c.surface.Close(); err != nil {
			c.closeErr = err
		}
	})
	return c.closeErr
}

func (c *Companion) post(m message) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.mailbox <- m:
		return true
	default:
		n := c.dropped.Add(1)
		logging.Debugf("COMPANION: mailbox full, dropped message (%d total)", n)
		return false
	}
}

func (c *Companion) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		stopping := false
		select {
		case <-ticker.C:
		case <-c.quit:
			stopping = true
		}

		c.drain()
		if stopping {
			return
		}
	}
}

// drain applies every pending message without waiting for more.
func (c *Companion) drain() {
	for {
		select {
		case m := <-c.mailbox:
			c.apply(m)
		default:
			return
		}
	}
}

func (c *Companion) apply(m message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("COMPANION: surface panic: %v", r)
		}
	}()

	var err error
	switch m.kind {
	case msgStatus:
		err = c.surface.SetStatus(m.status)
	case msgPrompt:
		err = c.surface.ShowPrompt(m.bundle)
	}
	if err != nil {
		logging.Warnf("COMPANION: surface update failed: %v", err)
	}
}
