// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state one narration session shares across components.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the explicit replacement for process-wide state: the game
// transcript, the last recovered payload and the turn counter. Every field
// is guarded; getters return copies and setters store copies.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time

	// Transcript is append-only.
	lines []string

	lastPayload  model.Payload
	hasPayload   bool
	turn         int
	lastActivity time.Time
}

// New creates a session with a fresh ID.
func New() *Session {
	now := time.Now()
	return &Session{
		id:           uuid.NewString(),
		startTime:    now,
		lastActivity: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// StartTime returns when the session was created.
func (s *Session) StartTime() time.Time {
	return s.startTime
}

// LastActivity returns when the transcript or payload last changed.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Append adds lines to the transcript.
func (s *Session) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, lines...)
	s.lastActivity = time.Now()
}

// Len returns the number of transcript lines.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Window returns a copy of the last n transcript lines. n <= 0 returns all.
func (s *Session) Window(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if n > 0 && len(s.lines) > n {
		start = len(s.lines) - n
	}
	out := make([]string, len(s.lines)-start)
	copy(out, s.lines[start:])
	return out
}

// =============================================================================
// SHARED PAYLOAD AND TURN COUNTER
// =============================================================================

// StorePayload records a copy of the latest recovered payload.
func (s *Session) StorePayload(p model.Payload) {
	cp := p.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPayload = cp
	s.hasPayload = true
	s.lastActivity = time.Now()
}

// LastPayload returns a copy of the latest payload, if any.
func (s *Session) LastPayload() (model.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPayload {
		return nil, false
	}
	return s.lastPayload.Clone(), true
}

// NextTurn increments the turn counter and returns the new value (1-based).
func (s *Session) NextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	return s.turn
}

// Turn returns the current turn counter.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// ResetTurns sets the turn counter back to zero.
func (s *Session) ResetTurns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn = 0
}
