// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice reads finalized narration aloud through an external command.
package voice

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// DefaultTimeout bounds one utterance.
const DefaultTimeout = 2 * time.Minute

// CommandSpeaker pipes each finalized narration to a text-to-speech
// command on stdin (for example "espeak-ng" or "say"). Speech runs in the
// background; an utterance that arrives while one is playing is dropped.
type CommandSpeaker struct {
	args    []string
	timeout time.Duration

	speaking atomic.Bool
	dropped  atomic.Int64
	wg       sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool

	// run executes one utterance; replaced in tests.
	run func(ctx context.Context, args []string, text string) error
}

// NewCommandSpeaker parses command (split on whitespace, no shell).
func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("voice command is empty")
	}
	return &CommandSpeaker{
		args:    args,
		timeout: DefaultTimeout,
		run:     runCommand,
	}, nil
}

// Finalized speaks text unless an utterance is already playing.
func (s *CommandSpeaker) Finalized(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if !s.speaking.CompareAndSwap(false, true) {
		n := s.dropped.Add(1)
		logging.Debugf("VOICE: still speaking, dropped utterance (%d total)", n)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.speaking.Store(false)
		defer cancel()

		if err := s.run(ctx, s.args, text); err != nil && ctx.Err() != context.Canceled {
			logging.Warnf("VOICE: %s failed: %v", s.args[0], err)
		}
	}()
}

// Speaking reports whether an utterance is playing.
func (s *CommandSpeaker) Speaking() bool {
	return s.speaking.Load()
}

// Dropped returns how many utterances were skipped.
func (s *CommandSpeaker) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops any playing utterance and waits for it to exit.
func (s *CommandSpeaker) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func runCommand(ctx context.Context, args []string, text string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) > 0 {
		return errors.New(strings.TrimSpace(string(out)))
	}
	return err
}
