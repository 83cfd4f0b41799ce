// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package game supplies transcript lines from a running or recorded game.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// =============================================================================
// INTERPRETER PROCESS
// =============================================================================

const (
	// DefaultSettle is how long output must be quiet before it is emitted.
	DefaultSettle = 150 * time.Millisecond

	// closeTimeout bounds how long Close waits for the interpreter to exit.
	closeTimeout = 2 * time.Second
)

// ErrProcessClosed is returned by Send after Close or after the game exits.
var ErrProcessClosed = errors.New("game process closed")

// Process runs an interactive interpreter and groups its output into
// batches. Output is emitted once it has been quiet for the settle
// interval, so a multi-line room description arrives as one Batch.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	settle time.Duration

	chunks  chan []byte
	batches chan Batch
	exited  chan struct{}
	stop    chan struct{}

	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
	err    error
}

// StartProcess launches command (split on whitespace, no shell).
func StartProcess(ctx context.Context, command string, settle time.Duration) (*Process, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("game command is empty")
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start game %q: %w", args[0], err)
	}
	logging.Infof("GAME: started %q (pid %d)", command, cmd.Process.Pid)

	p := &Process{
		cmd:     cmd,
		stdin:   stdin,
		settle:  settle,
		chunks:  make(chan []byte, 16),
		batches: make(chan Batch, 16),
		exited:  make(chan struct{}),
		stop:    make(chan struct{}),
	}

	go p.pump(stdout)
	go p.collect()
	return p, nil
}

// Batches returns the channel of output batches. It is closed when the
// interpreter's output ends.
func (p *Process) Batches() <-chan Batch {
	return p.batches
}

// Send writes one command line to the interpreter.
func (p *Process) Send(command string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrProcessClosed
	}
	if _, err := io.WriteString(p.stdin, strings.TrimRight(command, "\r\n")+"\n"); err != nil {
		return fmt.Errorf("send to game: %w", err)
	}
	return nil
}

// Close ends the interpreter: stdin is closed, and the process is killed
// if it has not exited within the close timeout. Close is idempotent.
func (p *Process) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.stdin.Close()
	}
	p.mu.Unlock()
	p.stopOnce.Do(func() { close(p.stop) })

	select {
	case <-p.exited:
	case <-time.After(closeTimeout):
		logging.Warnf("GAME: interpreter did not exit, killing pid %d", p.cmd.Process.Pid)
		p.cmd.Process.Kill()
		<-p.exited
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// pump copies raw output into the chunk channel until EOF, then reaps the process.
func (p *Process) pump(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- append([]byte(nil), buf[:n]...):
			case <-p.stop:
			}
		}
		if err != nil {
			break
		}
	}
	close(p.chunks)

	werr := p.cmd.Wait()
	p.mu.Lock()
	p.closed = true
	var exitErr *exec.ExitError
	if werr != nil && !errors.As(werr, &exitErr) {
		p.err = werr
	}
	p.mu.Unlock()
	close(p.exited)
}

// collect debounces output chunks into batches.
func (p *Process) collect() {
	defer close(p.batches)

	var pending strings.Builder
	timer := time.NewTimer(p.settle)
	timer.Stop()

	flush := func() {
		lines := splitOutput(pending.String())
		pending.Reset()
		if len(lines) == 0 {
			return
		}
		select {
		case p.batches <- Batch{Lines: lines}:
		case <-p.stop:
		}
	}

	for {
		select {
		case data, ok := <-p.chunks:
			if !ok {
				timer.Stop()
				flush()
				return
			}
			pending.Write(data)
			timer.Reset(p.settle)

		case <-timer.C:
			flush()
		}
	}
}

// splitOutput turns a burst of interpreter output into transcript lines.
func splitOutput(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := PlainLine(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
