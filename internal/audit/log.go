// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records every prompt sent to the model and the payload recovered from it.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// FileName is the audit log file name inside the log directory.
const FileName = "ai.jsonl"

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("audit log is closed")

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one line of the audit log. Exactly one field is set.
type Entry struct {
	Request  []model.Message `json:"request,omitempty"`
	Response model.Payload   `json:"response,omitempty"`
}

// IsRequest reports whether the entry records an outgoing prompt.
func (e Entry) IsRequest() bool {
	return e.Request != nil
}

// =============================================================================
// LOG
// =============================================================================

// FailureCallback is called synchronously when a write fails.
type FailureCallback func(err error)

// Log is an append-only newline-delimited JSON file. It has a single owner;
// the mutex only protects against misuse from several goroutines.
type Log struct {
	path      string
	file      *os.File
	mu        sync.Mutex
	onFailure FailureCallback
}

// Open creates the log at path, truncating any previous session's content.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("audit log path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Log{path: path, file: file}, nil
}

// DefaultPath returns the audit log path inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, FileName)
}

// Path returns the file path of the log.
func (l *Log) Path() string {
	return l.path
}

// SetOnFailure registers a callback for write failures.
func (l *Log) SetOnFailure(cb FailureCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFailure = cb
}

// LogRequest appends {"request": messages}. The line is on disk when it returns.
func (l *Log) LogRequest(messages []model.Message) error {
	if messages == nil {
		messages = []model.Message{}
	}
	return l.write(map[string]any{"request": messages})
}

// LogResponse appends {"response": payload}. The line is on disk when it returns.
func (l *Log) LogResponse(payload model.Payload) error {
	if payload == nil {
		payload = model.Payload{}
	}
	return l.write(map[string]any{"response": payload})
}

func (l *Log) write(entry map[string]any) error {
	line, err := model.MarshalCompact(entry)
	if err != nil {
		return l.fail(fmt.Errorf("failed to encode audit entry: %w", err))
	}
	line = append(line, '\n')

	l.mu.Lock()
	if l.file == nil {
		l.mu.Unlock()
		return ErrClosed
	}

	if _, err := l.file.Write(line); err != nil {
		l.mu.Unlock()
		return l.fail(fmt.Errorf("failed to write audit entry: %w", err))
	}

	// The request line must be durable before the model call goes out.
	if err := l.file.Sync(); err != nil {
		l.mu.Unlock()
		return l.fail(fmt.Errorf("failed to sync audit log: %w", err))
	}
	l.mu.Unlock()
	return nil
}

func (l *Log) fail(err error) error {
	l.mu.Lock()
	cb := l.onFailure
	l.mu.Unlock()
	if cb != nil {
		cb(err)
	}
	return err
}

// Close closes the log file. Further writes return ErrClosed.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// =============================================================================
// READING
// =============================================================================

// ReadEntries parses an audit log file. Blank lines are skipped; a malformed
// line is an error naming its line number.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Pair is one request entry with the response that followed it, if any.
type Pair struct {
	Request  []model.Message
	Response model.Payload
	Answered bool
}

// Pairs groups entries into request/response pairs in log order. A request
// without a following response (a failed turn) has Answered false.
func Pairs(entries []Entry) []Pair {
	var pairs []Pair
	for _, e := range entries {
		if e.IsRequest() {
			pairs = append(pairs, Pair{Request: e.Request})
			continue
		}
		if n := len(pairs); n > 0 && !pairs[n-1].Answered {
			pairs[n-1].Response = e.Response
			pairs[n-1].Answered = true
		}
	}
	return pairs
}
