// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package game supplies transcript lines from a running or recorded game.
package game

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// =============================================================================
// FOLLOWER
// =============================================================================

// Follower tails a transcript file and emits one Batch per appended record
// (JSONL) or line (plain text). The parent directory is watched so the
// file may be created, truncated or replaced after the follower starts.
type Follower struct {
	path    string
	watcher *fsnotify.Watcher
	batches chan Batch

	// offset and partial are owned by the run goroutine.
	offset  int64
	partial []byte

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewFollower starts tailing path. With fromStart the existing content is
// emitted first; otherwise only data appended later is.
func NewFollower(path string, fromStart bool) (*Follower, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("follow transcript: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("follow transcript: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("follow transcript: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Follower{
		path:    abs,
		watcher: watcher,
		batches: make(chan Batch, 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if !fromStart {
		if info, err := os.Stat(abs); err == nil {
			f.offset = info.Size()
		}
	}

	go f.run()
	return f, nil
}

// Batches returns the channel of new transcript lines. It is closed after Close.
func (f *Follower) Batches() <-chan Batch {
	return f.batches
}

// Path returns the followed file.
func (f *Follower) Path() string {
	return f.path
}

// Close stops the watcher and waits for the tail goroutine to exit.
func (f *Follower) Close() error {
	var err error
	f.once.Do(func() {
		f.cancel()
		err = f.watcher.Close()
		<-f.done
	})
	return err
}

func (f *Follower) run() {
	defer close(f.done)
	defer close(f.batches)
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("FOLLOW: panic in tail loop: %v", r)
		}
	}()

	// Pick up anything written before the watch was registered.
	f.readNew()

	for {
		select {
		case <-f.ctx.Done():
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}

			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.offset = 0
				f.partial = nil
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				f.readNew()
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnf("FOLLOW: watcher error: %v", err)
		}
	}
}

// readNew reads everything past the current offset and emits complete lines.
func (f *Follower) readNew() {
	file, err := os.Open(f.path)
	if err != nil {
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return
	}
	if info.Size() < f.offset {
		logging.Infof("FOLLOW: %s truncated, restarting from the beginning", f.path)
		f.offset = 0
		f.partial = nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		logging.Warnf("FOLLOW: read %s: %v", f.path, err)
		return
	}
	f.offset += int64(len(data))

	data = append(f.partial, data...)
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		f.partial = data
		return
	}
	f.partial = append([]byte(nil), data[last+1:]...)

	for _, line := range bytes.Split(data[:last], []byte("\n")) {
		lines := lineBatch(line)
		if len(lines) == 0 {
			continue
		}
		select {
		case f.batches <- Batch{Lines: lines}:
		case <-f.ctx.Done():
			return
		}
	}
}

// lineBatch converts one raw line of a followed file into transcript lines.
func lineBatch(raw []byte) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		entries, err := ParseRecord(trimmed)
		if err == nil {
			return Lines(entries)
		}
		logging.Debugf("FOLLOW: skipped record: %v", err)
		return nil
	}
	if line := PlainLine(string(raw)); line != "" {
		return []string{line}
	}
	return nil
}
