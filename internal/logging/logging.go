// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides leveled log output on top of the standard logger.
package logging

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level is a logging threshold.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the level name used as line prefix.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "LOG"
	}
}

var (
	level  atomic.Int32
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	level.Store(int32(LevelInfo))
}

// SetLevel sets the global threshold.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// GetLevel returns the global threshold.
func GetLevel() Level {
	return Level(level.Load())
}

// SetVerbose switches between debug and info output.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelInfo)
	}
}

// SetOutput redirects log output, e.g. to a file while the TUI owns the terminal.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
	log.SetOutput(w)
}

// Discard silences all output. Used by tests and quiet commands.
func Discard() {
	SetOutput(io.Discard)
}

func logf(l Level, format string, args ...any) {
	if GetLevel() < l {
		return
	}
	logger.Printf("["+l.String()+"] "+format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...any) { logf(LevelWarn, format, args...) }

// Infof logs at info level.
func Infof(format string, args ...any) { logf(LevelInfo, format, args...) }

// Debugf logs at debug level.
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }
