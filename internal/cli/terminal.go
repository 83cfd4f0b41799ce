// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and text fitting for the narrator CLI.
//
// Interactive terminals get colors and the TUI; piped output gets plain
// text. NO_COLOR and FORCE_COLOR override the TTY check.

package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is used when stdout is not a terminal.
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps field values readable on tiny terminals.
	MinTerminalWidth = 40
)

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetTerminalWidth returns the stdout width clamped to MinTerminalWidth,
// or DefaultTerminalWidth when it is unknown.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width <= 0:
		return DefaultTerminalWidth
	case width < MinTerminalWidth:
		return MinTerminalWidth
	default:
		return width
	}
}

// WrapField word-wraps a field value to the space RenderField leaves
// beside the label.
func WrapField(text string) string {
	return wordwrap.String(strings.TrimSpace(text), GetTerminalWidth()-labelWidth-2)
}

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled decides once per process whether to emit color:
// NO_COLOR wins, then FORCE_COLOR, then whether stdout is a terminal.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorsEnabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsEnabled = true
		default:
			colorsEnabled = IsStdoutTTY()
		}
	})
	return colorsEnabled
}

// GetColorProfile returns the profile used by narration writers and styles.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// TTYRequiredError is returned by interactive commands run without a terminal.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	return "stdin is not a terminal; cannot " + e.Operation + " (use narrator ask for piped input)"
}

// RequiresTTY returns a TTYRequiredError when stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}
