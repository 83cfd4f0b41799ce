// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by the narrator commands.
//
// Handlers always return errors and never print-and-return-nil; main
// decides how to display them and which exit code to use.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/config"
	"github.com/jeranaias/zork-narrator/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the model server could not be reached or refused
	ExitNetworkError = 5
	// ExitNotFoundError indicates a file was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "init", "read transcript")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports a malformed command line.
type UsageError struct {
	Message string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Message, e.Example)
	}
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewUsageError creates a UsageError.
func NewUsageError(message, example string) error {
	return &UsageError{Message: message, Example: example}
}

// =============================================================================
// DISPLAY
// =============================================================================

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var verrs config.ValidateErrors
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &verrs), errors.Is(err, config.ErrNotFound):
		return ExitConfigError
	case errors.Is(err, completion.ErrTransport), errors.Is(err, completion.ErrStatus):
		return ExitNetworkError
	case errors.Is(err, errNoTranscript), errors.Is(err, storage.ErrNoSessions), errors.Is(err, errUnknownSession):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}

// DisplayError writes err to w, as a JSON object in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		output := map[string]any{
			"error":   err.Error(),
			"success": false,
		}
		var cerr *completion.Error
		if errors.As(err, &cerr) {
			output["error_type"] = cerr.Kind.String()
			if cerr.StatusCode != 0 {
				output["status_code"] = cerr.StatusCode
			}
		}
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			output["command"] = cmdErr.Command
			output["action"] = cmdErr.Action
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}
