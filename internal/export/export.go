// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes archived narration sessions to shareable files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/zork-narrator/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNilSession    = errors.New("session is nil")
	ErrEmptySession  = errors.New("session has no turns")
	ErrUnknownFormat = errors.New("unknown export format")
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one narration session as read back from the archive.
type Session struct {
	ID    string
	Turns []storage.Turn
}

// NewSession wraps archived turns. The turns are expected oldest first.
func NewSession(id string, turns []storage.Turn) *Session {
	return &Session{ID: id, Turns: turns}
}

// Started returns the start of the first turn.
func (s *Session) Started() time.Time {
	if len(s.Turns) == 0 {
		return time.Time{}
	}
	return s.Turns[0].Started
}

// Ended returns the end of the last turn.
func (s *Session) Ended() time.Time {
	if len(s.Turns) == 0 {
		return time.Time{}
	}
	last := s.Turns[len(s.Turns)-1]
	return last.Started.Add(last.Duration)
}

// Failures counts turns that ended in an error.
func (s *Session) Failures() int {
	n := 0
	for _, t := range s.Turns {
		if t.Err != "" {
			n++
		}
	}
	return n
}

func (s *Session) check() error {
	if s == nil {
		return ErrNilSession
	}
	if len(s.Turns) == 0 {
		return ErrEmptySession
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for session exporters.
type Exporter interface {
	// Export converts a session to the target format and returns the content.
	Export(s *Session) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata includes the frontmatter and session summary.
	IncludeMetadata bool

	// IncludeTimestamps includes per-turn timestamps.
	IncludeTimestamps bool

	// IncludeTranscript includes the game excerpt each turn was built from.
	IncludeTranscript bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeTranscript: true,
	}
}

// ForFormat returns the exporter for a format name: "md", "markdown" or "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (use md or json)", ErrUnknownFormat, format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a session into opts.OutputDir and returns the path.
// The file name is derived from the session id and the current time.
func ExportToFile(s *Session, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(s)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("session_%s_%s%s",
		sanitizeFilename(shortID(s.ID)),
		timestamp,
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	// Replace problematic characters (Windows and Unix)
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration to a human-readable string.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	if seconds < 60 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	minutes := int(seconds / 60)
	remainingSeconds := int(seconds) % 60
	return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
