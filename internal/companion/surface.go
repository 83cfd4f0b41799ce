// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package companion prepares text-to-image scene prompts from narration payloads.
package companion

import (
	"strings"

	"github.com/jeranaias/zork-narrator/internal/util"
)

// =============================================================================
// SURFACES
// =============================================================================

// Surface presents companion output. Methods are called only from the
// companion goroutine.
type Surface interface {
	SetStatus(status string) error
	ShowPrompt(b Bundle) error
	Close() error
}

// NopSurface discards everything.
type NopSurface struct{}

func (NopSurface) SetStatus(string) error  { return nil }
func (NopSurface) ShowPrompt(Bundle) error { return nil }
func (NopSurface) Close() error            { return nil }

// FileSurface keeps the latest status and prompt in a text file that an
// external viewer can watch. Each update rewrites the file atomically.
type FileSurface struct {
	path   string
	status string
	bundle *Bundle
}

// NewFileSurface writes previews to path.
func NewFileSurface(path string) *FileSurface {
	return &FileSurface{path: path}
}

// Path returns the preview file location.
func (s *FileSurface) Path() string {
	return s.path
}

func (s *FileSurface) SetStatus(status string) error {
	s.status = status
	return s.flush()
}

func (s *FileSurface) ShowPrompt(b Bundle) error {
	s.bundle = &b
	return s.flush()
}

func (s *FileSurface) Close() error {
	return nil
}

func (s *FileSurface) flush() error {
	var sb strings.Builder
	sb.WriteString("Zork Scene Companion\n")
	sb.WriteString(s.status)
	sb.WriteString("\n")
	if s.bundle != nil {
		sb.WriteString("\n")
		sb.WriteString(s.bundle.Preview())
		sb.WriteString("\n")
	}
	return util.AtomicWriteFile(s.path, []byte(sb.String()), 0600)
}
