// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports sessions to JSON format.
// NOTE: JSON exports always include every turn field, including the
// transcript excerpt, regardless of options.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonSession struct {
	ID       string     `json:"session_id"`
	Started  time.Time  `json:"started"`
	Ended    time.Time  `json:"ended"`
	Failures int        `json:"failures"`
	Turns    []jsonTurn `json:"turns"`
}

type jsonTurn struct {
	ID         string        `json:"id"`
	Number     int           `json:"number"`
	Started    time.Time     `json:"started"`
	DurationMs int64         `json:"duration_ms"`
	Transcript []string      `json:"transcript"`
	Narration  string        `json:"narration,omitempty"`
	Payload    model.Payload `json:"payload,omitempty"`
	Raw        string        `json:"raw,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Export converts a session to indented JSON.
func (e *JSONExporter) Export(s *Session) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	out := jsonSession{
		ID:       s.ID,
		Started:  s.Started(),
		Ended:    s.Ended(),
		Failures: s.Failures(),
		Turns:    make([]jsonTurn, 0, len(s.Turns)),
	}
	for _, t := range s.Turns {
		transcript := t.Window
		if transcript == nil {
			transcript = []string{}
		}
		out.Turns = append(out.Turns, jsonTurn{
			ID:         t.ID,
			Number:     t.Number,
			Started:    t.Started,
			DurationMs: t.Duration.Milliseconds(),
			Transcript: transcript,
			Narration:  t.Narration,
			Payload:    t.Payload,
			Raw:        t.Raw,
			Error:      t.Err,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
