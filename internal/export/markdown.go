// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/zork-narrator/internal/companion"
	"github.com/jeranaias/zork-narrator/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to a Markdown play log.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

type frontmatter struct {
	Session   string `yaml:"session"`
	Turns     int    `yaml:"turns"`
	Failures  int    `yaml:"failures,omitempty"`
	Date      string `yaml:"date"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(s *Session) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontmatter{
			Session:   s.ID,
			Turns:     len(s.Turns),
			Failures:  s.Failures(),
			Date:      s.Started().Format(time.RFC3339),
			Exported:  time.Now().Format(time.RFC3339),
			Generator: "zork-narrator",
		})
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# Session %s\n\n", escapeMarkdown(shortID(s.ID))))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(s.Started())))
		sb.WriteString(fmt.Sprintf("- **Ended**: %s\n", formatTimestamp(s.Ended())))
		sb.WriteString(fmt.Sprintf("- **Turns**: %d\n", len(s.Turns)))
		if n := s.Failures(); n > 0 {
			sb.WriteString(fmt.Sprintf("- **Failed Turns**: %d\n", n))
		}
		sb.WriteString("\n---\n\n")
	}

	for i, t := range s.Turns {
		sb.WriteString(e.formatHeading(t))
		sb.WriteString("\n\n")

		if e.options.IncludeTranscript && len(t.Window) > 0 {
			sb.WriteString("```text\n")
			sb.WriteString(strings.Join(t.Window, "\n"))
			sb.WriteString("\n```\n\n")
		}

		switch {
		case t.Err != "":
			sb.WriteString(fmt.Sprintf("> **Error**: %s\n\n", t.Err))
		case strings.TrimSpace(t.Narration) != "":
			sb.WriteString(strings.TrimSpace(t.Narration))
			sb.WriteString("\n\n")
		default:
			sb.WriteString("*No narration.*\n\n")
		}

		if e.options.IncludeMetadata && t.Duration > 0 {
			sb.WriteString(fmt.Sprintf("<sub>Duration: %s</sub>\n\n", formatDuration(t.Duration)))
		}

		if i < len(s.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from zork-narrator on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatHeading names the turn and, when the payload carries one, its room.
func (e *MarkdownExporter) formatHeading(t storage.Turn) string {
	heading := fmt.Sprintf("## Turn %d", t.Number)
	if room := t.Payload.String(companion.KeyRoomPath); room != "" {
		heading += " · " + escapeMarkdown(companion.Location(room))
	}
	if e.options.IncludeTimestamps && !t.Started.IsZero() {
		heading += fmt.Sprintf(" <sub>%s</sub>", formatShortTimestamp(t.Started))
	}
	return heading
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
