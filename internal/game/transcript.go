// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package game supplies transcript lines from a running or recorded game.
package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/zork-narrator/internal/logging"
)

// CommandPrefix marks player commands in the transcript.
const CommandPrefix = "> "

// EntryKind distinguishes player input from game output.
type EntryKind int

const (
	EntryCommand EntryKind = iota
	EntryPrinted
)

// Entry is one item of a JSONL transcript record.
type Entry struct {
	Kind EntryKind
	Text string

	// Source is the routine that printed the text, when recorded.
	Source string
}

// Line renders the entry the way it appears in the transcript window.
func (e Entry) Line() string {
	if e.Kind == EntryCommand {
		return CommandPrefix + e.Text
	}
	return e.Text
}

// Batch is a group of transcript lines that arrived together.
type Batch struct {
	Lines []string
}

type record struct {
	Message         any     `json:"message"`
	PrintedMessages [][]any `json:"printed_messages"`
}

// ParseRecord decodes one JSONL record. A blank line yields no entries.
// Malformed pairs inside printed_messages are skipped; a line that is not
// a JSON object is an error.
func ParseRecord(line []byte) ([]Entry, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("parse transcript record: %w", err)
	}

	var entries []Entry
	if msg, ok := rec.Message.(string); ok {
		if msg = clean(msg); msg != "" {
			entries = append(entries, Entry{Kind: EntryCommand, Text: msg})
		}
	}

	for _, pair := range rec.PrintedMessages {
		if len(pair) == 0 {
			continue
		}
		text, ok := pair[0].(string)
		if !ok {
			continue
		}
		if text = clean(text); text == "" {
			continue
		}
		e := Entry{Kind: EntryPrinted, Text: text}
		if len(pair) > 1 {
			if src, ok := pair[1].(string); ok {
				e.Source = src
			}
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Lines renders entries as transcript lines.
func Lines(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Line())
	}
	return out
}

// ReadFile returns every transcript line of a recorded session. Files
// ending in .jsonl, or whose first non-blank line is a JSON object, are
// read as records; anything else is read as plain text. Undecodable
// records are skipped.
func ReadFile(path string) ([]string, error) {
	var lines []string
	err := scanFile(path,
		func(entries []Entry) { lines = append(lines, Lines(entries)...) },
		func(line string) { lines = append(lines, line) },
	)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadEntries is ReadFile keeping the entry structure. Plain-text lines
// starting with CommandPrefix become commands; they carry no Source.
func ReadEntries(path string) ([]Entry, error) {
	var entries []Entry
	err := scanFile(path,
		func(batch []Entry) { entries = append(entries, batch...) },
		func(line string) {
			if text, ok := strings.CutPrefix(line, CommandPrefix); ok {
				if text = clean(text); text != "" {
					entries = append(entries, Entry{Kind: EntryCommand, Text: text})
				}
				return
			}
			entries = append(entries, Entry{Kind: EntryPrinted, Text: line})
		},
	)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// scanFile calls record for each decoded JSONL record, or plain for each
// non-blank line of a plain-text transcript.
func scanFile(path string, record func([]Entry), plain func(string)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	jsonl := strings.EqualFold(filepath.Ext(path), ".jsonl") || looksJSONL(data)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if jsonl {
			entries, err := ParseRecord(scanner.Bytes())
			if err != nil {
				logging.Debugf("TRANSCRIPT: %s:%d skipped: %v", path, n, err)
				continue
			}
			record(entries)
			continue
		}
		if line := PlainLine(scanner.Text()); line != "" {
			plain(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	return nil
}

// PlainLine cleans one line of plain-text output. Blank lines and bare
// prompts come back empty.
func PlainLine(s string) string {
	s = clean(strings.TrimSuffix(s, "\r"))
	if s == ">" {
		return ""
	}
	return s
}

func looksJSONL(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line[0] == '{'
	}
	return false
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
