// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
package viewport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used for JSON payloads.
const DefaultHighlightStyle = "monokai"

// HighlightJSON pretty-prints and colorizes text when it is a JSON object.
// It reports false, returning text unchanged, for anything else.
func HighlightJSON(text, style string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return text, false
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(trimmed), "", "  "); err != nil {
		return text, false
	}
	code := indented.String()

	lexer := lexers.Get("json")
	if lexer == nil {
		return code, true
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, true
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code, true
	}
	return strings.TrimRight(buf.String(), "\n"), true
}
