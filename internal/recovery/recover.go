// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recovery turns unreliable model text into a structured payload.
package recovery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// Rung identifies which step of the recovery ladder produced a payload.
type Rung int

const (
	// RungDirect means the (unfenced) text parsed as a JSON object.
	RungDirect Rung = iota + 1
	// RungBraces means the span from the first '{' to the last '}' parsed.
	RungBraces
	// RungNarrationField means only a "narration" field could be extracted.
	RungNarrationField
	// RungRaw means the raw text became the narration.
	RungRaw
)

// String returns a short name for logging.
func (r Rung) String() string {
	switch r {
	case RungDirect:
		return "direct"
	case RungBraces:
		return "braces"
	case RungNarrationField:
		return "narration-field"
	case RungRaw:
		return "raw"
	default:
		return "unknown"
	}
}

var (
	codeFenceRe = regexp.MustCompile("(?is)^```(?:json)?\\s*(.*?)\\s*```$")

	// The value group accepts any escaped character, so escaped quotes and
	// newlines stay inside the match.
	narrationFieldRe = regexp.MustCompile(`(?is)"narration"\s*:\s*"((?:\\.|[^\\"])*)"`)
)

// Recover returns the best structured payload it can find in raw. It never
// fails, and the result always carries a string "narration".
func Recover(raw string) model.Payload {
	p, _ := RecoverWithRung(raw)
	return p
}

// RecoverWithRung is Recover that also reports which rung succeeded.
func RecoverWithRung(raw string) (model.Payload, Rung) {
	candidate := StripCodeFence(raw)

	if obj, ok := parseObject(candidate); ok {
		return model.NormalizeNarration(obj), RungDirect
	}

	start := strings.IndexByte(candidate, '{')
	end := strings.LastIndexByte(candidate, '}')
	if start != -1 && end != -1 && start < end {
		if obj, ok := parseObject(candidate[start : end+1]); ok {
			return model.NormalizeNarration(obj), RungBraces
		}
	}

	if narration := ExtractNarration(raw); narration != "" {
		return model.NewPayload(narration), RungNarrationField
	}

	return model.NewPayload(raw), RungRaw
}

// StripCodeFence removes one surrounding ``` fence (optionally tagged json)
// from the trimmed text. Unfenced text is returned trimmed.
func StripCodeFence(text string) string {
	stripped := strings.TrimSpace(text)
	if m := codeFenceRe.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	return stripped
}

// ExtractNarration pulls the value of a "narration" string field out of text
// that is not valid JSON as a whole. It returns "" when no field is found.
func ExtractNarration(text string) string {
	m := narrationFieldRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	value := m[1]

	var decoded string
	if err := json.Unmarshal([]byte(`"`+value+`"`), &decoded); err == nil {
		return decoded
	}
	return strings.NewReplacer(`\"`, `"`, `\n`, "\n").Replace(value)
}

// parseObject decodes s when it is exactly one JSON object. Numbers are kept
// as json.Number so accepted payloads round-trip unchanged.
func parseObject(s string) (model.Payload, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if rest := s[dec.InputOffset():]; strings.Trim(rest, " \t\r\n") != "" {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return model.Payload(obj), true
}

// LooksStructured reports whether text appears to be raw structured data
// rather than prose. It is a coarse check: any brace counts.
func LooksStructured(text string) bool {
	return strings.ContainsAny(text, "{}")
}
