// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the narration pipeline.
package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NarrationKey is the payload field every recovered reply carries.
const NarrationKey = "narration"

// Payload is the structured reply recovered from the model.
// After recovery the "narration" key is always present and always a string.
type Payload map[string]any

// NewPayload returns a payload holding only narration.
func NewPayload(narration string) Payload {
	return Payload{NarrationKey: narration}
}

// Narration returns the narration text, or "" when it is missing or not a string.
func (p Payload) Narration() string {
	if s, ok := p[NarrationKey].(string); ok {
		return s
	}
	return ""
}

// String returns the payload value for key when it is a string.
func (p Payload) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Strings returns the string elements of the array stored under key.
// Non-string elements are skipped.
func (p Payload) Strings(key string) []string {
	arr, ok := p[key].([]any)
	if !ok {
		if ss, ok := p[key].([]string); ok {
			return append([]string(nil), ss...)
		}
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the payload. Nested maps and slices are
// copied so the result shares no mutable state with p.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Payload:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// JSON encodes the payload compactly. HTML escaping is disabled so the
// text reads exactly as the model wrote it.
func (p Payload) JSON() ([]byte, error) {
	return encode(p, "")
}

// IndentJSON encodes the payload with two-space indentation for display.
func (p Payload) IndentJSON() (string, error) {
	b, err := encode(p, "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalCompact encodes any value the way Payload.JSON does.
func MarshalCompact(v any) ([]byte, error) {
	return encode(v, "")
}

// NormalizeNarration enforces the narration invariant in place and returns p.
// A missing or null narration becomes "", a string is kept, and any other
// value is replaced by its JSON text.
func NormalizeNarration(p Payload) Payload {
	if p == nil {
		p = Payload{}
	}
	switch v := p[NarrationKey].(type) {
	case string:
	case nil:
		p[NarrationKey] = ""
	default:
		b, err := encode(v, "")
		if err != nil {
			p[NarrationKey] = ""
			break
		}
		p[NarrationKey] = strings.TrimSpace(string(b))
	}
	return p
}
