// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chunk splits finished text into word-safe fragments for paced display.
package chunk

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the fragment size threshold used when none is configured.
const DefaultSize = 140

// Split returns a lazy sequence of fragments of text. Words are accumulated
// greedily, each costing its rune length plus one separator, and the buffer
// is flushed before a word that would push it past size. A single word longer
// than size is emitted whole as its own fragment.
//
// Every fragment except the last ends with one space, so concatenating the
// fragments yields the words of text joined by single spaces.
//
// Each range over the returned sequence starts from the beginning; no state
// is shared between iterations. A size of zero or less uses DefaultSize.
func Split(text string, size int) iter.Seq[string] {
	if size <= 0 {
		size = DefaultSize
	}

	return func(yield func(string) bool) {
		var buf []string
		count := 0

		for _, word := range strings.Fields(text) {
			wl := utf8.RuneCountInString(word) + 1
			if len(buf) > 0 && count+wl > size {
				if !yield(strings.Join(buf, " ") + " ") {
					return
				}
				buf = buf[:0]
				count = 0
			}
			buf = append(buf, word)
			count += wl
		}

		if len(buf) > 0 {
			yield(strings.Join(buf, " "))
		}
	}
}

// Collect returns all fragments of Split(text, size) as a slice.
func Collect(text string, size int) []string {
	var out []string
	for frag := range Split(text, size) {
		out = append(out, frag)
	}
	return out
}
