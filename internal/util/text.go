// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers shared across packages.
package util

import (
	"regexp"

	"github.com/mattn/go-runewidth"
)

// ansiRe matches CSI and OSC escape sequences.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// DisplayWidth returns the number of terminal cells s occupies, ignoring
// escape sequences. Wide (CJK, emoji) runes count as two cells.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}

// TruncateWidth shortens s to at most maxWidth cells, ending with "..."
// when anything was cut. Styled text that already fits is returned as is.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if DisplayWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
