// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
package viewport

import (
	"strings"

	"github.com/charmbracelet/x/cellbuf"
)

// =============================================================================
// ROW MEASUREMENT
// =============================================================================

// tabWidth matches the tab expansion lipgloss applies before wrapping.
const tabWidth = 4

// RowCount returns how many terminal rows line occupies when a pane renders
// it at width. An empty line still takes one row. A width <= 0 yields 0.
func RowCount(line string, width int) int {
	if width <= 0 {
		return 0
	}
	return strings.Count(Wrap(line, width), "\n") + 1
}

// Wrap breaks line into rows of at most width cells exactly as a lipgloss
// style of that content width does: words wrap at spaces, an over-long word
// is split and the words after it continue on its last row. Escape
// sequences take no width.
func Wrap(line string, width int) string {
	line = strings.ReplaceAll(line, "\r\n", "\n")
	line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
	return cellbuf.Wrap(line, width, "")
}

// SelectTrailing returns the start index of the longest suffix of rows
// whose sum is at most height. It walks backward from the newest entry and
// stops before the first one that would overflow, so rows[start-1] (when it
// exists) does not fit in what remains.
func SelectTrailing(rows []int, height int) int {
	if height <= 0 {
		return len(rows)
	}

	used := 0
	for i := len(rows) - 1; i >= 0; i-- {
		if used+rows[i] > height {
			return i + 1
		}
		used += rows[i]
	}
	return 0
}
