// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package art

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Title heads every rendered panel.
const Title = "Zork ASCII Art"

// palette colors successive art rows, cycling. ANSI indexes: bright cyan,
// bright blue, bright magenta, bright yellow, bright green, then the
// normal cyan, magenta, yellow, green and white.
var palette = []lipgloss.Color{"14", "12", "13", "11", "10", "6", "5", "3", "2", "7"}

// Render frames the drawing in a titled panel, one palette color per row.
// The profile decides how much color survives; termenv.Ascii renders none.
func Render(drawing string, profile termenv.Profile) string {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)

	rows := strings.Split(strings.ReplaceAll(drawing, "\r\n", "\n"), "\n")
	for i, row := range rows {
		style := r.NewStyle().Foreground(palette[i%len(palette)])
		if i == 0 {
			style = style.Bold(true)
		}
		rows[i] = style.Render(row)
	}

	title := r.NewStyle().Bold(true).Foreground(palette[0]).Render(Title)
	panel := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(palette[0]).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
	return title + "\n" + panel + "\n"
}
