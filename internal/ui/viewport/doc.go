// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewport keeps pane logs and selects the part of each that fits on screen.
//
// A Pane is an append-only log of lines. On every draw, Fit walks the log
// backward from the newest line, summing the number of terminal rows each
// line occupies once wrapped to the pane width, and stops before the first
// line that would overflow the row budget. The log itself is never
// trimmed; only the visible window changes.
//
// Renderer adapts a Pane to the stream.Renderer contract so a narration
// turn can be streamed into it.
//
// # Key Types
//
//   - Pane: append-only line log with Fit
//   - Window: the visible trailing slice of a pane
//   - Renderer: stream.Renderer that writes into a Pane
//
// # Usage
//
//	pane := viewport.NewPane("AI Output")
//	r := viewport.NewRenderer(pane)
//	ctrl := stream.New(r, stream.Options{ShowSeparator: true})
//
//	win := pane.Fit(contentWidth, bodyHeight)
//	fmt.Println(win.String())
package viewport
