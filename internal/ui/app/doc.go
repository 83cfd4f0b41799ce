// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
//
// The screen is split into the game pane ("Zork Output") on the left, the
// narration pane ("AI Output") on the right and a prompt pane along the
// bottom. Game output arrives as batches from a game source and is appended
// to the game pane and the session transcript. Each batch can trigger a
// narration turn, which streams into the narration pane.
//
// # Threading
//
// Narration turns run inside a tea.Cmd goroutine. The renderer handed to
// the turn does not touch the panes; it posts every Start, Write and
// Finalize to the program as a message, so the Update loop applies them in
// order on the UI goroutine and a redraw never sees half a chunk.
//
// # Key Types
//
//   - Model: the Bubble Tea model
//   - Options: theme, game source and narration behavior
//   - Narrator: what the model needs from the narration runtime
//   - GameSource / CommandSink: where game lines come from and commands go
//
// # Usage
//
//	m := app.New(rt, app.Options{Theme: styles.NewTheme(cfg.UI.Theme), Source: proc, AutoNarrate: true})
//	err := app.Run(ctx, m)
package app
