// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package art asks the model for an ASCII-art panel of the current scene.
//
// Drawing is a side request outside the narration turn: it sends free text
// (no schema), is not audited, and takes the art from the first fenced
// code block of the reply.
//
// # Key Types
//
//   - Artist: Sends scene or moment prompts through a completion.Transport
//   - Moment: One printed game message with the command that caused it
//
// # Usage
//
//	artist := art.New(transport, art.Options{Model: cfg.Model})
//	drawing, err := artist.Draw(ctx, art.Scene(lines, cfg.MaxLogLines))
//	if err == nil {
//	    fmt.Print(art.Render(drawing, termenv.ColorProfile()))
//	}
package art
