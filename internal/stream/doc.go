// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one narration turn from a chunk source into a renderer.
//
// The model call behind a turn is atomic. "Streaming" is a synchronous
// pipeline: recover the payload, chunk the display text, forward each chunk.
// The Controller guarantees the renderer sees Start, the chunks in order,
// and exactly one Finalize on every exit path.
//
// # Key Types
//
//   - Renderer: Start/Write/Finalize presentation contract
//   - Source: Produces a Stream of chunks for a transcript window
//   - Controller: Runs one turn at a time and tracks the block State
//   - NarrationSource: JSON-aware source backed by a completion client
//   - TextSource: Degraded source over a fixed text
//   - Paced: Rate-limits any source
//   - NullRenderer, WriterRenderer: Renderer variants
//
// # Usage
//
//	ctrl := stream.New(renderer, stream.Options{ShowSeparator: true})
//	full, err := ctrl.Run(ctx, &stream.NarrationSource{
//	    Client:              client,
//	    Builder:             builder,
//	    StreamOnlyNarration: true,
//	}, sess.Window(builder.MaxLogLines))
package stream
