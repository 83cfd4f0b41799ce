// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package game supplies transcript lines from a running or recorded game.
//
// Three sources are supported:
//
//   - Recorded transcripts, either plain text or the player's JSONL format
//     ({"message": cmd, "printed_messages": [[text, source], ...]}).
//   - A Follower that tails a transcript file while another program
//     writes it.
//   - A Process that drives an interactive interpreter over pipes.
//
// # Key Types
//
//   - Entry: one command or printed text from a JSONL record
//   - Batch: the lines produced by one record or one burst of output
//   - Follower: fsnotify-based tail of a transcript file
//   - Process: interpreter subprocess with debounced output
//
// # Usage
//
//	lines, err := game.ReadFile("session.jsonl")
//
//	p, err := game.StartProcess(ctx, "dfrotz zork1.z5", game.DefaultSettle)
//	defer p.Close()
//	p.Send("open mailbox")
//	batch := <-p.Batches()
package game
