// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives narration turns in a local SQLite database.
//
// The archive is a record of what each turn saw and produced. It is
// written best-effort by the runtime: a failed insert is logged and never
// fails the turn.
//
// # Key Types
//
//   - Store: the turn archive backed by modernc.org/sqlite
//   - Turn: one archived turn with its window, payload and timing
//
// # Usage
//
//	store, err := storage.Open(filepath.Join(home, ".narrator", "turns.db"))
//	defer store.Close()
//
//	err = store.Record(ctx, turn)
//	recent, err := store.Recent(ctx, 10)
//	id, err := store.LatestSession(ctx)
//	turns, err := store.SessionTurns(ctx, id)
package storage
