// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes archived narration sessions to shareable files.
//
// A session is every turn the narrator archived under one session id. The
// exporters turn it into a readable play log or a machine-readable dump.
//
// # Key Types
//
//   - Session: The turns of one session, oldest first
//   - Exporter: Format-specific renderer
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - Markdown: Play log with the game excerpt and narration of each turn
//   - JSON: Complete turn records including the structured payload
//
// # Usage
//
//	turns, _ := store.SessionTurns(ctx, id)
//	exporter, _ := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(export.NewSession(id, turns), exporter, nil)
package export
