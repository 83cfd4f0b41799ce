// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package narrator assembles the narration runtime from a configuration.
//
// A Runtime owns every long-lived piece of a session: the model transport,
// the audit log, the completion client, the prompt builder, the session
// state, the turn archive, the scene companion and the speech observer.
// Front ends (the TUI, the REPL and the one-shot ask command) feed it game
// lines and ask it for turns; they never touch those parts directly.
//
// # Key Types
//
//   - Runtime: the assembled runtime, one per session
//   - TurnResult: what one narration turn produced
//   - Option: overrides used by tests and the CLI
//
// # Usage
//
//	rt, err := narrator.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	rt.Feed("West of House", "> open mailbox", "Opening the small mailbox reveals a leaflet.")
//	result, err := rt.Turn(ctx, renderer)
package narrator
