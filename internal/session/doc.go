// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state one narration session shares across components.
//
// A Session is created once per run and passed by reference. It is read by
// the UI goroutine, the turn goroutine and the scene companion, so every
// accessor locks, and payloads cross the boundary only as deep copies.
//
// # Usage
//
//	sess := session.New()
//	sess.Append("West of House", "> open mailbox")
//	window := sess.Window(40)
//	sess.StorePayload(reply.Payload)
//	turn := sess.NextTurn()
package session
