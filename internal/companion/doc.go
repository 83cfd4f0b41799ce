// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package companion prepares text-to-image scene prompts from narration payloads.
//
// After each turn the runtime asks the companion for a scene prompt. The
// prompt is derived deterministically from the structured payload (room
// path, visible objects, recent changes, intent) and the turn number, and
// handed to a Surface that presents it. Image generation itself is out of
// scope; the surface shows what would be sent.
//
// The Companion owns its Surface on a separate goroutine. Callers post
// messages into a bounded mailbox and never block: when the mailbox is
// full the message is dropped and counted.
//
// # Key Types
//
//   - Bundle: prompt, negative prompt and seed for one scene
//   - Companion: mailbox goroutine driving a Surface
//   - Surface: presentation target (FileSurface, NopSurface)
//
// # Usage
//
//	c := companion.New(companion.NewFileSurface("scene.txt"), companion.Options{})
//	defer c.Close()
//
//	sess.StorePayload(reply.Payload)
//	c.SceneReady(sess)
package companion
