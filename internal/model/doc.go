// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the narration pipeline.
//
// This package defines the small value types that flow between the prompt
// builder, the completion client, payload recovery and the renderers.
//
// # Key Types
//
//   - Message: One prompt message (system or user) with role and content
//   - Role: Message role enumeration (system, user)
//   - Payload: Structured model reply; always carries a string "narration"
//
// # Usage
//
// Build prompt messages:
//
//	msgs := []model.Message{
//	    model.NewSystemMessage(system),
//	    model.NewUserMessage(user),
//	}
//
// Read a recovered payload:
//
//	p := recovery.Recover(raw)
//	fmt.Println(p.Narration())
package model
