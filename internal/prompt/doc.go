// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the two-message model prompt from a transcript window.
//
// Only the trailing MaxLogLines of the window are used. The system prompt is
// resolved once, with the response schema embedded, and reused every turn.
//
// # Usage
//
//	b := prompt.Builder{
//	    SystemPrompt: prompt.ResolveSystemPrompt(cfg.SystemPrompt, schema),
//	    UserTemplate: cfg.UserPromptTemplate,
//	    MaxLogLines:  cfg.MaxLogLines,
//	}
//	msgs, err := b.Build(sess.Window(cfg.MaxLogLines))
package prompt
