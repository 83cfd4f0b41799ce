// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion performs the single model request of a narration turn.
//
// The request is atomic: the reply must satisfy a strict JSON schema, and a
// schema can only be enforced on a complete response. Presentation code
// chunks the finished reply afterwards.
//
// # Key Types
//
//   - Transport: Sends one Request to a model server (see internal/cloud and internal/ollama)
//   - Client: Audits, sends and recovers one turn
//   - Reply: Prompt, raw text and recovered payload of a turn
//   - Error: Typed failure with a Kind usable via errors.Is
//
// # Usage
//
//	client := completion.New(transport, auditLog, completion.Options{
//	    Model:  cfg.Model,
//	    Schema: schema,
//	})
//	reply, err := client.Complete(ctx, msgs)
//	if errors.Is(err, completion.ErrTransport) {
//	    // show the failure and keep the session going
//	}
package completion
