// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the transport for OpenAI-compatible chat completion servers.
//
// Requests are always atomic and carry a strict json_schema response
// format named after the reply schema. The generation cap maps to
// max_tokens and is omitted unless positive.
//
// # Usage
//
//	client := cloud.NewClient(cfg.APIKey).
//	    WithBaseURL(cfg.BaseURL).
//	    WithModel(cfg.Model)
//	c := completion.New(client, auditLog, opts)
package cloud
