// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP transport for the Ollama native chat API.
//
// Requests are always non-streaming. The response schema is sent as the
// "format" field, which makes Ollama constrain generation to it, and the
// generation cap maps to options.num_predict.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      cfg.BaseURL,
//	    DefaultModel: cfg.Model,
//	})
//	c := completion.New(client, auditLog, opts)
package ollama
