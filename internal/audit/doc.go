// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records every prompt sent to the model and the payload recovered from it.
//
// The log is newline-delimited JSON. Each line is either {"request": [...]}
// or {"response": {...}}, and every response line follows the request line of
// its turn. The file is truncated when a session opens it, and every line is
// synced to disk before the write returns.
//
// # Usage
//
//	log, err := audit.Open(audit.DefaultPath(cfg.LogDir))
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
package audit
