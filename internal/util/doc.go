// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers shared across packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file replacement (temp file, fsync, rename)
//   - StripANSI: removes terminal escape sequences
//   - DisplayWidth / TruncateWidth: terminal-cell aware string measurement
package util
