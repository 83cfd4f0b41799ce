// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives narration turns in a local SQLite database.
package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the turn archive.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    transcript TEXT NOT NULL,   -- JSON array of window lines
    narration TEXT NOT NULL,
    payload TEXT,               -- recovered payload as JSON
    raw TEXT,                   -- reply text before recovery
    error TEXT,
    started_at INTEGER NOT NULL, -- Unix nanoseconds
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, number);
CREATE INDEX IF NOT EXISTS idx_turns_started ON turns(started_at);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
