// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives narration turns in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("turn archive closed")
	ErrSchemaVersion = errors.New("unsupported archive schema version")
	ErrNoSessions    = errors.New("no archived sessions")
)

// =============================================================================
// TURN
// =============================================================================

// Turn is one archived narration turn.
type Turn struct {
	ID        string
	SessionID string
	Number    int

	// Window is the transcript excerpt the prompt was built from.
	Window []string

	Narration string
	Payload   model.Payload
	Raw       string
	Err       string

	Started  time.Time
	Duration time.Duration
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite turn archive. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the archive at path and migrates its schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	if _, err := s.db.Exec(InitMetadata); err != nil {
		return err
	}

	var raw string
	if err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&raw); err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version > SchemaVersion {
		return fmt.Errorf("%w: %q", ErrSchemaVersion, raw)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one turn. A missing ID is generated.
func (s *Store) Record(ctx context.Context, t Turn) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Started.IsZero() {
		t.Started = time.Now()
	}

	window, err := json.Marshal(t.Window)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	var payload sql.NullString
	if t.Payload != nil {
		text, err := t.Payload.JSON()
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		payload = sql.NullString{String: string(text), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, number, transcript, narration, payload, raw, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Number, string(window), t.Narration, payload,
		nullIfEmpty(t.Raw), nullIfEmpty(t.Err), t.Started.UnixNano(), t.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Recent returns up to limit turns, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, number, transcript, narration, payload, raw, error, started_at, duration_ms
		FROM turns
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SessionTurns returns every turn of one session, oldest first.
func (s *Store) SessionTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, number, transcript, narration, payload, raw, error, started_at, duration_ms
		FROM turns
		WHERE session_id = ?
		ORDER BY number ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// LatestSession returns the session id of the most recently archived turn.
// It returns ErrNoSessions when the archive is empty.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id FROM turns ORDER BY started_at DESC, rowid DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSessions
	}
	if err != nil {
		return "", fmt.Errorf("latest session: %w", err)
	}
	return id, nil
}

// Count returns the number of archived turns.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&n); err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanTurn(rows *sql.Rows) (Turn, error) {
	var (
		t          Turn
		window     string
		payload    sql.NullString
		raw        sql.NullString
		errText    sql.NullString
		startedAt  int64
		durationMs int64
	)
	if err := rows.Scan(&t.ID, &t.SessionID, &t.Number, &window, &t.Narration,
		&payload, &raw, &errText, &startedAt, &durationMs); err != nil {
		return Turn{}, fmt.Errorf("scan turn: %w", err)
	}

	if err := json.Unmarshal([]byte(window), &t.Window); err != nil {
		return Turn{}, fmt.Errorf("decode window of turn %s: %w", t.ID, err)
	}
	if payload.Valid {
		var p model.Payload
		if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
			return Turn{}, fmt.Errorf("decode payload of turn %s: %w", t.ID, err)
		}
		t.Payload = p
	}
	t.Raw = raw.String
	t.Err = errText.String
	t.Started = time.Unix(0, startedAt)
	t.Duration = time.Duration(durationMs) * time.Millisecond
	return t, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
