// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives narration turns in a local SQLite database.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/zork-narrator/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "turns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	first := Turn{
		SessionID: "s1",
		Number:    1,
		Window:    []string{"West of House", "> open mailbox"},
		Narration: "The mailbox creaks open.",
		Payload:   model.Payload{"narration": "The mailbox creaks open.", "game-last-objects": []any{"leaflet"}},
		Raw:       `{"narration":"The mailbox creaks open."}`,
		Started:   base,
		Duration:  1500 * time.Millisecond,
	}
	second := Turn{
		SessionID: "s1",
		Number:    2,
		Window:    []string{"> north"},
		Err:       "transport: connection refused",
		Started:   base.Add(time.Minute),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	turns, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Newest first.
	assert.Equal(t, 2, turns[0].Number)
	assert.Equal(t, "transport: connection refused", turns[0].Err)
	assert.Nil(t, turns[0].Payload)

	got := turns[1]
	assert.NotEmpty(t, got.ID, "missing IDs are generated")
	assert.Equal(t, first.Window, got.Window)
	assert.Equal(t, first.Narration, got.Narration)
	assert.Equal(t, first.Raw, got.Raw)
	assert.Equal(t, []string{"leaflet"}, got.Payload.Strings("game-last-objects"))
	assert.Equal(t, first.Duration, got.Duration)
	assert.True(t, got.Started.Equal(base), "Started = %v, want %v", got.Started, base)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 2, limited[0].Number)
}

func TestReopenKeepsTurns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Turn{ID: "t1", SessionID: "s", Number: 1, Narration: "x"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Duplicate IDs are rejected.
	assert.Error(t, s.Record(ctx, Turn{ID: "t1", SessionID: "s", Number: 2}))
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.True(t, errors.Is(s.Record(ctx, Turn{}), ErrClosed))
	_, err := s.Recent(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionTurns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LatestSession(ctx)
	assert.ErrorIs(t, err, ErrNoSessions)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.Record(ctx, Turn{SessionID: "a", Number: 2, Narration: "second", Started: base.Add(time.Second)}))
	require.NoError(t, s.Record(ctx, Turn{SessionID: "a", Number: 1, Narration: "first", Started: base}))
	require.NoError(t, s.Record(ctx, Turn{SessionID: "b", Number: 1, Narration: "other", Started: base.Add(time.Minute)}))

	turns, err := s.SessionTurns(ctx, "a")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Narration)
	assert.Equal(t, "second", turns[1].Narration)

	none, err := s.SessionTurns(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	latest, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", latest)
}
