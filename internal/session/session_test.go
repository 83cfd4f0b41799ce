// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state one narration session shares across components.
package session

import (
	"sync"
	"testing"

	"github.com/jeranaias/zork-narrator/internal/model"
)

func TestNewSessionHasID(t *testing.T) {
	a, b := New(), New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs = %q, %q; want distinct non-empty", a.ID(), b.ID())
	}
}

func TestWindow(t *testing.T) {
	s := New()
	s.Append("a", "b")
	s.Append("c")
	s.Append()

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"b", "c"}},
		{10, []string{"a", "b", "c"}},
		{0, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		got := s.Window(tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("Window(%d) = %v, want %v", tt.n, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Window(%d)[%d] = %q, want %q", tt.n, i, got[i], tt.want[i])
			}
		}
	}

	w := s.Window(3)
	w[0] = "mutated"
	if s.Window(3)[0] != "a" {
		t.Error("Window returned an alias of the transcript")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestPayloadCopies(t *testing.T) {
	s := New()
	if _, ok := s.LastPayload(); ok {
		t.Fatal("new session should have no payload")
	}

	p := model.Payload{"narration": "x", "game-last-objects": []any{"lamp"}}
	s.StorePayload(p)

	// Mutating the stored argument does not leak in.
	p["narration"] = "changed"
	p["game-last-objects"].([]any)[0] = "sword"

	got, ok := s.LastPayload()
	if !ok {
		t.Fatal("LastPayload() ok = false")
	}
	if got.Narration() != "x" || got.Strings("game-last-objects")[0] != "lamp" {
		t.Errorf("stored payload changed through caller alias: %v", got)
	}

	// Mutating the returned copy does not leak back.
	got["narration"] = "changed"
	again, _ := s.LastPayload()
	if again.Narration() != "x" {
		t.Error("LastPayload returned a live alias")
	}
}

func TestTurnCounter(t *testing.T) {
	s := New()
	if s.NextTurn() != 1 || s.NextTurn() != 2 {
		t.Error("NextTurn should count from 1")
	}
	if s.Turn() != 2 {
		t.Errorf("Turn() = %d, want 2", s.Turn())
	}
	s.ResetTurns()
	if s.NextTurn() != 1 {
		t.Error("ResetTurns should restart the counter")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.NextTurn()
		}()
		go func() {
			defer wg.Done()
			s.StorePayload(model.NewPayload("n"))
			s.LastPayload()
		}()
		go func() {
			defer wg.Done()
			s.Append("line")
			s.Window(5)
		}()
	}
	wg.Wait()

	if s.Turn() != 50 {
		t.Errorf("Turn() = %d, want 50", s.Turn())
	}
	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
