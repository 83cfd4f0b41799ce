// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package companion prepares text-to-image scene prompts from narration payloads.
package companion

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/zork-narrator/internal/model"
	"github.com/jeranaias/zork-narrator/internal/session"
)

// =============================================================================
// BUNDLE
// =============================================================================

func scenePayload() model.Payload {
	return model.Payload{
		"narration":         "The lamp flickers.",
		"game-room-path":    "Forest -> Clearing -> Behind House",
		"game-last-objects": []any{"brass lantern — lit", "kitchen window - ajar", "sack", "bottle"},
		"game-last-changes": []any{"window opened", "lamp lit", "sack moved"},
		"game-intent":       "cautious exploration",
	}
}

func TestBuildBundle(t *testing.T) {
	b := BuildBundle(scenePayload(), 3, Options{})

	want := DefaultStylePreset +
		". Scene: Behind House" +
		". Objects in view: brass lantern, kitchen window, sack" +
		". Recent changes: window opened, lamp lit" +
		". Mood: cautious exploration"
	assert.Equal(t, want, b.Prompt)
	assert.Equal(t, NegativePromptBase, b.NegativePrompt)
	assert.Equal(t, Seed("Behind House", 3), b.Seed)
}

func TestBuildBundleDeterministic(t *testing.T) {
	a := BuildBundle(scenePayload(), 7, Options{})
	b := BuildBundle(scenePayload(), 7, Options{})
	assert.Equal(t, a, b)

	c := BuildBundle(scenePayload(), 8, Options{})
	assert.NotEqual(t, a.Seed, c.Seed)
}

func TestBuildBundleOptionsAndSparsePayload(t *testing.T) {
	b := BuildBundle(model.NewPayload("x"), 1, Options{StylePreset: "watercolor", NegativeExtra: "gore"})

	assert.Equal(t, "watercolor. Scene: Unknown location", b.Prompt)
	assert.Equal(t, NegativePromptBase+", gore", b.NegativePrompt)
}

func TestLocation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", UnknownLocation},
		{"West of House", "West of House"},
		{"Forest → Clearing", "Clearing"},
		{"Cellar | Troll Room |", "Troll Room"},
		{"Attic, Kitchen", "Kitchen"},
		{"A -> B | C", "B | C"},
	}
	for _, tt := range tests {
		if got := Location(tt.in); got != tt.want {
			t.Errorf("Location(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeedMatchesDigestPrefix(t *testing.T) {
	sum := sha256.Sum256([]byte("Behind House|1"))
	want, err := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 32)
	require.NoError(t, err)
	assert.Equal(t, uint32(want), Seed("Behind House", 1))
}

// =============================================================================
// MAILBOX
// =============================================================================

type recordingSurface struct {
	mu       sync.Mutex
	events   []string
	closed   bool
	block    chan struct{}
	panicked bool
}

func (s *recordingSurface) SetStatus(status string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "status:"+status)
	return nil
}

func (s *recordingSurface) ShowPrompt(b Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(b.Prompt, "panic") && !s.panicked {
		s.panicked = true
		panic("surface exploded")
	}
	s.events = append(s.events, "prompt:"+b.Prompt)
	return nil
}

func (s *recordingSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSurface) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func TestCompanionAppliesInOrderAndDrainsOnClose(t *testing.T) {
	surface := &recordingSurface{}
	c := New(surface, Config{PollInterval: time.Hour})

	c.ShowPrompt(Bundle{Prompt: "one"})
	c.SetStatus("two")
	c.ShowPrompt(Bundle{Prompt: "three"})

	// The poll interval never fires; Close alone must drain the mailbox.
	require.NoError(t, c.Close())

	assert.Equal(t, []string{
		"status:" + statusAwait,
		"prompt:one",
		"status:two",
		"prompt:three",
	}, surface.snapshot())
	assert.True(t, surface.closed)

	assert.False(t, c.SetStatus("late"), "posts after Close are rejected")
	assert.NoError(t, c.Close(), "Close is idempotent")
}

func TestCompanionPollDrainsEverything(t *testing.T) {
	surface := &recordingSurface{}
	c := New(surface, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.SetStatus("s")
	}

	require.Eventually(t, func() bool {
		return len(surface.snapshot()) == 6
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCompanionDropsWhenFull(t *testing.T) {
	surface := &recordingSurface{block: make(chan struct{})}
	c := New(surface, Config{MailboxSize: 2, PollInterval: time.Millisecond})

	// The goroutine blocks on the first status; fill the mailbox behind it.
	require.Eventually(t, func() bool { return len(c.mailbox) == 0 }, time.Second, time.Millisecond)

	posted := 0
	for i := 0; i < 10; i++ {
		if c.SetStatus("x") {
			posted++
		}
	}
	assert.Equal(t, 2, posted)
	assert.Equal(t, int64(8), c.Dropped())

	close(surface.block)
	require.NoError(t, c.Close())
}

func TestCompanionSurvivesSurfacePanic(t *testing.T) {
	surface := &recordingSurface{}
	c := New(surface, Config{PollInterval: time.Hour})

	c.ShowPrompt(Bundle{Prompt: "panic"})
	c.ShowPrompt(Bundle{Prompt: "after"})
	require.NoError(t, c.Close())

	assert.Contains(t, surface.snapshot(), "prompt:after")
}

func TestCompanionCloseTimeout(t *testing.T) {
	surface := &recordingSurface{block: make(chan struct{})}
	defer close(surface.block)

	c := New(surface, Config{PollInterval: time.Millisecond})
	require.Eventually(t, func() bool { return len(c.mailbox) == 0 }, time.Second, time.Millisecond)

	start := time.Now()
	assert.ErrorIs(t, c.Close(), ErrJoinTimeout)
	assert.Less(t, time.Since(start), JoinTimeout+time.Second)
}

func TestSceneReady(t *testing.T) {
	surface := &recordingSurface{}
	c := New(surface, Config{PollInterval: time.Hour})
	sess := session.New()

	_, ok := c.SceneReady(sess)
	assert.False(t, ok)
	assert.Equal(t, 0, sess.Turn(), "no payload leaves the counter alone")

	sess.StorePayload(scenePayload())
	b, ok := c.SceneReady(sess)
	require.True(t, ok)
	assert.Equal(t, 1, sess.Turn())
	assert.Equal(t, BuildBundle(scenePayload(), 1, Options{}), b)

	require.NoError(t, c.Close())
	assert.Equal(t, []string{
		"status:" + statusAwait,
		"status:" + statusWaiting,
		"prompt:" + b.Prompt,
		"status:" + statusReady,
	}, surface.snapshot())
}

func TestFileSurface(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.txt")
	s := NewFileSurface(path)

	require.NoError(t, s.SetStatus("Waiting"))
	require.NoError(t, s.ShowPrompt(Bundle{Prompt: "p", NegativePrompt: "n", Seed: 42}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Waiting")
	assert.Contains(t, text, "Prompt:\np\n\nNegative Prompt:\nn\n\nSeed: 42")
	assert.NoError(t, s.Close())
}
