// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package companion prepares text-to-image scene prompts from narration payloads.
package companion

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/model"
)

// =============================================================================
// PROMPT BUNDLE
// =============================================================================

const (
	// DefaultStylePreset leads every scene prompt unless overridden.
	DefaultStylePreset = "monochrome ink illustration, retro text-adventure vibe, no UI chrome, no text overlays, avoid anachronisms"

	// NegativePromptBase lists what a scene image must never show.
	NegativePromptBase = "spoilers, puzzle solutions, inventory not visible, photorealism, modern devices, text overlays, disallowed content"

	// UnknownLocation is used when the payload carries no room path.
	UnknownLocation = "Unknown location"

	maxObjects = 3
	maxChanges = 2
)

// Payload keys read by BuildBundle.
const (
	KeyRoomPath    = "game-room-path"
	KeyLastObjects = "game-last-objects"
	KeyLastChanges = "game-last-changes"
	KeyIntent      = "game-intent"
)

// locationSeparators are tried in order; the first one present splits the path.
var locationSeparators = []string{"->", "→", "|", ","}

// bulletSeparators cut an item down to its name.
var bulletSeparators = []string{" — ", " - "}

// Bundle is a fully constructed scene prompt.
type Bundle struct {
	Prompt         string
	NegativePrompt string
	Seed           uint32
}

// Preview renders the bundle as a plain-text panel.
func (b Bundle) Preview() string {
	return fmt.Sprintf("Prompt:\n%s\n\nNegative Prompt:\n%s\n\nSeed: %d", b.Prompt, b.NegativePrompt, b.Seed)
}

// Options customize prompt construction.
type Options struct {
	// StylePreset replaces DefaultStylePreset when set.
	StylePreset string

	// NegativeExtra is appended to NegativePromptBase.
	NegativeExtra string
}

// BuildBundle derives the scene prompt for one turn. The same payload and
// turn always produce the same bundle.
func BuildBundle(p model.Payload, turn int, opts Options) Bundle {
	preset := strings.TrimSpace(opts.StylePreset)
	if preset == "" {
		preset = DefaultStylePreset
	}
	negative := NegativePromptBase
	if extra := strings.TrimSpace(opts.NegativeExtra); extra != "" {
		negative += ", " + extra
	}

	location := Location(p.String(KeyRoomPath))
	objects := bullets(p[KeyLastObjects], maxObjects)
	changes := bullets(p[KeyLastChanges], maxChanges)
	mood := strings.TrimSpace(p.String(KeyIntent))

	parts := []string{preset, "Scene: " + location}
	if len(objects) > 0 {
		parts = append(parts, "Objects in view: "+strings.Join(objects, ", "))
	}
	if len(changes) > 0 {
		parts = append(parts, "Recent changes: "+strings.Join(changes, ", "))
	}
	if mood != "" {
		parts = append(parts, "Mood: "+mood)
	}

	return Bundle{
		Prompt:         strings.Join(parts, ". "),
		NegativePrompt: negative,
		Seed:           Seed(location, turn),
	}
}

// Location returns the last non-empty segment of a room path such as
// "Forest -> Clearing -> Behind House".
func Location(roomPath string) string {
	roomPath = strings.TrimSpace(roomPath)
	if roomPath == "" {
		return UnknownLocation
	}
	for _, sep := range locationSeparators {
		if !strings.Contains(roomPath, sep) {
			continue
		}
		var last string
		for _, part := range strings.Split(roomPath, sep) {
			if part = strings.TrimSpace(part); part != "" {
				last = part
			}
		}
		if last != "" {
			return last
		}
	}
	return roomPath
}

// Seed is the first 32 bits of sha256("location|turn").
func Seed(location string, turn int) uint32 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", location, turn)))
	return binary.BigEndian.Uint32(sum[:4])
}

// bullets returns up to max item names from a payload array.
func bullets(v any, max int) []string {
	var items []string
	switch t := v.(type) {
	case []any:
		for _, raw := range t {
			items = append(items, fmt.Sprint(raw))
		}
	case []string:
		items = t
	default:
		return nil
	}

	var out []string
	for _, text := range items {
		text = strings.TrimSpace(text)
		for _, sep := range bulletSeparators {
			if i := strings.Index(text, sep); i >= 0 {
				text = strings.TrimSpace(text[:i])
				break
			}
		}
		if text != "" {
			out = append(out, text)
		}
		if len(out) >= max {
			break
		}
	}
	return out
}
