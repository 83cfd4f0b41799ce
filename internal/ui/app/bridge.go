// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// bridge is the stream.Renderer handed to narration turns. It forwards each
// call to the program as a renderMsg. Until a program is attached, calls
// are dropped.
type bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *bridge) post(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// Start implements stream.Renderer.
func (b *bridge) Start(separator string) {
	b.post(renderMsg{op: renderStart, text: separator})
}

// Write implements stream.Renderer.
func (b *bridge) Write(chunk string) {
	b.post(renderMsg{op: renderWrite, text: chunk})
}

// Finalize implements stream.Renderer.
func (b *bridge) Finalize(full string) {
	b.post(renderMsg{op: renderFinalize, text: full})
}
