// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings of the interface.
type KeyMap struct {
	Submit  key.Binding
	Narrate key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send command"),
		),
		Narrate: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "narrate now"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("C-c/esc", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Narrate, k.Quit}
}
