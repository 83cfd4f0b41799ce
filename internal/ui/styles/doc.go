// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the narrator TUI.
//
// Colors are Lip Gloss AdaptiveColors so the same palette reads on light
// and dark terminals. A Theme bundles the pane, title, prompt and status
// styles the app draws with.
//
// # Themes
//
//   - "default": green game pane, cyan AI pane, magenta prompt
//   - "mono": borders and text without color
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	box := theme.ZorkPane.Width(w).Height(h).Render(content)
package styles
