// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the three-pane Bubble Tea interface.
package app

import (
	"github.com/jeranaias/zork-narrator/internal/game"
	"github.com/jeranaias/zork-narrator/internal/narrator"
)

// =============================================================================
// GAME MESSAGES
// =============================================================================

// GameBatchMsg delivers one batch of game output.
type GameBatchMsg struct {
	Batch game.Batch
}

// GameClosedMsg signals that the game source has no more output.
type GameClosedMsg struct{}

// =============================================================================
// RENDER MESSAGES
// =============================================================================

type renderOp int

const (
	renderStart renderOp = iota
	renderWrite
	renderFinalize
)

// renderMsg is one renderer call made on the turn goroutine.
type renderMsg struct {
	op   renderOp
	text string
}

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnDoneMsg reports a finished narration turn.
type TurnDoneMsg struct {
	Result *narrator.TurnResult
	Err    error
}

// sendErrMsg reports a command the game process refused.
type sendErrMsg struct {
	err error
}
