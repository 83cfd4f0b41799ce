// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Print archived narration turns.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/zork-narrator/internal/storage"
	"github.com/jeranaias/zork-narrator/internal/util"
)

// defaultHistoryLimit is how many turns history shows without --limit.
const defaultHistoryLimit = 10

// historyEntry is the --json form of one archived turn.
type historyEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Number    int       `json:"turn"`
	Narration string    `json:"narration"`
	Error     string    `json:"error,omitempty"`
	Started   time.Time `json:"started"`
	Millis    int64     `json:"duration_ms"`
	Window    []string  `json:"window"`
}

// HandleHistory runs "narrator history".
func HandleHistory(args Args) error {
	p := args.Parser("json")

	limit := defaultHistoryLimit
	if raw := p.Flag("limit"); raw != "" {
		n, err := ParseIntWithValidation(raw, "--limit")
		if err != nil {
			return NewUsageError(err.Error(), "narrator history --limit 5")
		}
		limit = n
	}

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StoreFilePath())
	if err != nil {
		return NewCommandError("history", "open", cfg.StoreFilePath(), err)
	}
	defer store.Close()

	turns, err := store.Recent(context.Background(), limit)
	if err != nil {
		return NewCommandError("history", "query", cfg.StoreFilePath(), err)
	}

	if p.BoolFlag("json") {
		out := make([]historyEntry, len(turns))
		for i, t := range turns {
			out[i] = historyEntry{
				ID:        t.ID,
				SessionID: t.SessionID,
				Number:    t.Number,
				Narration: t.Narration,
				Error:     t.Err,
				Started:   t.Started,
				Millis:    t.Duration.Milliseconds(),
				Window:    t.Window,
			}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	if len(turns) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No archived turns yet."))
		return nil
	}

	width := GetTerminalWidth() - 16
	for _, t := range turns {
		fmt.Fprintln(stdout, RenderSeparator())
		fmt.Fprintln(stdout, RenderField("When", t.Started.Local().Format("2006-01-02 15:04:05")))
		fmt.Fprintln(stdout, RenderField("Session", fmt.Sprintf("%s #%d", shortID(t.SessionID), t.Number)))
		fmt.Fprintln(stdout, RenderField("Took", t.Duration.Round(time.Millisecond).String()))
		if t.Err != "" {
			fmt.Fprintln(stdout, RenderField("Error", ErrorStyle.Render(util.TruncateWidth(t.Err, width))))
			continue
		}
		fmt.Fprintln(stdout, RenderField("Narration", util.TruncateWidth(t.Narration, width)))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
