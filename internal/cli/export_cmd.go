// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Export an archived session as Markdown or JSON.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/export"
	"github.com/jeranaias/zork-narrator/internal/storage"
)

var errUnknownSession = errors.New("no archived session matches")

// HandleExport runs "narrator export".
func HandleExport(args Args) error {
	p := args.Parser("no-transcript")

	sessionID := p.Flag("session")
	if sessionID == "" {
		sessionID = p.Positional(0)
	}

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("dir", ".")
	opts.IncludeTranscript = !p.BoolFlag("no-transcript")

	exporter, err := export.ForFormat(p.FlagOrDefault("format", "md"), opts)
	if err != nil {
		return NewUsageError(err.Error(), "narrator export --format json")
	}

	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StoreFilePath())
	if err != nil {
		return NewCommandError("export", "open", cfg.StoreFilePath(), err)
	}
	defer store.Close()

	ctx := context.Background()
	session, err := loadSession(ctx, store, sessionID)
	if err != nil {
		return err
	}

	output := p.Flag("output")
	if output == "" {
		path, err := export.ExportToFile(session, exporter, opts)
		if err != nil {
			return NewCommandError("export", "write", opts.OutputDir, err)
		}
		fmt.Fprintf(stdout, "Exported %d turns of session %s to %s\n",
			len(session.Turns), shortID(session.ID), path)
		return nil
	}

	content, err := exporter.Export(session)
	if err != nil {
		return NewCommandError("export", "render", session.ID, err)
	}
	if output == "-" {
		_, err := stdout.Write(content)
		return err
	}
	if err := os.WriteFile(output, content, 0644); err != nil {
		return NewCommandError("export", "write", output, err)
	}
	fmt.Fprintf(stdout, "Exported %d turns of session %s to %s\n",
		len(session.Turns), shortID(session.ID), output)
	return nil
}

// loadSession reads a session by id or unique id prefix. An empty id
// selects the latest session.
func loadSession(ctx context.Context, store *storage.Store, id string) (*export.Session, error) {
	if id == "" {
		latest, err := store.LatestSession(ctx)
		if err != nil {
			return nil, err
		}
		id = latest
	}

	turns, err := store.SessionTurns(ctx, id)
	if err != nil {
		return nil, NewCommandError("export", "query", id, err)
	}
	if len(turns) > 0 {
		return export.NewSession(id, turns), nil
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		return nil, NewCommandError("export", "query", id, err)
	}
	var match string
	for _, t := range all {
		if !strings.HasPrefix(t.SessionID, id) || t.SessionID == match {
			continue
		}
		if match != "" {
			return nil, NewUsageError(fmt.Sprintf("session prefix %q is ambiguous", id), "narrator history")
		}
		match = t.SessionID
	}
	if match == "" {
		return nil, fmt.Errorf("%w %q", errUnknownSession, id)
	}

	turns, err = store.SessionTurns(ctx, match)
	if err != nil {
		return nil, NewCommandError("export", "query", match, err)
	}
	return export.NewSession(match, turns), nil
}
