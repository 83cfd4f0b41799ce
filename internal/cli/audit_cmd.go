// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - Print the request/response audit log.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jeranaias/zork-narrator/internal/audit"
	"github.com/jeranaias/zork-narrator/internal/model"
)

// HandleAudit runs "narrator audit".
func HandleAudit(args Args) error {
	p := args.Parser("json")

	path := p.Flag("path")
	if path == "" {
		cfg, _, err := loadConfig(args)
		if err != nil {
			return err
		}
		path = audit.DefaultPath(cfg.LogDirPath())
	}

	entries, err := audit.ReadEntries(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(stdout, DimStyle.Render("No audit log at "+path))
			return nil
		}
		return NewCommandError("audit", "read", path, err)
	}

	pairs := audit.Pairs(entries)
	if limit := p.FlagIntOrDefault("limit", 0); limit > 0 && len(pairs) > limit {
		pairs = pairs[len(pairs)-limit:]
	}

	if p.BoolFlag("json") {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(pairs)
	}

	fmt.Fprintln(stdout, TitleStyle.Render(fmt.Sprintf("Audit log %s (%d turns)", path, len(pairs))))
	for i, pair := range pairs {
		printPair(i+1, pair)
	}
	return nil
}

func printPair(n int, pair audit.Pair) {
	fmt.Fprintln(stdout, RenderSeparator())
	fmt.Fprintln(stdout, RenderField("Turn", fmt.Sprintf("%d", n)))

	for _, m := range pair.Request {
		if m.Role != model.RoleUser {
			continue
		}
		fmt.Fprintln(stdout, RenderField("Prompt", firstLine(m.Content)))
		fmt.Fprintln(stdout, RenderField("Prompt size", fmt.Sprintf("%d chars", len(m.Content))))
	}

	if !pair.Answered {
		fmt.Fprintln(stdout, WarningStyle.Render("(no response recorded)"))
		return
	}
	fmt.Fprintln(stdout, RenderField("Narration", WrapField(pair.Response.Narration())))
	if extra := len(pair.Response) - 1; extra > 0 {
		fmt.Fprintln(stdout, RenderField("Other keys", fmt.Sprintf("%d", extra)))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
