// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers of the narrator.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags plus the command's own arguments
//   - ArgParser: Flag and positional parsing shared by every command
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdREPL:
//	    err = cli.HandleREPL(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - tui: Three-pane terminal interface (default)
//   - ask: One narration turn over a transcript file
//   - repl: Line-oriented session with a persistent history
//   - audit: Print the request/response audit log
//   - history: Print archived turns
//   - export: Write an archived session as Markdown or JSON
//   - art: ASCII-art panels of a transcript's scene or of each message
//   - config: Create, inspect and edit the config file
//   - version, help
package cli
