// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command dispatch, global flags and help text for the narrator.

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output streams. Tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdREPL
	CmdAudit
	CmdHistory
	CmdExport
	CmdArt
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"ask":     CmdAsk,
	"repl":    CmdREPL,
	"audit":   CmdAudit,
	"history": CmdHistory,
	"export":  CmdExport,
	"art":     CmdArt,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Verbose    bool

	// Name is the command word as typed, "" for the default command.
	Name string

	// Rest are the arguments after the command word, global flags removed.
	Rest []string
}

// Parser parses the command's own arguments. boolNames lists the
// command's value-less flags.
func (a Args) Parser(boolNames ...string) *ArgParser {
	return NewArgParser(a.Rest, boolNames...)
}

const usageText = `narrator - AI narration for classic text adventures

Usage:
  narrator [tui]                    Start the three-pane interface (default)
    --game "CMD"                    Run the game as a subprocess (e.g. "dfrotz zork1.z5")
    --follow FILE                   Follow a transcript file (.jsonl or plain text)
  narrator ask --transcript FILE    Narrate once over a transcript
    --markdown                      Render the narration as Markdown
    --json                          Print the full reply as JSON
    --dry-run                       Print the prompt without calling the model
  narrator repl                     Type game lines; :n narrates, :q quits
  narrator audit [--path FILE]      Show request/response pairs from the audit log
    --limit N                       Show only the last N pairs
  narrator history [--limit N]      Show archived turns (default 10)
  narrator export [--session ID]    Export a session (default: the latest)
    --format md|json                Output format (default md)
    --output FILE                   Write to FILE, "-" for stdout
    --dir DIR                       Directory for generated file names
  narrator art --transcript FILE    Draw the recent scene as ASCII art
    --lines N                       Scene lines to draw from (default max_log_lines)
    --each                          Draw every printed message in turn
    --plain                         Print the art without the panel
  narrator config init [--force]    Write a config file with the defaults
  narrator config show              Print the effective configuration
  narrator config path              Print the config file path
  narrator config get KEY           Print one setting
  narrator config set KEY VALUE     Change one setting in the config file
  narrator version                  Print version information
  narrator help                     Show this help

Global flags:
  --config FILE                     Use this config file
  --verbose, -v                     Debug logging

Environment:
  NARRATOR_CONFIG, NARRATOR_PROVIDER, NARRATOR_MODEL, NARRATOR_BASE_URL,
  NARRATOR_API_KEY (or OPENAI_API_KEY), NARRATOR_MAX_TOKENS
`

// Parse splits argv (without the program name) into a command and its
// arguments. Global flags may appear anywhere.
func Parse(argv []string) (Command, Args) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--verbose" || arg == "-v":
			args.Verbose = true
		case arg == "--config" || arg == "-c":
			if i+1 < len(argv) {
				args.ConfigPath = argv[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--help" || arg == "-h":
			return CmdHelp, args
		case arg == "--version":
			return CmdVersion, args
		default:
			rest = append(rest, arg)
		}
	}

	if len(rest) == 0 || strings.HasPrefix(rest[0], "-") {
		args.Rest = rest
		return CmdTUI, args
	}

	args.Name = rest[0]
	args.Rest = rest[1:]
	if cmd, ok := commandNames[strings.ToLower(rest[0])]; ok {
		return cmd, args
	}
	return CmdUnknown, args
}

// ShowHelp prints the usage text.
func ShowHelp() {
	fmt.Fprint(stdout, usageText)
}

// ShowVersion prints version information.
func ShowVersion() {
	fmt.Fprintf(stdout, "narrator %s\n", Version)
	fmt.Fprintf(stdout, "  commit: %s\n", GitCommit)
	fmt.Fprintf(stdout, "  built:  %s\n", BuildDate)
	fmt.Fprintf(stdout, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Run dispatches a parsed command and returns the process exit code.
func Run(cmd Command, args Args) int {
	var err error
	switch cmd {
	case CmdTUI:
		err = HandleTUI(args)
	case CmdAsk:
		err = HandleAsk(args)
	case CmdREPL:
		err = HandleREPL(args)
	case CmdAudit:
		err = HandleAudit(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdExport:
		err = HandleExport(args)
	case CmdArt:
		err = HandleArt(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdVersion:
		ShowVersion()
	case CmdHelp:
		ShowHelp()
	default:
		err = NewUsageError(fmt.Sprintf("unknown command %q", args.Name), "narrator help")
	}

	if err != nil {
		DisplayError(stderr, err, jsonRequested(args))
	}
	return ExitCode(err)
}

func jsonRequested(args Args) bool {
	for _, a := range args.Rest {
		if a == "--json" || a == "--json=true" {
			return true
		}
	}
	return false
}
