// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and the small command handlers for counsel.
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

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdPatients
	CmdThreads
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdPatients:
		return "patients"
	case CmdThreads:
		return "threads"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	ConfigPath string // Explicit config file, overrides ~/.counsel/config.toml

	// Command-specific
	Name       string // The command word as typed, for error messages
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `counsel - terminal client for the counseling assistant
Version: %s

USAGE:
  counsel [flags] [command]

COMMANDS:
  (none), tui          Start the full-screen interface
  chat                 Start a line-based chat session
  patients [--json]    List patients
  threads [--json]     List threads
  threads show ID      Print the history of a thread
  threads new          Create a thread
  threads export ID [--format md|json] [--out DIR]
                       Write a thread transcript to a file
  status [--json]      Check that the backend is reachable
  config show|path     Show the effective configuration or its path
  config init [--path FILE]
                       Write a default configuration file
  version [--json]     Print version information
  help                 Show this help

FLAGS:
  --config FILE        Load configuration from FILE
  --json               Machine-readable output
  -q, --quiet          Minimal output
  -v, --verbose        Log diagnostics to stderr

ENVIRONMENT:
  COUNSEL_SERVER_HOST, COUNSEL_SERVER_PORT, COUNSEL_SERVER_SCHEME,
  COUNSEL_REQUEST_TIMEOUT, COUNSEL_LOG_FILE
  Variables may also be set in a .env file in the working directory.
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "counsel version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	parsed.Name = cmd
	parsed.Raw = remaining[1:]
	if len(parsed.Raw) > 0 {
		parsed.Subcommand = strings.ToLower(parsed.Raw[0])
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsed
	case "chat", "repl":
		return CmdChat, parsed
	case "patients", "patient", "p":
		return CmdPatients, parsed
	case "threads", "thread", "t":
		return CmdThreads, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "config":
		return CmdConfig, parsed
	case "version", "--version", "-V":
		return CmdVersion, parsed
	case "help", "--help", "-h":
		return CmdHelp, parsed
	default:
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Flags the parser does not know are left for the command.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "--json":
			parsed.JSON = true
		case arg == "--config":
			if i+1 < len(args) {
				i++
				parsed.ConfigPath = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print(w)
	}
	PrintVersion(w)
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp(w io.Writer) {
	PrintUsage(w)
}

// UnknownCommand returns the error for a command word ParseArgs did not know.
func UnknownCommand(args Args) error {
	example := "counsel help"
	if s := SuggestCommand(args.Name); s != "" {
		example = "counsel " + s
	}
	return &ValidationError{
		Field:   "command",
		Value:   args.Name,
		Reason:  "unknown command",
		Example: example,
	}
}
