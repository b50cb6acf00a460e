// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
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
	CmdExport Command = iota
	CmdList
	CmdPreview
	CmdHistory
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool

	// Export flags
	Scope    string
	IDs      []string
	Formats  []string
	Output   string
	Template string
	Resume   bool
	DryRun   bool

	// Command-specific
	File       string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Limit      int

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `chatgpt-exporter - export ChatGPT conversations to JSON, Markdown and HTML

Conversations are fetched from the backend API, normalized, rendered in
the selected formats and packaged into a single ZIP archive. Interrupted
exports are checkpointed and can be resumed.

Usage:
  chatgpt-exporter export             Export conversations
    --scope current|ids|all           Batch scope (default: all)
    --id ID[,ID...]                   Conversation id(s) for current/ids scope
    --format json,markdown,html       Output formats (default: from config)
    --output DIR                      Archive output directory
    --template TEMPLATE               File naming template ({date}, {title}, {id})
    --resume                          Resume the last interrupted run
    --dry-run                         Show the batch plan without exporting
  chatgpt-exporter list               List conversations from the API
    --limit N                         Stop after N conversations
  chatgpt-exporter preview FILE.md    Render an exported Markdown file in the terminal
  chatgpt-exporter history            Show past export runs
    --run RUN_ID                      Show per-conversation outcomes of one run
    --limit N                         Show last N runs (default: 20)
  chatgpt-exporter status             Show config, checkpoint and API status
  chatgpt-exporter config show        Show current configuration
  chatgpt-exporter config set K V     Update one configuration value
  chatgpt-exporter version            Print version information
  chatgpt-exporter help               Show this help

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Diagnostic output

Environment:
  CHATGPT_EXPORTER_TOKEN      Backend access token (required for API access)
  CHATGPT_EXPORTER_BASE_URL   Override the backend API base URL
  CHATGPT_EXPORTER_OUTPUT     Override the archive output directory
  CHATGPT_EXPORTER_FORMATS    Override the export formats

Examples:
  chatgpt-exporter export --scope all
  chatgpt-exporter export --scope current --id 68a1b2c3 --format markdown
  chatgpt-exporter export --resume
  chatgpt-exporter list --limit 25
  chatgpt-exporter preview ./out/2024-05-01_my-chat.md
  chatgpt-exporter history --run 7f3c9d

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("chatgpt-exporter version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

func parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdHelp, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "export":
		parseExportArgs(&args, remaining)
		return CmdExport, args

	case "list", "ls":
		parser := NewArgParser(remaining)
		args.Limit = parser.FlagIntOrDefault("limit", 0)
		return CmdList, args

	case "preview":
		parser := NewArgParser(remaining)
		args.File = parser.Positional(0)
		return CmdPreview, args

	case "history", "runs":
		parser := NewArgParser(remaining)
		args.Subcommand = parser.Flag("run")
		args.Limit = parser.FlagIntOrDefault("limit", 20)
		return CmdHistory, args

	case "status", "s":
		return CmdStatus, args

	case "config":
		parser := NewArgParser(remaining)
		args.Subcommand = parser.Subcommand()
		args.ConfigKey = parser.Positional(1)
		args.ConfigVal = parser.Positional(2)
		return CmdConfig, args

	case "version", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		args.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for _, arg := range argv {
		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			// -v before a command means verbose; bare "-v" alone is
			// handled as version by the command switch.
			args.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// parseExportArgs parses export command specific arguments.
func parseExportArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)

	args.Scope = strings.ToLower(parser.FlagOrDefault("scope", ""))
	args.Output = parser.Flag("output")
	args.Template = parser.Flag("template")
	args.Resume = parser.BoolFlag("resume")
	args.DryRun = parser.BoolFlag("dry-run")

	if ids := parser.Flag("id"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				args.IDs = append(args.IDs, id)
			}
		}
	}
	if formats := parser.Flag("format"); formats != "" {
		for _, f := range strings.Split(formats, ",") {
			f = strings.TrimSpace(strings.ToLower(f))
			if f != "" {
				args.Formats = append(args.Formats, f)
			}
		}
	}

	// Scope defaults: explicit ids without a scope imply the ids
	// scope; otherwise export everything.
	if args.Scope == "" {
		if len(args.IDs) == 1 {
			args.Scope = "current"
		} else if len(args.IDs) > 1 {
			args.Scope = "ids"
		} else {
			args.Scope = "all"
		}
	}
}

// Run dispatches the parsed command and returns the process exit code.
func Run() int {
	cmd, args := Parse()

	var err error
	switch cmd {
	case CmdExport:
		err = HandleExport(args)
	case CmdList:
		err = HandleList(args)
	case CmdPreview:
		err = HandlePreview(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdStatus:
		err = HandleStatus(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdVersion:
		PrintVersion()
	case CmdHelp:
		PrintUsage()
		if len(args.Raw) > 0 {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(fmt.Sprintf("unknown command: %s", args.Raw[0])))
			return 2
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
		return 1
	}
	return 0
}
