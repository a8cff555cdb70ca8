// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the command line and dispatches the non-TUI
// commands. The default invocation with no arguments starts the chat
// interface.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information, set at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies the top-level command to run.
type Command int

const (
	CmdTUI Command = iota
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds the parsed command-line arguments.
type Args struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string
	// Offline runs against in-memory backends only.
	Offline bool
	// Debug enables debug logging.
	Debug bool
	// Model overrides the completion model.
	Model string
	// Raw holds the remaining arguments for the command.
	Raw []string
}

const usageText = `t3chat - terminal chat client

Usage:
  t3chat                  Start the chat interface
  t3chat config show      Print the effective configuration
  t3chat config path      Print the config file location
  t3chat config init      Write a default config file
  t3chat version          Print version information

Flags:
  --config <path>         Use an explicit config file
  --offline               Run fully in memory, no network
  --model <name>          Override the completion model
  --debug                 Enable debug logging

Environment:
  T3CHAT_API_KEY          Completion endpoint API key
  T3CHAT_STORE_KEY        Document store API key
  T3CHAT_IDENTITY_KEY     Identity service API key

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("t3chat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses an explicit argument list (tests).
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "tui", "chat":
		return CmdTUI, args
	case "config":
		return CmdConfig, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	i := 0
	for i < len(argv) {
		arg := argv[i]

		switch {
		case arg == "--offline":
			args.Offline = true
		case arg == "--debug":
			args.Debug = true
		case arg == "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--model":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	return remaining, args
}
