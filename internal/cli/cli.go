// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for fanout-tui.
package cli

import (
	"fmt"
	"os"
	"strconv"
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
	CmdAsk
	CmdSetup
	CmdConfig
	CmdTemplate
	CmdHistory
	CmdImagine
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	ConfigPath string // --config: explicit config file

	// Target selection
	Models []string // -m/--model, repeatable or comma-separated

	// Ask / imagine content
	Query string
	Files []string // -f/--file, repeatable

	// Generation overrides
	NoGrounding bool    // --no-ground: disable search grounding
	Temperature float64 // --temp
	TopP        float64 // --top-p
	System      string  // --system
	HasSampling bool    // set when --temp or --top-p was given

	// Imagine flags
	Count     int    // --count: images per request
	OutDir    string // --out: output directory
	OutFormat string // --format: png or jpeg
	RefImage  string // --ref: reference image to describe and fold into the prompt

	// TUI flags
	Pipelines bool // --pipelines: launch in config-test mode

	// Command-specific
	Subcommand string
	Raw        []string
}

const usageText = `fanout - fan one prompt out to several Gemini chats at once

Fanout streams a single prompt to multiple chat sessions in parallel and
shows every reply side by side: different models, or the same model under
different sampling presets.

Usage:
  fanout                      Start TUI (default)
  fanout tui [--pipelines]    Start TUI; --pipelines runs the configured
                              sampling presets against one model
  fanout ask "question"       One-shot fan-out, replies printed to stdout
  fanout setup                Store the Gemini API key (encrypted at rest)
  fanout config [show|set|path]  Configuration
  fanout template [subcommand]   Prompt template management
  fanout history [subcommand]    Archived run management
  fanout imagine "prompt"     Generate images
  fanout version              Show version

Ask Command:
  fanout ask "Compare your best answer"
    -m, --model NAME          Target model (repeatable, or comma-separated)
    -f, --file FILE           Attach a file (repeatable)
    --no-ground               Disable search grounding
    --temp N                  Sampling temperature (0-2, implies --no-ground)
    --top-p N                 Nucleus sampling cutoff (0-1, implies --no-ground)
    --system TEXT             System instruction
    --json                    Output replies as JSON

Template Commands:
  fanout template list              List templates
  fanout template show <name>       Show one template
  fanout template add <name> "prompt text"
    --system TEXT                   Optional system instruction
  fanout template rm <name>         Delete a template

History Commands:
  fanout history list               List archived runs
    --limit N                       Show at most N runs (default: 20)
  fanout history show <id>          Print one archived run
  fanout history rm <id>            Delete an archived run

Imagine Command:
  fanout imagine "a lighthouse in fog"
    --count N                 Images per request (1-4)
    --out DIR                 Output directory
    --format png|jpeg         Output format
    --ref FILE                Reference image, described and folded into the prompt

Global Flags:
  --config FILE               Use an explicit config file
  -q, --quiet                 Minimal output
  -v, --verbose               Verbose output
  -h, --help                  Show this help

Environment:
  GEMINI_API_KEY              API key (overrides the stored credential)
  FANOUT_MODELS               Comma-separated default targets
`

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("fanout %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	raw := os.Args[1:]

	remaining, parsed := parseGlobalFlags(raw)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		parseAskArgs(&parsed, remaining)
		parsed.Pipelines = NewArgParser(remaining).BoolFlag("pipelines")
		return CmdTUI, parsed

	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "setup":
		return CmdSetup, parsed

	case "config":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdConfig, parsed

	case "template", "templates":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdTemplate, parsed

	case "history", "runs":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdHistory, parsed

	case "imagine", "image":
		parseImagineArgs(&parsed, remaining)
		return CmdImagine, parsed

	case "version":
		return CmdVersion, parsed

	case "help":
		return CmdHelp, parsed

	default:
		// Unknown word: treat it as an ask query for convenience
		parseAskArgs(&parsed, append([]string{cmd}, remaining...))
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts flags valid for every command and returns the
// remaining arguments.
func parseGlobalFlags(raw []string) ([]string, Args) {
	args := Args{Temperature: -1, TopP: -1}
	var remaining []string

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--config":
			if i+1 < len(raw) {
				i++
				args.ConfigPath = raw[i]
			}
		case "-h", "--help":
			remaining = append(remaining, "help")
		default:
			remaining = append(remaining, raw[i])
		}
		i++
	}
	return remaining, args
}

// parseAskArgs parses ask-specific flags; bare words accumulate into the query.
func parseAskArgs(args *Args, raw []string) {
	var queryParts []string

	p := NewArgParser(raw)
	for _, m := range p.FlagValues("model", "m") {
		args.Models = append(args.Models, splitModels(m)...)
	}
	args.Files = append(args.Files, p.FlagValues("file", "f")...)
	args.NoGrounding = p.BoolFlag("no-ground")
	args.System = p.Flag("system")

	if v := p.Flag("temp"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			args.Temperature = f
			args.HasSampling = true
		}
	}
	if v := p.Flag("top-p"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			args.TopP = f
			args.HasSampling = true
		}
	}
	if p.BoolFlag("json") {
		args.JSON = true
	}

	queryParts = append(queryParts, p.Positional()...)
	args.Query = strings.TrimSpace(strings.Join(queryParts, " "))
}

// parseImagineArgs parses imagine-specific flags.
func parseImagineArgs(args *Args, raw []string) {
	p := NewArgParser(raw)
	if v := p.Flag("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			args.Count = n
		}
	}
	args.OutDir = p.Flag("out")
	args.OutFormat = p.Flag("format")
	args.RefImage = p.Flag("ref")
	args.Query = strings.TrimSpace(strings.Join(p.Positional(), " "))
}

// splitModels splits a comma-separated model list.
func splitModels(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
