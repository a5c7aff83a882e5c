// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for all CLI commands in fanout-tui.
package cli

import "strings"

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
type ArgParser struct {
	flags      map[string][]string // String flags, repeatable (--file a --file b)
	boolFlags  map[string]bool     // Boolean flags (--json)
	positional []string            // Arguments without flags, in order
}

// valueFlags are flags that always consume the next argument. Everything
// else with a dash prefix and no '=' is a boolean flag.
var valueFlags = map[string]bool{
	"model": true, "m": true,
	"file": true, "f": true,
	"system": true,
	"temp":   true,
	"top-p":  true,
	"count":  true,
	"out":    true,
	"format": true,
	"ref":    true,
	"limit":  true,
	"config": true,
}

// NewArgParser creates a new argument parser from raw arguments.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string][]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") && arg != "-" {
			name := strings.TrimLeft(arg, "-")

			// --flag=value form
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				value := name[eq+1:]
				name = name[:eq]
				if value == "true" || value == "false" {
					p.boolFlags[name] = value == "true"
				} else {
					p.flags[name] = append(p.flags[name], value)
				}
				i++
				continue
			}

			// --flag value form, for flags known to take a value
			if valueFlags[name] && i+1 < len(raw) {
				p.flags[name] = append(p.flags[name], raw[i+1])
				i += 2
				continue
			}

			p.boolFlags[name] = true
			i++
			continue
		}

		p.positional = append(p.positional, arg)
		i++
	}
	return p
}

// Flag returns the last value given for a flag, or "".
func (p *ArgParser) Flag(names ...string) string {
	values := p.FlagValues(names...)
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// FlagValues returns every value given for a flag (and its aliases), in order.
func (p *ArgParser) FlagValues(names ...string) []string {
	var values []string
	for _, name := range names {
		values = append(values, p.flags[name]...)
	}
	return values
}

// BoolFlag reports whether a boolean flag was set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[name] {
			return true
		}
	}
	return false
}

// Positional returns the positional arguments in order.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	if len(p.positional) == 0 {
		return ""
	}
	return p.positional[0]
}

// Rest returns the positional arguments after the subcommand.
func (p *ArgParser) Rest() []string {
	if len(p.positional) <= 1 {
		return nil
	}
	return p.positional[1:]
}
