// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for fanout-tui.
//
// This package implements all non-TUI commands: one-shot multi-target asks,
// credential setup, configuration management, prompt templates, the run
// archive, and image generation.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Unified flag/subcommand parsing shared by all commands
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    return cli.HandleAsk(args)
//	case cli.CmdSetup:
//	    return cli.HandleSetup(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - (default): Start the multi-target chat TUI
//   - ask: Fan one prompt out to several models and print the replies
//   - setup: Store the Gemini API key (encrypted at rest)
//   - config: Show and edit configuration
//   - template: Manage reusable prompt templates
//   - history: Browse and replay archived runs
//   - imagine: Generate images from a prompt
package cli
