// fanout - fan one prompt out to several Gemini chats at once.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/fanout-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = cli.HandleTUI(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdSetup:
		err = cli.HandleSetup(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdTemplate:
		err = cli.HandleTemplate(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdImagine:
		err = cli.HandleImagine(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "fanout: %v\n", err)
		os.Exit(1)
	}
}
