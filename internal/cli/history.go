// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Archived run management for the fanout CLI.
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/store"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// HandleHistory dispatches the history subcommands.
func HandleHistory(args Args) error {
	path, err := store.DefaultArchivePath()
	if err != nil {
		return err
	}
	archive, err := store.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "list", "ls":
		limit := 20
		if v := p.Flag("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		return historyList(ctx, archive, limit)
	case "show":
		return historyShow(ctx, archive, p.Rest())
	case "rm", "delete":
		return historyRm(ctx, archive, p.Rest())
	default:
		return fmt.Errorf("history: unknown subcommand %q (expected list, show, or rm)", p.Subcommand())
	}
}

func historyList(ctx context.Context, archive *store.Archive, limit int) error {
	runs, err := archive.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs yet.")
		return nil
	}

	fmt.Println(TitleStyle.Render("Archived runs"))
	for _, run := range runs {
		fmt.Printf("  %s  %s  %s  %s\n",
			DimStyle.Render(run.ID[:8]),
			run.CreatedAt.Format("2006-01-02 15:04"),
			LabelStyle.Render(fmt.Sprintf("%d targets", run.TargetCount)),
			util.TruncateWidth(util.FirstLine(run.Prompt), 48))
	}
	fmt.Println(DimStyle.Render("\nUse the full id with: fanout history show <id>"))
	return nil
}

func historyShow(ctx context.Context, archive *store.Archive, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("history show: usage: fanout history show <id>")
	}
	id, err := resolveRunID(ctx, archive, rest[0])
	if err != nil {
		return err
	}

	run, err := archive.LoadRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(run.CreatedAt.Format("2006-01-02 15:04") + "  " + util.FirstLine(run.Prompt)))
	for _, target := range run.Targets {
		fmt.Println()
		fmt.Println(TitleStyle.Render("── " + target.Label + " ──"))
		for _, turn := range target.Transcript.Turns {
			switch turn.Role {
			case model.RoleUser:
				fmt.Println(LabelStyle.Render("you: ") + turn.Text)
			default:
				switch {
				case turn.Err != "":
					fmt.Println(ErrorStyle.Render("error: " + turn.Err))
				case turn.StoppedByUser:
					fmt.Println(turn.Text)
					fmt.Println(WarnStyle.Render(model.StoppedNotice))
				default:
					fmt.Println(turn.Text)
				}
			}
		}
	}
	return nil
}

func historyRm(ctx context.Context, archive *store.Archive, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("history rm: usage: fanout history rm <id>")
	}
	id, err := resolveRunID(ctx, archive, rest[0])
	if err != nil {
		return err
	}
	if err := archive.DeleteRun(ctx, id); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Deleted run " + id[:8]))
	return nil
}

// resolveRunID accepts a full run id or an unambiguous prefix.
func resolveRunID(ctx context.Context, archive *store.Archive, given string) (string, error) {
	runs, err := archive.ListRuns(ctx, 1000)
	if err != nil {
		return "", err
	}
	var match string
	for _, run := range runs {
		if run.ID == given {
			return given, nil
		}
		if len(given) >= 4 && len(run.ID) > len(given) && run.ID[:len(given)] == given {
			if match != "" {
				return "", fmt.Errorf("history: id prefix %q is ambiguous", given)
			}
			match = run.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", store.ErrRunNotFound, given)
	}
	return match, nil
}
