// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot multi-target query for the fanout CLI.
//
// Handles the "fanout ask" command, which fans a single prompt out to every
// selected model in parallel and prints the finished replies side by side.
//
// Examples:
//   fanout ask "Compare your answers: what is entropy?"
//   fanout ask -m gemini-2.5-flash -m gemini-2.5-pro "Summarize this" -f notes.md
//   fanout ask --temp 1.4 --top-p 0.95 "Write a limerick about race conditions"
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/orchestrator"
	"github.com/jeranaias/fanout-tui/internal/store"
)

// askReply is the JSON shape for one target's reply.
type askReply struct {
	Target    string           `json:"target"`
	Text      string           `json:"text"`
	Citations []model.Citation `json:"citations,omitempty"`
	Stopped   bool             `json:"stopped,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// HandleAsk fans a prompt out to the selected models and prints the replies.
func HandleAsk(args Args) error {
	if args.Query == "" && len(args.Files) == 0 {
		PrintUsage()
		return fmt.Errorf("ask: no prompt given")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(sessionFactory(client))
	targets := resolveTargets(cfg, args)
	genCfg := resolveGenConfig(cfg, args)

	if !args.Quiet && !args.JSON {
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = t.Label
		}
		fmt.Fprintf(os.Stderr, "Asking %s...\n", strings.Join(names, ", "))
	}

	if err := orch.SendInitial(ctx, targets, args.Query, args.Files, genCfg); err != nil {
		return err
	}

	replies := collectReplies(orch, targets)
	if args.JSON {
		return printJSONReplies(replies)
	}
	printReplies(cfg.UI.MarkdownWidth, cfg.UI.ShowCitations, replies)

	archiveRun(ctx, args.Query, orch, targets)
	return nil
}

// collectReplies snapshots the final model turn of every target.
func collectReplies(orch *orchestrator.Orchestrator, targets []model.Target) []askReply {
	replies := make([]askReply, 0, len(targets))
	for _, tgt := range targets {
		reply := askReply{Target: tgt.Label}
		if tr := orch.Registry().TranscriptSnapshot(tgt.ID); tr != nil {
			if turn := tr.Last(); turn != nil && turn.Role == model.RoleModel {
				reply.Text = turn.Text
				reply.Citations = turn.Citations
				reply.Stopped = turn.StoppedByUser
				reply.Error = turn.Err
			}
		}
		replies = append(replies, reply)
	}
	return replies
}

// printReplies renders each reply as a titled markdown section.
func printReplies(wrapWidth int, showCitations bool, replies []askReply) {
	if wrapWidth <= 0 {
		wrapWidth = 80
	}
	renderer, rendererErr := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)

	for _, reply := range replies {
		fmt.Println(TitleStyle.Render("── " + reply.Target + " ──"))

		if reply.Error != "" {
			fmt.Println(ErrorStyle.Render("error: " + reply.Error))
			fmt.Println()
			continue
		}

		text := reply.Text
		if rendererErr == nil {
			if rendered, err := renderer.Render(text); err == nil {
				text = rendered
			}
		}
		fmt.Println(strings.TrimRight(text, "\n"))

		if showCitations && len(reply.Citations) > 0 {
			fmt.Println(DimStyle.Render("Sources:"))
			for _, c := range reply.Citations {
				line := "  - " + c.URI
				if c.Title != "" {
					line = "  - " + c.Title + " <" + c.URI + ">"
				}
				fmt.Println(DimStyle.Render(line))
			}
		}
		fmt.Println()
	}
}

// printJSONReplies emits the replies as a JSON array.
func printJSONReplies(replies []askReply) error {
	out, err := json.MarshalIndent(replies, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// archiveRun best-effort saves the finished run; failures only warn.
func archiveRun(ctx context.Context, prompt string, orch *orchestrator.Orchestrator, targets []model.Target) {
	path, err := store.DefaultArchivePath()
	if err != nil {
		return
	}
	archive, err := store.OpenArchive(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarnStyle.Render("warning: could not open archive: "+err.Error()))
		return
	}
	defer archive.Close()

	archived := make([]store.ArchivedTarget, 0, len(targets))
	for _, tgt := range targets {
		archived = append(archived, store.ArchivedTarget{
			TargetID:   tgt.ID,
			Label:      tgt.Label,
			Transcript: orch.Registry().TranscriptSnapshot(tgt.ID),
		})
	}
	if _, err := archive.SaveRun(ctx, prompt, archived); err != nil {
		fmt.Fprintln(os.Stderr, WarnStyle.Render("warning: could not archive run: "+err.Error()))
	}
}
