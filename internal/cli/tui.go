// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fanout-tui/internal/orchestrator"
	"github.com/jeranaias/fanout-tui/internal/store"
	"github.com/jeranaias/fanout-tui/internal/ui/chat"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// HandleTUI launches the interactive fan-out chat.
func HandleTUI(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	client, err := newGeminiClient(context.Background(), cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(sessionFactory(client))
	theme := styles.NewTheme(cfg.UI.Theme)

	opts := chat.Options{
		Pipelines:     args.Pipelines,
		Models:        args.Models,
		InitialPrompt: args.Query,
		InitialFiles:  args.Files,
	}

	// Templates and the archive are conveniences: a failure to open either
	// degrades the session instead of blocking it.
	if path, perr := store.DefaultTemplatePath(); perr == nil {
		if templates, terr := store.NewTemplateStore(path); terr == nil {
			opts.Templates = templates
		} else if !args.Quiet {
			fmt.Fprintf(os.Stderr, "warning: templates unavailable: %v\n", terr)
		}
	}
	if path, perr := store.DefaultArchivePath(); perr == nil {
		if archive, aerr := store.OpenArchive(path); aerr == nil {
			opts.Archive = archive
			defer archive.Close()
		} else if !args.Quiet {
			fmt.Fprintf(os.Stderr, "warning: run archive unavailable: %v\n", aerr)
		}
	}

	m := chat.New(cfg, orch, theme, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// External template edits refresh the picker mid-session
	if opts.Templates != nil {
		watcher, werr := store.NewTemplateWatcher(opts.Templates, store.DefaultWatchDebounce, func(err error) {
			p.Send(chat.TemplatesReloadedMsg{Err: err})
		})
		if werr == nil {
			if werr = watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	_, err = p.Run()
	return err
}
