// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared setup for CLI command handlers.
package cli

import (
	"context"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/orchestrator"
	"github.com/jeranaias/fanout-tui/internal/store"
)

// loadConfig loads configuration, honoring an explicit --config path.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newGeminiClient builds a client from the stored (or env) credential.
func newGeminiClient(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	keyring, err := store.DefaultKeyring()
	if err != nil {
		return nil, err
	}
	apiKey, err := keyring.LoadAPIKey()
	if err != nil {
		return nil, err
	}
	return gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey:     apiKey,
		ChatModel:  cfg.DefaultModel,
		ImageModel: cfg.Image.Model,
	})
}

// sessionFactory adapts a gemini client to the orchestrator's factory type.
func sessionFactory(client *gemini.Client) orchestrator.SessionFactory {
	return func(ctx context.Context, modelID string, genCfg model.GenConfig) (orchestrator.ChatSession, error) {
		return client.NewSession(ctx, modelID, genCfg)
	}
}

// resolveGenConfig merges ask flags over the configured generation defaults.
// Any explicit sampling flag switches the session to a sampled config, since
// search grounding and custom sampling are mutually exclusive.
func resolveGenConfig(cfg *config.Config, args Args) model.GenConfig {
	if args.HasSampling || args.System != "" || args.NoGrounding {
		temperature := cfg.Generation.Temperature
		topP := cfg.Generation.TopP
		system := cfg.Generation.SystemInstruction
		if args.Temperature >= 0 && args.HasSampling {
			temperature = args.Temperature
		}
		if args.TopP >= 0 && args.HasSampling {
			topP = args.TopP
		}
		if args.System != "" {
			system = args.System
		}
		return model.NewSampled(float32(temperature), float32(topP), system)
	}
	return cfg.TargetGenConfig()
}

// resolveTargets picks the targets for an ask: explicit -m flags first,
// then the configured model list.
func resolveTargets(cfg *config.Config, args Args) []model.Target {
	names := args.Models
	if len(names) == 0 {
		names = cfg.Models
	}
	targets := make([]model.Target, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		targets = append(targets, model.NewModelTarget(name))
	}
	return targets
}
