// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// configcmd.go - Configuration show/set for the fanout CLI.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/fanout-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "path":
		return configPath()
	case "set":
		return configSet(args)
	default:
		return fmt.Errorf("config: unknown subcommand %q (expected show, set, or path)", args.Subcommand)
	}
}

func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("fanout configuration"))
	printField("default_model", cfg.DefaultModel)
	printField("models", strings.Join(cfg.Models, ", "))
	printField("generation.search_grounding", strconv.FormatBool(cfg.Generation.SearchGrounding))
	printField("generation.temperature", fmt.Sprintf("%.2f", cfg.Generation.Temperature))
	printField("generation.top_p", fmt.Sprintf("%.2f", cfg.Generation.TopP))
	printField("generation.system_instruction", cfg.Generation.SystemInstruction)
	for i, p := range cfg.Pipelines {
		printField(fmt.Sprintf("pipelines[%d]", i),
			fmt.Sprintf("%s (temp=%.2f top_p=%.2f)", p.Name(), p.Temperature, p.TopP))
	}
	printField("image.model", cfg.Image.Model)
	printField("image.count", strconv.Itoa(cfg.Image.Count))
	printField("image.output_format", cfg.Image.OutputFormat)
	printField("ui.theme", cfg.UI.Theme)
	printField("ui.show_citations", strconv.FormatBool(cfg.UI.ShowCitations))
	printField("ui.syntax_theme", cfg.UI.SyntaxTheme)
	return nil
}

func printField(name, value string) {
	if value == "" {
		value = "(unset)"
	}
	fmt.Printf("  %s %s\n", LabelStyle.Render(fmt.Sprintf("%-32s", name)), value)
}

func configPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// configSet updates a single key and saves the config file.
func configSet(args Args) error {
	rest := args.Raw
	if len(rest) >= 1 && rest[0] == "set" {
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return fmt.Errorf("config set: usage: fanout config set <key> <value>")
	}
	key, value := rest[0], strings.Join(rest[1:], " ")

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config set: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("%s = %s", key, value)))
	return nil
}

// applyConfigValue maps a dotted key to a config field.
func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "default_model":
		cfg.DefaultModel = value
	case "models":
		cfg.Models = splitModels(value)
	case "generation.search_grounding":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config set: %s needs true or false", key)
		}
		cfg.Generation.SearchGrounding = b
	case "generation.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("config set: %s needs a number", key)
		}
		cfg.Generation.Temperature = f
	case "generation.top_p":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("config set: %s needs a number", key)
		}
		cfg.Generation.TopP = f
	case "generation.system_instruction":
		cfg.Generation.SystemInstruction = value
	case "image.model":
		cfg.Image.Model = value
	case "image.count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config set: %s needs an integer", key)
		}
		cfg.Image.Count = n
	case "image.output_format":
		cfg.Image.OutputFormat = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.show_citations":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config set: %s needs true or false", key)
		}
		cfg.UI.ShowCitations = b
	case "ui.syntax_theme":
		cfg.UI.SyntaxTheme = value
	default:
		return fmt.Errorf("config set: unknown key %q", key)
	}
	return nil
}
