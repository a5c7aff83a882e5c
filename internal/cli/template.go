// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// template.go - Prompt template management for the fanout CLI.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/fanout-tui/internal/store"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// HandleTemplate dispatches the template subcommands.
func HandleTemplate(args Args) error {
	path, err := store.DefaultTemplatePath()
	if err != nil {
		return err
	}
	templates, err := store.NewTemplateStore(path)
	if err != nil {
		return err
	}

	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "list", "ls":
		return templateList(templates)
	case "show":
		return templateShow(templates, p.Rest())
	case "add", "set":
		return templateAdd(templates, p)
	case "rm", "delete":
		return templateRm(templates, p.Rest())
	default:
		return fmt.Errorf("template: unknown subcommand %q (expected list, show, add, or rm)", p.Subcommand())
	}
}

func templateList(templates *store.TemplateStore) error {
	list := templates.List()
	if len(list) == 0 {
		fmt.Println("No templates. Add one with: fanout template add <name> \"prompt text\"")
		return nil
	}
	fmt.Println(TitleStyle.Render("Templates"))
	for _, t := range list {
		fmt.Printf("  %s %s\n",
			LabelStyle.Render(util.PadRight(t.Name, 20)),
			util.TruncateWidth(util.FirstLine(t.Prompt), 56))
	}
	return nil
}

func templateShow(templates *store.TemplateStore, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("template show: usage: fanout template show <name>")
	}
	t, err := templates.Get(rest[0])
	if err != nil {
		return err
	}
	fmt.Println(TitleStyle.Render(t.Name))
	fmt.Println(t.Prompt)
	if t.SystemInstruction != "" {
		fmt.Println()
		fmt.Println(LabelStyle.Render("system: ") + t.SystemInstruction)
	}
	return nil
}

func templateAdd(templates *store.TemplateStore, p *ArgParser) error {
	rest := p.Rest()
	if len(rest) < 2 {
		return fmt.Errorf("template add: usage: fanout template add <name> \"prompt text\"")
	}
	t := store.Template{
		Name:              rest[0],
		Prompt:            strings.Join(rest[1:], " "),
		SystemInstruction: p.Flag("system"),
	}
	if err := templates.Put(t); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Saved template " + t.Name))
	return nil
}

func templateRm(templates *store.TemplateStore, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("template rm: usage: fanout template rm <name>")
	}
	if err := templates.Delete(rest[0]); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Deleted template " + rest[0]))
	return nil
}
