// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// imagine.go - Image generation for the fanout CLI.
//
// Handles the "fanout imagine" command. With --ref, the reference image is
// first described by the chat model and the description folded into the
// prompt, so generation can riff on an existing picture.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/fanout-tui/internal/attach"
	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// HandleImagine generates images for a prompt and writes them to disk.
func HandleImagine(args Args) error {
	if args.Query == "" {
		return fmt.Errorf("imagine: no prompt given")
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

	prompt := args.Query
	if args.RefImage != "" {
		described, err := describeReference(ctx, client, args.RefImage)
		if err != nil {
			return fmt.Errorf("imagine: %w", err)
		}
		prompt = prompt + "\n\nStyle and content reference: " + described
		if args.Verbose {
			fmt.Fprintln(os.Stderr, DimStyle.Render("reference: "+util.TruncateWidth(described, 76)))
		}
	}

	count := args.Count
	if count == 0 {
		count = cfg.Image.Count
	}
	format := strings.ToLower(args.OutFormat)
	if format == "" {
		format = cfg.Image.OutputFormat
	}
	mimeType := "image/png"
	ext := ".png"
	if format == "jpeg" {
		mimeType = "image/jpeg"
		ext = ".jpg"
	}

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "Generating %d image(s) with %s...\n", count, cfg.Image.Model)
	}

	images, err := client.GenerateImages(ctx, gemini.ImageRequest{
		Prompt:         prompt,
		Count:          count,
		OutputMIMEType: mimeType,
	})
	if err != nil {
		return err
	}

	outDir, err := resolveOutputDir(args.OutDir, cfg.Image.OutputDir)
	if err != nil {
		return err
	}

	stamp := time.Now().Format("20060102-150405")
	for i, img := range images {
		name := fmt.Sprintf("fanout-%s-%d%s", stamp, i+1, ext)
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			return fmt.Errorf("imagine: failed to write %s: %w", path, err)
		}
		fmt.Println(SuccessStyle.Render(path))
	}
	return nil
}

// describeReference encodes a local image and asks the chat model for a
// detailed description.
func describeReference(ctx context.Context, client *gemini.Client, path string) (string, error) {
	enc, err := attach.Encode(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(enc.MIMEType, "image/") {
		return "", fmt.Errorf("reference %s is not an image (%s)", path, enc.MIMEType)
	}
	return client.DescribeImage(ctx, enc.MIMEType, enc.Data)
}

// resolveOutputDir picks the image output directory: flag, config, then
// ~/.fanout/images.
func resolveOutputDir(flagDir, cfgDir string) (string, error) {
	dir := flagDir
	if dir == "" {
		dir = cfgDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".fanout", "images")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("imagine: failed to create output directory: %w", err)
	}
	return dir, nil
}
