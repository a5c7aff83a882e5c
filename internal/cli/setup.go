// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Credential setup for the fanout CLI.
//
// Handles the "fanout setup" command, which prompts for the Gemini API key
// without echo, validates its shape, and stores it encrypted at rest.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/store"
)

// HandleSetup runs the credential setup flow.
func HandleSetup(args Args) error {
	keyring, err := store.DefaultKeyring()
	if err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("fanout setup"))
		fmt.Println()
		fmt.Println("Paste your Gemini API key. Input is hidden; the key is stored")
		fmt.Println("encrypted under ~/.fanout with owner-only permissions.")
		fmt.Println()
	}

	if keyring.HasAPIKey() {
		if !promptYesNo("A key is already stored. Replace it?", false) {
			fmt.Println("Keeping the existing key.")
			return nil
		}
	}

	apiKey := promptSecure("API key")
	if err := gemini.ValidateAPIKey(apiKey); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if err := keyring.SaveAPIKey(apiKey); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	fmt.Println(SuccessStyle.Render("API key stored."))

	if promptYesNo("Verify the key with a test request?", true) {
		if err := verifyKey(apiKey); err != nil {
			fmt.Println(WarnStyle.Render("Verification failed: " + err.Error()))
			fmt.Println("The key was stored anyway; run 'fanout setup' again to replace it.")
			return nil
		}
		fmt.Println(SuccessStyle.Render("Key verified."))
	}
	return nil
}

// verifyKey makes one minimal generation request with the key.
func verifyKey(apiKey string) error {
	ctx := context.Background()
	client, err := gemini.NewClient(ctx, gemini.ClientConfig{APIKey: apiKey})
	if err != nil {
		return err
	}
	_, err = client.GenerateText(ctx, client.ChatModel(), []model.Part{model.TextPart("ping")})
	return err
}

// promptSecure prompts for sensitive input (API keys) without echoing.
// Uses golang.org/x/term for secure cross-platform input.
func promptSecure(prompt string) string {
	if prompt != "" {
		fmt.Print(prompt)
		if !strings.HasSuffix(prompt, ": ") && !strings.HasSuffix(prompt, " ") {
			fmt.Print(": ")
		}
	}

	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return ""
	}
	fmt.Println() // Add newline after hidden input

	return strings.TrimSpace(string(keyBytes))
}

// promptYesNo prompts for a yes/no answer.
func promptYesNo(prompt string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Printf("%s %s: ", prompt, suffix)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultYes
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultYes
	}
}
