// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK for the fan-out orchestrator.
package gemini

import (
	"context"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Gemini client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeInvalidCredential
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeEmptyPrompt
)

// Sentinel errors for easy checking.
var (
	ErrInvalidCredential = &ClientError{Type: ErrTypeInvalidCredential, Message: "credential is not a valid API key"}
	ErrEmptyPrompt       = &ClientError{Type: ErrTypeEmptyPrompt, Message: "prompt is empty"}
)

// =============================================================================
// CREDENTIAL VALIDATION
// =============================================================================

// apiKeyPattern matches a plausible API key: a non-trivial token of
// alphanumerics, hyphens, and underscores.
var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)

// ValidateAPIKey checks the credential format before any network use.
// Invalid or absent credentials route the user to the credential-entry flow.
func ValidateAPIKey(key string) error {
	if !apiKeyPattern.MatchString(strings.TrimSpace(key)) {
		return ErrInvalidCredential
	}
	return nil
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Default model identifiers. Overridable via config.
const (
	DefaultChatModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-3.0-generate-002"
)

// ClientConfig holds configuration options for the Gemini client.
type ClientConfig struct {
	// APIKey is the user-supplied credential.
	APIKey string

	// ChatModel is the default chat model id (default: gemini-2.5-flash).
	ChatModel string

	// ImageModel is the image generation model id.
	ImageModel string
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Gemini API.
// It is safe for concurrent use; every per-target stream runs against the
// same underlying client.
type Client struct {
	config ClientConfig
	genai  *genai.Client
}

// NewClient validates the credential and creates a Gemini client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: strings.TrimSpace(cfg.APIKey)})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create client", Cause: err}
	}

	return &Client{config: cfg, genai: gc}, nil
}

// ChatModel returns the configured default chat model id.
func (c *Client) ChatModel() string {
	return c.config.ChatModel
}

// =============================================================================
// CONFIG CONVERSION
// =============================================================================

// generateConfig converts the tagged GenConfig variant to the SDK form.
// Grounded enables the search tool and leaves temperature, top-p, and the
// system instruction unset; Sampled sets all three explicitly.
func generateConfig(cfg model.GenConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{}
	switch v := cfg.(type) {
	case model.Grounded:
		out.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case model.Sampled:
		out.Temperature = genai.Ptr(v.Temperature)
		out.TopP = genai.Ptr(v.TopP)
		if v.SystemInstruction != "" {
			out.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: v.SystemInstruction}},
			}
		}
	}
	return out
}

// convertParts maps domain content parts to SDK parts.
func convertParts(parts []model.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, genai.Part{InlineData: &genai.Blob{
				MIMEType: p.MIMEType,
				Data:     p.Data,
			}})
			continue
		}
		if p.Text != "" {
			out = append(out, genai.Part{Text: p.Text})
		}
	}
	return out
}
