// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK for the fan-out orchestrator.
package gemini

import (
	"testing"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// CREDENTIAL VALIDATION TESTS
// =============================================================================

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"plausible key", "AIzaSyB-1234567890_abcdefGHIJKLMN", true},
		{"surrounding whitespace", "  AIzaSyB-1234567890_abcdefGHIJKLMN  ", true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"illegal characters", "AIzaSyB!1234567890?abcdefGHIJKLMN", false},
		{"internal whitespace", "AIzaSyB 1234567890 abcdefGHIJKLMN", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAPIKey(tc.key)
			if tc.valid && err != nil {
				t.Errorf("ValidateAPIKey(%q) = %v, want nil", tc.key, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("ValidateAPIKey(%q) = nil, want error", tc.key)
			}
		})
	}
}

// =============================================================================
// CONFIG CONVERSION TESTS
// =============================================================================

func TestGenerateConfig_Grounded(t *testing.T) {
	cfg := generateConfig(model.Grounded{})

	if len(cfg.Tools) != 1 || cfg.Tools[0].GoogleSearch == nil {
		t.Fatal("grounded config should enable the search tool")
	}
	if cfg.Temperature != nil || cfg.TopP != nil {
		t.Error("grounded config must leave sampling parameters unset")
	}
	if cfg.SystemInstruction != nil {
		t.Error("grounded config must leave the system instruction unset")
	}
}

func TestGenerateConfig_Sampled(t *testing.T) {
	cfg := generateConfig(model.NewSampled(0.4, 0.9, "answer briefly"))

	if cfg.Temperature == nil || *cfg.Temperature != 0.4 {
		t.Errorf("Temperature = %v, want 0.4", cfg.Temperature)
	}
	if cfg.TopP == nil || *cfg.TopP != 0.9 {
		t.Errorf("TopP = %v, want 0.9", cfg.TopP)
	}
	if cfg.SystemInstruction == nil || len(cfg.SystemInstruction.Parts) != 1 ||
		cfg.SystemInstruction.Parts[0].Text != "answer briefly" {
		t.Error("system instruction not carried through")
	}
	if len(cfg.Tools) != 0 {
		t.Error("sampled config must not enable tools")
	}
}

func TestGenerateConfig_SampledWithoutInstruction(t *testing.T) {
	cfg := generateConfig(model.NewSampled(1.0, 0.95, "   "))

	if cfg.SystemInstruction != nil {
		t.Error("blank system instruction should stay unset")
	}
}

// =============================================================================
// PART CONVERSION TESTS
// =============================================================================

func TestConvertParts(t *testing.T) {
	parts := convertParts([]model.Part{
		model.TextPart("hello"),
		model.BlobPart("image/png", []byte{1, 2, 3}),
		model.TextPart(""),
	})

	if len(parts) != 2 {
		t.Fatalf("len = %d, want 2 (empty text dropped)", len(parts))
	}
	if parts[0].Text != "hello" {
		t.Errorf("parts[0].Text = %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/png" {
		t.Error("blob part not converted to inline data")
	}
}
