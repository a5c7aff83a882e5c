// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme("dark")

	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if !theme.IsDark {
		t.Error("NewTheme(\"dark\") should force a dark theme")
	}

	light := NewTheme("light")
	if light.IsDark {
		t.Error("NewTheme(\"light\") should force a light theme")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme("dark")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"TabActive", theme.TabActive},
		{"TabInactive", theme.TabInactive},
		{"UserBlock", theme.UserBlock},
		{"ModelBlock", theme.ModelBlock},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"ErrorBox", theme.ErrorBox},
		{"CodeBlock", theme.CodeBlock},
		{"PickerBox", theme.PickerBox},
	}

	for _, s := range styles {
		// An uninitialized style would return an empty render
		rendered := s.style.Render("test")
		if rendered == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme("dark")

	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize(120, 40) = %dx%d", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme("dark")

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}
