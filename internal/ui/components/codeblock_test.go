// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("go", "package main\n\nfunc main() {}\n")
	cb.SetMaxWidth(100)

	out := cb.Render()
	if !strings.Contains(out, "go") {
		t.Error("rendered block missing language badge")
	}
	if !strings.Contains(out, "main") {
		t.Error("rendered block missing code content")
	}
}

func TestParseCodeBlocks(t *testing.T) {
	text := "before\n```python\nprint('hi')\n```\nafter"
	out := ParseCodeBlocks(text, 100, "monokai")

	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Error("surrounding prose lost")
	}
	if !strings.Contains(out, "print") {
		t.Error("code content lost")
	}
	if strings.Contains(out, "```") {
		t.Error("fences should be consumed")
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	text := "```go\nfunc f() {}"
	out := ParseCodeBlocks(text, 100, "")

	if !strings.Contains(out, "func f()") {
		t.Error("unclosed block content should still render")
	}
}

func TestHighlightUnknownThemeFallsBack(t *testing.T) {
	cb := NewCodeBlock("go", "var x = 1")
	cb.SyntaxTheme = "not-a-real-theme"

	out := cb.Render()
	if !strings.Contains(out, "x") {
		t.Error("unknown chroma theme should still render the code")
	}
}
