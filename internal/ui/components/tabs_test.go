// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

func testTabs() []Tab {
	return []Tab{
		{ID: "gemini-2.5-flash", Label: "2.5-flash"},
		{ID: "gemini-2.5-pro", Label: "2.5-pro", Streaming: true},
		{ID: "pipeline-0", Label: "t=0.20", Errored: true},
	}
}

func TestTabBarNavigation(t *testing.T) {
	bar := NewTabBar(styles.NewTheme("dark"))
	bar.SetTabs(testTabs())

	if bar.Active() != 0 {
		t.Fatalf("initial active = %d, want 0", bar.Active())
	}

	bar.Next()
	bar.Next()
	if bar.ActiveID() != "pipeline-0" {
		t.Errorf("after two Next, active = %q", bar.ActiveID())
	}

	// Wraps around
	bar.Next()
	if bar.Active() != 0 {
		t.Errorf("Next should wrap to 0, got %d", bar.Active())
	}
	bar.Prev()
	if bar.Active() != 2 {
		t.Errorf("Prev should wrap to last, got %d", bar.Active())
	}
}

func TestTabBarSetActiveID(t *testing.T) {
	bar := NewTabBar(styles.NewTheme("dark"))
	bar.SetTabs(testTabs())

	bar.SetActiveID("gemini-2.5-pro")
	if bar.Active() != 1 {
		t.Errorf("SetActiveID: active = %d, want 1", bar.Active())
	}

	// Unknown id leaves the selection alone
	bar.SetActiveID("nope")
	if bar.Active() != 1 {
		t.Errorf("unknown id moved selection to %d", bar.Active())
	}
}

func TestTabBarClampsActiveOnShrink(t *testing.T) {
	bar := NewTabBar(styles.NewTheme("dark"))
	bar.SetTabs(testTabs())
	bar.SetActive(2)

	bar.SetTabs(testTabs()[:1])
	if bar.Active() != 0 {
		t.Errorf("active after shrink = %d, want 0", bar.Active())
	}
}

func TestTabBarView(t *testing.T) {
	bar := NewTabBar(styles.NewTheme("dark"))
	bar.SetWidth(100)
	bar.SetTabs(testTabs())

	view := bar.View()
	for _, label := range []string{"2.5-flash", "2.5-pro", "t=0.20"} {
		if !strings.Contains(view, label) {
			t.Errorf("view missing tab label %q", label)
		}
	}
	if !strings.Contains(view, styles.Indicators.Streaming) {
		t.Error("streaming tab should carry the streaming glyph")
	}
	if !strings.Contains(view, styles.Indicators.Error) {
		t.Error("errored tab should carry the error glyph")
	}
}

func TestTabBarEmptyView(t *testing.T) {
	bar := NewTabBar(styles.NewTheme("dark"))
	if bar.View() != "" {
		t.Error("empty tab bar should render nothing")
	}
	if bar.ActiveID() != "" {
		t.Error("empty tab bar has no active id")
	}
}
