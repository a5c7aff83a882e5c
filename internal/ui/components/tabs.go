// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/fanout-tui/internal/ui/styles"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// TARGET TAB BAR
// =============================================================================

// Tab is one entry in the target tab bar.
type Tab struct {
	ID        string
	Label     string
	Streaming bool
	Errored   bool
	Stopped   bool
}

// TabBar renders one tab per chat target with a per-tab state glyph.
type TabBar struct {
	tabs   []Tab
	active int
	width  int
	theme  *styles.Theme
}

// NewTabBar creates an empty tab bar.
func NewTabBar(theme *styles.Theme) *TabBar {
	return &TabBar{width: 80, theme: theme}
}

// SetTabs replaces the tab set, clamping the active index.
func (t *TabBar) SetTabs(tabs []Tab) {
	t.tabs = tabs
	if t.active >= len(tabs) {
		t.active = len(tabs) - 1
	}
	if t.active < 0 {
		t.active = 0
	}
}

// SetWidth updates the available width.
func (t *TabBar) SetWidth(width int) {
	t.width = width
}

// Len returns the number of tabs.
func (t *TabBar) Len() int {
	return len(t.tabs)
}

// Active returns the active tab index.
func (t *TabBar) Active() int {
	return t.active
}

// ActiveID returns the id of the active tab, or "" when the bar is empty.
func (t *TabBar) ActiveID() string {
	if len(t.tabs) == 0 {
		return ""
	}
	return t.tabs[t.active].ID
}

// SetActive sets the active tab index, ignoring out-of-range values.
func (t *TabBar) SetActive(i int) {
	if i >= 0 && i < len(t.tabs) {
		t.active = i
	}
}

// SetActiveID activates the tab with the given id if present.
func (t *TabBar) SetActiveID(id string) {
	for i, tab := range t.tabs {
		if tab.ID == id {
			t.active = i
			return
		}
	}
}

// Next advances to the next tab, wrapping around.
func (t *TabBar) Next() {
	if len(t.tabs) > 0 {
		t.active = (t.active + 1) % len(t.tabs)
	}
}

// Prev moves to the previous tab, wrapping around.
func (t *TabBar) Prev() {
	if len(t.tabs) > 0 {
		t.active = (t.active - 1 + len(t.tabs)) % len(t.tabs)
	}
}

// glyph returns the state indicator for a tab.
func (tab Tab) glyph() string {
	switch {
	case tab.Streaming:
		return styles.Indicators.Streaming
	case tab.Errored:
		return styles.Indicators.Error
	case tab.Stopped:
		return styles.Indicators.Stopped
	default:
		return styles.Indicators.Success
	}
}

// View renders the tab bar as a single line.
func (t *TabBar) View() string {
	if len(t.tabs) == 0 {
		return ""
	}

	// Keep each label short enough that every tab fits
	maxLabel := t.width/len(t.tabs) - 4
	if maxLabel < 6 {
		maxLabel = 6
	}

	rendered := make([]string, 0, len(t.tabs))
	for i, tab := range t.tabs {
		label := util.TruncateWidth(tab.Label, maxLabel) + " " + tab.glyph()

		style := t.theme.TabInactive
		switch {
		case i == t.active:
			style = t.theme.TabActive
		case tab.Errored:
			style = t.theme.TabErrored
		case tab.Streaming:
			style = t.theme.TabStreaming
		}
		rendered = append(rendered, style.Render(label))
	}

	bar := strings.Join(rendered, " ")
	return t.theme.TabBar.Width(t.width).Render(bar)
}

// Titles returns the plain labels, for tests and narrow layouts.
func (t *TabBar) Titles() []string {
	titles := make([]string, len(t.tabs))
	for i, tab := range t.tabs {
		titles[i] = tab.Label
	}
	return titles
}
