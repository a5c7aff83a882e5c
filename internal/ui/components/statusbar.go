// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Mode is the fan-out mode shown in the status bar.
type Mode int

const (
	// ModeChat fans prompts out to multiple model instances.
	ModeChat Mode = iota
	// ModePipeline fans one model out across sampling presets.
	ModePipeline
)

// String returns the display string for the mode.
func (m Mode) String() string {
	switch m {
	case ModeChat:
		return "CHAT"
	case ModePipeline:
		return "PIPELINES"
	default:
		return "?"
	}
}

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape glyph for the status, distinct beyond color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.Indicators.Success
	case StatusStreaming:
		return styles.Indicators.Streaming
	case StatusError:
		return styles.Indicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar: mode, target counts, grounding state,
// broadcast flag, and key hints.
type StatusBar struct {
	Mode           Mode
	TargetCount    int
	StreamingCount int
	Grounded       bool
	Broadcast      bool
	Status         Status
	Width          int
	ShowShortcuts  bool
	theme          *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Mode:          ModeChat,
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetCounts updates the target and streaming counts.
func (s *StatusBar) SetCounts(targets, streaming int) {
	s.TargetCount = targets
	s.StreamingCount = streaming
	if streaming > 0 {
		s.Status = StatusStreaming
	} else if s.Status == StatusStreaming {
		s.Status = StatusReady
	}
}

// modeSegment renders the mode badge.
func (s *StatusBar) modeSegment() string {
	style := s.theme.ModeChat
	if s.Mode == ModePipeline {
		style = s.theme.ModePipeline
	}
	return style.Render("[" + s.Mode.String() + "]")
}

// targetSegment renders the target and streaming counts.
func (s *StatusBar) targetSegment() string {
	seg := fmt.Sprintf("%d targets", s.TargetCount)
	if s.TargetCount == 1 {
		seg = "1 target"
	}
	if s.StreamingCount > 0 {
		seg += fmt.Sprintf(", %d streaming", s.StreamingCount)
	}
	return seg
}

// configSegment renders the generation-config indicator.
func (s *StatusBar) configSegment() string {
	if s.Grounded {
		return "grounded"
	}
	return "sampled"
}

// shortcutSegment renders the key hints for the current state.
func (s *StatusBar) shortcutSegment() string {
	key := s.theme.ShortcutKey
	desc := s.theme.ShortcutDesc

	hints := []string{
		key.Render("tab") + desc.Render(" switch"),
		key.Render("^b") + desc.Render(" broadcast"),
		key.Render("^t") + desc.Render(" templates"),
	}
	if s.StreamingCount > 0 {
		hints = append(hints, key.Render("esc")+desc.Render(" stop"))
	}
	hints = append(hints, key.Render("^c")+desc.Render(" quit"))
	return strings.Join(hints, "  ")
}

// View renders the status bar.
func (s *StatusBar) View() string {
	segments := []string{
		s.modeSegment(),
		s.targetSegment(),
		s.configSegment(),
	}
	if s.Broadcast {
		segments = append(segments, s.theme.WarningStyle.Render("ALL"))
	}
	segments = append(segments, s.Status.Icon()+" "+s.Status.String())

	left := strings.Join(segments, " | ")

	if !s.ShowShortcuts || s.theme.GetLayoutMode() == styles.LayoutNarrow {
		return s.theme.StatusBar.Width(s.Width).Render(left)
	}

	right := s.shortcutSegment()
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return s.theme.StatusBar.Width(s.Width).Render(left)
	}

	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}
