// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/ui/components"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// TOP-LEVEL VIEW
// =============================================================================

// View renders the complete chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	sections := []string{
		m.renderHeader(),
		m.tabs.View(),
	}

	if m.picker.visible {
		sections = append(sections, m.renderPicker())
	} else {
		sections = append(sections, m.viewport.View())
	}

	if line := m.renderNotices(); line != "" {
		sections = append(sections, line)
	}

	sections = append(sections, m.renderComposer(), m.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the one-line application header.
func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("fanout")
	subtitle := ""
	if m.opts.Pipelines {
		subtitle = m.theme.HeaderSubtitle.Render(" " + m.cfg.DefaultModel + " across sampling presets")
	} else {
		subtitle = m.theme.HeaderSubtitle.Render(" one prompt, every model")
	}
	return m.theme.Header.Width(m.width).Render(title + subtitle)
}

// renderNotices renders the spinner and any error banner.
func (m *Model) renderNotices() string {
	var lines []string
	if m.spin.IsActive() {
		lines = append(lines, m.spin.View())
	}
	if m.errText != "" {
		box := m.theme.ErrorBox.Width(m.width - 2).Render(
			m.theme.ErrorTitle.Render("Error: ") + m.theme.ErrorMessage.Render(m.errText))
		lines = append(lines, box)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// renderComposer renders staged attachments plus the input line.
func (m *Model) renderComposer() string {
	var parts []string

	if len(m.attachments) > 0 {
		chips := make([]string, 0, len(m.attachments))
		for _, path := range m.attachments {
			chips = append(chips, m.theme.AttachmentChip.Render("@"+util.TruncateWidth(path, 32)))
		}
		parts = append(parts, strings.Join(chips, " "))
	}

	line := m.input.View()
	if m.broadcast {
		line = m.theme.BroadcastBadge.Render("ALL") + " " + line
	}
	parts = append(parts, line)

	return m.theme.InputContainer.Width(m.width - 2).Render(strings.Join(parts, "\n"))
}

// renderPicker renders the template picker overlay in place of the viewport.
func (m *Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Prompt templates"))
	b.WriteString("\n")

	if len(m.picker.items) == 0 {
		b.WriteString(m.theme.PickerDesc.Render("no templates: add one with 'fanout template add'"))
	}
	for i, tpl := range m.picker.items {
		style := m.theme.PickerItem
		if i == m.picker.index {
			style = m.theme.PickerItemSelected
		}
		b.WriteString(style.Render(util.PadRight(tpl.Name, 20)))
		b.WriteString(" ")
		b.WriteString(m.theme.PickerDesc.Render(util.TruncateWidth(util.FirstLine(tpl.Prompt), 48)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.PickerDesc.Render("enter insert, esc close"))

	box := m.theme.PickerBox.Width(m.width - 4).Render(b.String())
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderTranscript renders one target's full transcript.
func (m *Model) renderTranscript(id string) string {
	snap := m.orch.Registry().TranscriptSnapshot(id)
	if snap == nil || snap.IsEmpty() {
		return m.renderWelcome()
	}

	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(snap.Turns))
	for _, turn := range snap.Turns {
		if turn.Role == model.RoleUser {
			blocks = append(blocks, m.renderUserTurn(turn, width))
		} else {
			blocks = append(blocks, m.renderModelTurn(turn, width))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// renderWelcome renders the empty-transcript placeholder.
func (m *Model) renderWelcome() string {
	labels := make([]string, 0, len(m.targets))
	for _, t := range m.targets {
		labels = append(labels, t.Label)
	}
	text := "Your first prompt goes to every target at once:\n\n  " +
		strings.Join(labels, "\n  ") +
		"\n\nFollow-ups go to the active tab; Ctrl+B broadcasts them to all." +
		"\n/close removes the active tab."
	return m.theme.ThinkingText.Render(text)
}

// renderUserTurn renders a user prompt block with attachment chips.
func (m *Model) renderUserTurn(turn *model.Turn, width int) string {
	body := turn.Text
	if len(turn.Attachments) > 0 {
		chips := make([]string, 0, len(turn.Attachments))
		for _, a := range turn.Attachments {
			chips = append(chips, m.theme.AttachmentChip.Render("@"+a.Name))
		}
		body += "\n" + strings.Join(chips, " ")
	}
	return m.theme.UserHeader.Render("You") + "\n" +
		m.theme.UserBlock.Width(width).Render(body)
}

// renderModelTurn renders a model response block with its streaming state,
// stop marker, error, and citations.
func (m *Model) renderModelTurn(turn *model.Turn, width int) string {
	header := m.theme.ModelHeader.Render(m.activeLabel())

	var body string
	switch {
	case turn.IsLoading && strings.TrimSpace(turn.Text) == "":
		body = m.theme.ThinkingText.Render("waiting for first token...")
	default:
		body = components.ParseCodeBlocks(turn.Text, width, m.cfg.UI.SyntaxTheme)
	}

	var extras []string
	if turn.StoppedByUser && turn.Text != model.StoppedNotice {
		extras = append(extras, m.theme.StoppedNotice.Render("[stopped by user]"))
	}
	if turn.Err != "" {
		extras = append(extras, m.theme.ErrorTitle.Render("error: ")+m.theme.ErrorMessage.Render(turn.Err))
	}
	if m.cfg.UI.ShowCitations && len(turn.Citations) > 0 {
		extras = append(extras, m.renderCitations(turn.Citations))
	}
	if len(extras) > 0 {
		body += "\n" + strings.Join(extras, "\n")
	}

	return header + "\n" + m.theme.ModelBlock.Width(width).Render(body)
}

// renderCitations renders the grounding sources of a completed turn.
func (m *Model) renderCitations(cs []model.Citation) string {
	var b strings.Builder
	b.WriteString(m.theme.CitationTitle.Render("Sources:"))
	for _, c := range cs {
		b.WriteString("\n  ")
		if c.Title != "" {
			b.WriteString(m.theme.CitationTitle.Render(c.Title) + " ")
		}
		b.WriteString(m.theme.CitationURI.Render(c.URI))
	}
	return b.String()
}

// activeLabel returns the display label of the active target.
func (m *Model) activeLabel() string {
	id := m.activeID()
	for _, t := range m.targets {
		if t.ID == id {
			return t.Label
		}
	}
	return "Model"
}
