// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/store"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// listenForUpdates waits for the next transcript-update notification from
// the orchestrator hook. Re-issued after every received message.
func (m *Model) listenForUpdates() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		return TranscriptUpdatedMsg{TargetID: <-updates}
	}
}

// fanoutCmd dispatches the initial prompt to every target and blocks until
// all streams settle.
func (m *Model) fanoutCmd(text string, files []string) tea.Cmd {
	orch := m.orch
	targets := append([]model.Target(nil), m.targets...)
	cfg := m.cfg.TargetGenConfig()
	return func() tea.Msg {
		return FanoutFinishedMsg{Err: orch.SendInitial(context.Background(), targets, text, files, cfg)}
	}
}

// followUpCmd dispatches a follow-up from the origin target.
func (m *Model) followUpCmd(originID string, broadcast bool, text string, files []string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		return FollowUpFinishedMsg{Err: orch.SendFollowUp(context.Background(), originID, broadcast, text, files)}
	}
}

// archiveCmd persists the current run to the local archive.
func (m *Model) archiveCmd() tea.Cmd {
	archive := m.opts.Archive
	reg := m.orch.Registry()
	targets := append([]model.Target(nil), m.targets...)
	return func() tea.Msg {
		prompt := ""
		archived := make([]store.ArchivedTarget, 0, len(targets))
		for _, t := range targets {
			snap := reg.TranscriptSnapshot(t.ID)
			if snap == nil || snap.IsEmpty() {
				continue
			}
			if prompt == "" {
				if first := snap.FirstUserTurn(); first != nil {
					prompt = first.Text
				}
			}
			archived = append(archived, store.ArchivedTarget{
				TargetID:   t.ID,
				Label:      t.Label,
				Transcript: snap,
			})
		}
		if len(archived) == 0 {
			return RunArchivedMsg{}
		}
		id, err := archive.SaveRun(context.Background(), prompt, archived)
		return RunArchivedMsg{RunID: id, Err: err}
	}
}

// startFanout marks the run started and launches the fan-out.
func (m *Model) startFanout(text string, files []string) tea.Cmd {
	m.started = true
	m.sending = true
	m.errText = ""
	m.spin.SetMessage("Fanning out")
	return tea.Batch(m.spin.Start(), m.fanoutCmd(text, files))
}

// startFollowUp launches a follow-up from the active target.
func (m *Model) startFollowUp(text string, files []string) tea.Cmd {
	m.sending = true
	m.errText = ""
	if m.broadcast {
		m.spin.SetMessage("Broadcasting")
	} else {
		m.spin.SetMessage("Streaming")
	}
	return tea.Batch(m.spin.Start(), m.followUpCmd(m.activeID(), m.broadcast, text, files))
}

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles all Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderViewport(true)

	case TranscriptUpdatedMsg:
		if msg.TargetID == m.activeID() {
			m.renderViewport(true)
		}
		m.refreshChrome()
		cmds = append(cmds, m.listenForUpdates())

	case FanoutFinishedMsg:
		m.sending = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			// Nothing was dispatched; allow a corrected initial prompt
			m.started = false
		}
		m.refreshChrome()
		m.renderViewport(true)

	case FollowUpFinishedMsg:
		m.sending = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		m.refreshChrome()
		m.renderViewport(true)

	case TemplatesReloadedMsg:
		if msg.Err != nil {
			m.errText = "template reload: " + msg.Err.Error()
		} else if m.picker.visible {
			m.reloadPicker()
		}

	case RunArchivedMsg:
		m.archived = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		// Cursor blink and other component-internal messages
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.visible {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.opts.Archive != nil && m.started && !m.archived {
			return m, m.archiveCmd()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		m.stopActive()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.saveDraft()
		m.tabs.Next()
		m.loadDraft()
		m.renderViewport(true)
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.saveDraft()
		m.tabs.Prev()
		m.loadDraft()
		m.renderViewport(true)
		return m, nil

	case key.Matches(msg, m.keys.Broadcast):
		m.broadcast = !m.broadcast
		m.status.Broadcast = m.broadcast
		broadcast := m.broadcast
		m.orch.Registry().UpdateDraft(m.activeID(), func(d *model.Draft) {
			d.SendToAll = broadcast
		})
		return m, nil

	case key.Matches(msg, m.keys.Templates):
		m.openPicker()
		return m, nil

	case key.Matches(msg, m.keys.ClearErr):
		m.errText = ""
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit dispatches the composer content.
func (m *Model) handleSubmit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleCommand(text)
	}

	if text == "" && len(m.attachments) == 0 {
		return nil
	}
	if m.sending {
		m.errText = "still streaming: wait for targets to settle or press Esc"
		return nil
	}

	files := m.attachments
	m.attachments = nil
	m.input.Reset()

	if !m.started {
		return m.startFanout(text, files)
	}
	return m.startFollowUp(text, files)
}

// handleCommand executes a slash command from the composer.
func (m *Model) handleCommand(text string) tea.Cmd {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/attach":
		if len(args) == 0 {
			m.errText = "usage: /attach FILE"
			return nil
		}
		m.attachments = append(m.attachments, args...)
	case "/drop":
		m.attachments = nil
	case "/all":
		m.broadcast = !m.broadcast
		m.status.Broadcast = m.broadcast
	case "/close":
		m.closeActive()
	case "/quit":
		if m.opts.Archive != nil && m.started && !m.archived {
			return m.archiveCmd()
		}
		return tea.Quit
	default:
		m.errText = "unknown command " + cmd
	}
	return nil
}

// closeActive removes the active target's tab. Closing a pipeline renumbers
// the pipelines after it; closing a model target just drops it.
func (m *Model) closeActive() {
	if len(m.targets) <= 1 {
		m.errText = "cannot close the last target"
		return
	}
	if m.sending {
		m.errText = "still streaming: wait for targets to settle or press Esc"
		return
	}

	id := m.activeID()
	if idx := model.PipelineIndex(id); idx >= 0 {
		m.orch.Registry().RemovePipeline(idx)
		m.pipelines = append(m.pipelines[:idx], m.pipelines[idx+1:]...)
		m.targets = m.targets[:0]
		for i, p := range m.pipelines {
			m.targets = append(m.targets, model.NewPipelineTarget(i, m.cfg.DefaultModel, p.Name()))
		}
	} else {
		m.orch.Registry().RemoveTarget(id)
		for i, t := range m.targets {
			if t.ID == id {
				m.targets = append(m.targets[:i], m.targets[i+1:]...)
				break
			}
		}
	}

	m.refreshChrome()
	m.loadDraft()
	m.renderViewport(true)
}

// stopActive requests cancellation of the active target's loading turn.
func (m *Model) stopActive() {
	id := m.activeID()
	snap := m.orch.Registry().TranscriptSnapshot(id)
	if snap == nil {
		return
	}
	if last := snap.Last(); last != nil && last.IsLoading {
		m.orch.RequestStop(id, last.ID)
	}
}

// =============================================================================
// TEMPLATE PICKER
// =============================================================================

// openPicker shows the template picker overlay.
func (m *Model) openPicker() {
	if m.opts.Templates == nil {
		m.errText = "no template store configured"
		return
	}
	m.reloadPicker()
	m.picker.visible = true
	m.picker.index = 0
}

// reloadPicker refreshes the picker items from the store.
func (m *Model) reloadPicker() {
	m.picker.items = m.opts.Templates.List()
	if m.picker.index >= len(m.picker.items) {
		m.picker.index = 0
	}
}

// handlePickerKey routes keys while the picker overlay is open.
func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.picker.index > 0 {
			m.picker.index--
		}
	case "down", "j":
		if m.picker.index < len(m.picker.items)-1 {
			m.picker.index++
		}
	case "enter":
		if len(m.picker.items) > 0 {
			m.input.SetValue(m.picker.items[m.picker.index].Prompt)
			m.input.CursorEnd()
		}
		m.picker.visible = false
	case "esc", "ctrl+t":
		m.picker.visible = false
	}
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// chromeHeight is the number of terminal rows used by everything that is
// not the transcript viewport.
const chromeHeight = 8

// resize recomputes component dimensions for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.tabs.SetWidth(width)
	m.status.SetWidth(width)
	m.input.Width = width - 6

	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
}

// renderViewport re-renders the active transcript into the viewport. When
// stick is true and the view was already at the bottom, it follows new
// output.
func (m *Model) renderViewport(stick bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript(m.activeID()))
	if stick && atBottom {
		m.viewport.GotoBottom()
	}
}
