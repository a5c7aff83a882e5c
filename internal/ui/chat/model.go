// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/orchestrator"
	"github.com/jeranaias/fanout-tui/internal/store"
	"github.com/jeranaias/fanout-tui/internal/ui/components"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// updateBuffer is the capacity of the transcript-update channel. Hook sends
// are non-blocking, so a slow repaint can never stall a streaming goroutine;
// a dropped notification is repainted by the next one.
const updateBuffer = 64

// fallbackPresets are used in pipeline mode when the config carries no
// sampling presets of its own.
var fallbackPresets = []config.PipelineConfig{
	{Temperature: 0.2, TopP: 0.95},
	{Temperature: 0.7, TopP: 0.95},
	{Temperature: 1.2, TopP: 0.95},
}

// Options configure the chat view at startup.
type Options struct {
	// Pipelines launches config-test mode: one model fanned out across
	// sampling presets instead of multiple models.
	Pipelines bool

	// Models overrides the configured target models in chat mode.
	Models []string

	// InitialPrompt, when set, is dispatched to all targets immediately.
	InitialPrompt string
	InitialFiles  []string

	Templates *store.TemplateStore
	Archive   *store.Archive
}

// pickerState is the template picker overlay.
type pickerState struct {
	visible bool
	items   []store.Template
	index   int
}

// Model is the Bubble Tea model for the fan-out chat view.
type Model struct {
	cfg   *config.Config
	orch  *orchestrator.Orchestrator
	theme *styles.Theme
	keys  KeyMap
	opts  Options

	targets   []model.Target
	pipelines []config.PipelineConfig

	input    textinput.Model
	viewport viewport.Model
	tabs     *components.TabBar
	status   *components.StatusBar
	spin     components.Spinner

	updates chan string

	started   bool // first prompt has been dispatched
	sending   bool // a fan-out or follow-up is settling
	broadcast bool
	archived  bool

	// attachments staged for the next send, mirrored into the active
	// target's draft on tab switch
	attachments []string

	picker  pickerState
	errText string

	width  int
	height int
	ready  bool
}

// New creates the chat view and wires the orchestrator's update hook into
// the Bubble Tea loop.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, theme *styles.Theme, opts Options) *Model {
	m := &Model{
		cfg:     cfg,
		orch:    orch,
		theme:   theme,
		keys:    DefaultKeyMap(),
		opts:    opts,
		updates: make(chan string, updateBuffer),
		width:   80,
		height:  24,
	}

	m.buildTargets()

	orch.OnUpdate = func(targetID string) {
		select {
		case m.updates <- targetID:
		default:
		}
	}
	if opts.Pipelines {
		// Read m.pipelines at call time: closing a pipeline renumbers the
		// survivors, and the preset list shrinks with them. The list only
		// mutates between sends, never while one is settling.
		orch.ConfigFor = func(t model.Target) model.GenConfig {
			if t.Kind != model.TargetPipeline {
				return nil
			}
			idx := model.PipelineIndex(t.ID)
			if idx < 0 || idx >= len(m.pipelines) {
				return nil
			}
			return m.pipelines[idx].GenConfig()
		}
	}

	ti := textinput.New()
	ti.Placeholder = "Type a prompt... (/attach FILE to add a file)"
	ti.CharLimit = 8192
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()
	m.input = ti

	m.tabs = components.NewTabBar(theme)
	m.tabs.SetTabs(m.tabStates())

	m.status = components.NewStatusBar(theme)
	if opts.Pipelines {
		m.status.Mode = components.ModePipeline
	}
	_, grounded := cfg.TargetGenConfig().(model.Grounded)
	m.status.Grounded = grounded && !opts.Pipelines
	m.status.SetCounts(len(m.targets), 0)

	m.spin = components.NewSpinner(theme)

	return m
}

// buildTargets resolves the target set from options and config, and seeds
// the registry so every tab exists before the first send.
func (m *Model) buildTargets() {
	if m.opts.Pipelines {
		m.pipelines = m.cfg.Pipelines
		if len(m.pipelines) == 0 {
			m.pipelines = fallbackPresets
		}
		for i, p := range m.pipelines {
			m.targets = append(m.targets, model.NewPipelineTarget(i, m.cfg.DefaultModel, p.Name()))
		}
	} else {
		models := m.opts.Models
		if len(models) == 0 {
			models = m.cfg.Models
		}
		if len(models) == 0 {
			models = []string{m.cfg.DefaultModel}
		}
		seen := make(map[string]struct{}, len(models))
		for _, id := range models {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			m.targets = append(m.targets, model.NewModelTarget(id))
		}
	}

	for _, t := range m.targets {
		m.orch.Registry().EnsureTarget(t)
	}
}

// Init starts the update listener and dispatches any initial prompt.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.listenForUpdates()}
	if m.opts.InitialPrompt != "" {
		cmds = append(cmds, m.startFanout(m.opts.InitialPrompt, m.opts.InitialFiles))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// activeID returns the id of the active tab.
func (m *Model) activeID() string {
	return m.tabs.ActiveID()
}

// tabStates derives the tab bar entries from the registry.
func (m *Model) tabStates() []components.Tab {
	reg := m.orch.Registry()
	tabs := make([]components.Tab, 0, len(m.targets))
	for _, t := range m.targets {
		tab := components.Tab{ID: t.ID, Label: t.Label}
		if snap := reg.TranscriptSnapshot(t.ID); snap != nil {
			if last := snap.Last(); last != nil && last.Role == model.RoleModel {
				tab.Streaming = last.IsLoading
				tab.Errored = last.Err != ""
				tab.Stopped = last.StoppedByUser
			}
		}
		tabs = append(tabs, tab)
	}
	return tabs
}

// streamingCount returns how many targets currently hold a loading turn.
func (m *Model) streamingCount() int {
	reg := m.orch.Registry()
	n := 0
	for _, t := range m.targets {
		if snap := reg.TranscriptSnapshot(t.ID); snap != nil && snap.HasLoadingTurn() {
			n++
		}
	}
	return n
}

// refreshChrome re-derives the tab bar and status bar from registry state.
func (m *Model) refreshChrome() {
	active := m.tabs.Active()
	m.tabs.SetTabs(m.tabStates())
	m.tabs.SetActive(active)

	streaming := m.streamingCount()
	m.status.SetCounts(len(m.targets), streaming)
	m.status.Broadcast = m.broadcast
	if streaming == 0 {
		m.spin.Stop()
	}
}

// saveDraft stores the composer state into the active target's draft.
func (m *Model) saveDraft() {
	text := m.input.Value()
	files := append([]string(nil), m.attachments...)
	broadcast := m.broadcast
	m.orch.Registry().UpdateDraft(m.activeID(), func(d *model.Draft) {
		d.Text = text
		d.Attachments = files
		d.SendToAll = broadcast
	})
}

// loadDraft restores the composer state from the active target's draft.
func (m *Model) loadDraft() {
	d := m.orch.Registry().Draft(m.activeID())
	m.input.SetValue(d.Text)
	m.input.CursorEnd()
	m.attachments = d.Attachments
	m.broadcast = d.SendToAll
	m.status.Broadcast = d.SendToAll
}
