// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"iter"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
	"github.com/jeranaias/fanout-tui/internal/orchestrator"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// stubSession replies with a fixed text to every message.
type stubSession struct {
	reply string
}

func (s *stubSession) SendMessageStream(ctx context.Context, parts []model.Part) iter.Seq2[*gemini.StreamChunk, error] {
	return func(yield func(*gemini.StreamChunk, error) bool) {
		yield(&gemini.StreamChunk{Text: s.reply}, nil)
	}
}

// stubFactory creates a stubSession echoing the model id.
func stubFactory(ctx context.Context, modelID string, cfg model.GenConfig) (orchestrator.ChatSession, error) {
	return &stubSession{reply: "reply from " + modelID}, nil
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.Models = []string{"gemini-a", "gemini-b"}
	cfg.DefaultModel = "gemini-a"
	cfg.Pipelines = []config.PipelineConfig{
		{Temperature: 0.1, TopP: 0.5},
		{Temperature: 1.5, TopP: 0.9, Label: "hot"},
	}

	m := New(cfg, orchestrator.New(stubFactory), styles.NewTheme("dark"), opts)
	m.resize(100, 40)
	return m
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNewBuildsModelTargets(t *testing.T) {
	m := newTestModel(t, Options{})

	require.Len(t, m.targets, 2)
	assert.Equal(t, "gemini-a", m.targets[0].ID)
	assert.Equal(t, model.TargetModel, m.targets[0].Kind)

	// Targets are seeded into the registry before the first send
	assert.Len(t, m.orch.Registry().Targets(), 2)
	assert.Equal(t, 2, m.tabs.Len())
}

func TestNewDeduplicatesModels(t *testing.T) {
	m := newTestModel(t, Options{Models: []string{"gemini-x", "gemini-x", "gemini-y"}})
	require.Len(t, m.targets, 2)
}

func TestNewBuildsPipelineTargets(t *testing.T) {
	m := newTestModel(t, Options{Pipelines: true})

	require.Len(t, m.targets, 2)
	assert.Equal(t, "pipeline-0", m.targets[0].ID)
	assert.Equal(t, model.TargetPipeline, m.targets[0].Kind)
	assert.Equal(t, "hot", m.targets[1].Label)

	// Every pipeline resolves its own sampling preset
	cfg := m.orch.ConfigFor(m.targets[1])
	sampled, ok := cfg.(model.Sampled)
	require.True(t, ok)
	assert.InDelta(t, 1.5, float64(sampled.Temperature), 1e-6)
}

func TestPipelineFallbackPresets(t *testing.T) {
	cfg := config.Default()
	cfg.Pipelines = nil
	m := New(cfg, orchestrator.New(stubFactory), styles.NewTheme("dark"), Options{Pipelines: true})

	require.Len(t, m.targets, len(fallbackPresets))
}

// =============================================================================
// FAN-OUT FLOW TESTS
// =============================================================================

func TestFanoutFlow(t *testing.T) {
	m := newTestModel(t, Options{})

	cmd := m.startFanout("hello", nil)
	require.NotNil(t, cmd)
	assert.True(t, m.started)
	assert.True(t, m.sending)

	// Drive the dispatch command directly; it blocks until all settle
	msg := m.fanoutCmd("hello", nil)()
	finished, ok := msg.(FanoutFinishedMsg)
	require.True(t, ok)
	require.NoError(t, finished.Err)

	_, _ = m.Update(finished)
	assert.False(t, m.sending)

	for _, id := range []string{"gemini-a", "gemini-b"} {
		snap := m.orch.Registry().TranscriptSnapshot(id)
		require.NotNil(t, snap)
		assert.Equal(t, "reply from "+id, snap.Last().Text)
	}
}

func TestFanoutErrorReenablesInitialSend(t *testing.T) {
	m := newTestModel(t, Options{})
	m.started = true
	m.sending = true

	_, _ = m.Update(FanoutFinishedMsg{Err: orchestrator.ErrEmptyContent})

	assert.False(t, m.sending)
	assert.False(t, m.started, "a failed fan-out must allow a corrected prompt")
	assert.NotEmpty(t, m.errText)
}

func TestSubmitEmptyComposerIsNoop(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Nil(t, m.handleSubmit())
	assert.False(t, m.started)
}

func TestSubmitWhileSendingIsRejected(t *testing.T) {
	m := newTestModel(t, Options{})
	m.started = true
	m.sending = true
	m.input.SetValue("next question")

	assert.Nil(t, m.handleSubmit())
	assert.Contains(t, m.errText, "still streaming")
}

// =============================================================================
// COMPOSER COMMAND TESTS
// =============================================================================

func TestSlashCommands(t *testing.T) {
	m := newTestModel(t, Options{})

	m.handleCommand("/attach notes.txt photo.png")
	assert.Equal(t, []string{"notes.txt", "photo.png"}, m.attachments)

	m.handleCommand("/drop")
	assert.Empty(t, m.attachments)

	m.handleCommand("/all")
	assert.True(t, m.broadcast)

	m.handleCommand("/bogus")
	assert.Contains(t, m.errText, "unknown command")
}

// =============================================================================
// TARGET CLOSE TESTS
// =============================================================================

func TestClosePipelineRenumbersSurvivors(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultModel = "gemini-a"
	cfg.Pipelines = []config.PipelineConfig{
		{Temperature: 0.1, TopP: 0.5, Label: "cold"},
		{Temperature: 0.7, TopP: 0.9, Label: "warm"},
		{Temperature: 1.5, TopP: 0.9, Label: "hot"},
	}
	m := New(cfg, orchestrator.New(stubFactory), styles.NewTheme("dark"), Options{Pipelines: true})
	m.resize(100, 40)

	m.tabs.SetActiveID("pipeline-1")
	m.handleCommand("/close")

	require.Len(t, m.targets, 2)
	assert.Equal(t, []string{"cold", "hot"}, m.tabs.Titles())
	assert.Equal(t, "pipeline-1", m.targets[1].ID, "survivor shifted down by one")

	// The renumbered pipeline resolves the preset that moved with it
	gc := m.orch.ConfigFor(m.targets[1])
	sampled, ok := gc.(model.Sampled)
	require.True(t, ok)
	assert.InDelta(t, 1.5, float64(sampled.Temperature), 1e-6)

	var ids []string
	for _, tgt := range m.orch.Registry().Targets() {
		ids = append(ids, tgt.ID)
	}
	assert.ElementsMatch(t, []string{"pipeline-0", "pipeline-1"}, ids)
}

func TestCloseModelTargetDropsIt(t *testing.T) {
	m := newTestModel(t, Options{})

	m.handleCommand("/close")
	require.Len(t, m.targets, 1)
	assert.Equal(t, "gemini-b", m.targets[0].ID)
	assert.Nil(t, m.orch.Registry().TranscriptSnapshot("gemini-a"))

	m.handleCommand("/close")
	require.Len(t, m.targets, 1, "the last target stays open")
	assert.Contains(t, m.errText, "last target")
}

func TestCloseWhileSendingIsRejected(t *testing.T) {
	m := newTestModel(t, Options{})
	m.sending = true

	m.handleCommand("/close")
	require.Len(t, m.targets, 2)
	assert.Contains(t, m.errText, "still streaming")
}

// =============================================================================
// DRAFT AND TAB TESTS
// =============================================================================

func TestDraftsArePerTarget(t *testing.T) {
	m := newTestModel(t, Options{})
	m.input.SetValue("draft for a")
	m.attachments = []string{"a.txt"}

	// Simulate the tab-switch path
	m.saveDraft()
	m.tabs.Next()
	m.loadDraft()

	assert.Empty(t, m.input.Value(), "second target starts with an empty draft")
	assert.Empty(t, m.attachments)

	m.saveDraft()
	m.tabs.Prev()
	m.loadDraft()

	assert.Equal(t, "draft for a", m.input.Value())
	assert.Equal(t, []string{"a.txt"}, m.attachments)
}

func TestBroadcastKeyToggles(t *testing.T) {
	m := newTestModel(t, Options{})

	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.True(t, m.broadcast)

	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.False(t, m.broadcast)
}

// =============================================================================
// VIEW TESTS
// =============================================================================

func TestViewShowsTranscript(t *testing.T) {
	m := newTestModel(t, Options{})

	msg := m.fanoutCmd("hello", nil)()
	_, _ = m.Update(msg)
	m.renderViewport(true)

	view := m.View()
	assert.Contains(t, view, "reply from gemini-a")
	assert.Contains(t, view, "fanout")
}

func TestRenderModelTurnStates(t *testing.T) {
	m := newTestModel(t, Options{})

	loading := model.NewModelTurn()
	assert.Contains(t, m.renderModelTurn(loading, 80), "waiting for first token")

	stopped := model.NewModelTurn()
	stopped.AppendText("partial answer")
	stopped.Stop()
	out := m.renderModelTurn(stopped, 80)
	assert.Contains(t, out, "partial answer")
	assert.Contains(t, out, "stopped by user")

	failed := model.NewModelTurn()
	failed.Fail(orchestrator.ErrEmptyContent)
	assert.Contains(t, m.renderModelTurn(failed, 80), "error:")
}

func TestRenderCitations(t *testing.T) {
	m := newTestModel(t, Options{})
	m.cfg.UI.ShowCitations = true

	turn := model.NewModelTurn()
	turn.AppendText("answer")
	turn.MergeCitations([]model.Citation{{URI: "https://example.com", Title: "Example"}})
	turn.Complete()

	out := m.renderModelTurn(turn, 80)
	assert.Contains(t, out, "Example")
	assert.Contains(t, out, "example.com")
}

func TestWelcomeListsTargets(t *testing.T) {
	m := newTestModel(t, Options{})
	out := m.renderTranscript("gemini-a")
	assert.Contains(t, out, "every target")
}
