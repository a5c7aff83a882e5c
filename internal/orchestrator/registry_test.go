// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// seedPipelines registers n pipeline targets with distinguishable state.
func seedPipelines(r *Registry, n int) {
	for i := 0; i < n; i++ {
		t := model.NewPipelineTarget(i, "gemini-a", "")
		st := r.EnsureTarget(t)
		st.mu.Lock()
		st.session = &fakeSession{}
		st.config = model.NewSampled(float32(i), 0.9, "")
		st.transcript.Append(model.NewUserTurn("prompt-"+t.ID, nil))
		st.draft.Text = "draft-" + t.ID
		st.mu.Unlock()
	}
}

func TestRegistry_TargetsInInsertionOrder(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	seedPipelines(r, 3)

	targets := r.Targets()
	require.Len(t, targets, 3)
	for i, tgt := range targets {
		assert.Equal(t, model.PipelineID(i), tgt.ID)
	}
}

func TestRegistry_RemoveTarget(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	r.EnsureTarget(model.NewModelTarget("gemini-a"))
	r.EnsureTarget(model.NewModelTarget("gemini-b"))

	r.RemoveTarget("gemini-a")

	assert.Nil(t, r.TranscriptSnapshot("gemini-a"))
	require.Len(t, r.Targets(), 1)
	assert.Equal(t, "gemini-b", r.Targets()[0].ID)
}

// =============================================================================
// RE-KEYING TESTS
// =============================================================================

func TestRemovePipeline_RekeysSubsequentTargets(t *testing.T) {
	cancels := NewCancelTable()
	r := NewRegistry(cancels)
	seedPipelines(r, 3)

	// A stop flag on old pipeline-2 must follow it to its new id.
	cancels.Request("pipeline-2", "turn-x")

	r.RemovePipeline(1)

	targets := r.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "pipeline-0", targets[0].ID)
	assert.Equal(t, "pipeline-1", targets[1].ID)

	// Old index 0 keeps its own state: no cross-contamination.
	tr0 := r.TranscriptSnapshot("pipeline-0")
	assert.Equal(t, "prompt-pipeline-0", tr0.Turns[0].Text)
	assert.Equal(t, "draft-pipeline-0", r.Draft("pipeline-0").Text)

	// Old index 2 is now addressable at index 1 with all state migrated.
	tr1 := r.TranscriptSnapshot("pipeline-1")
	assert.Equal(t, "prompt-pipeline-2", tr1.Turns[0].Text)
	assert.Equal(t, "draft-pipeline-2", r.Draft("pipeline-1").Text)
	assert.True(t, r.HasSession("pipeline-1"))

	cfg, ok := r.Config("pipeline-1")
	require.True(t, ok)
	assert.Equal(t, float32(2), cfg.(model.Sampled).Temperature, "session config migrated")

	// Cancellation flags migrated in the same pass.
	assert.True(t, cancels.IsCancelled("pipeline-1", "turn-x"))
	assert.False(t, cancels.IsCancelled("pipeline-2", "turn-x"))
}

func TestRemovePipeline_First(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	seedPipelines(r, 2)

	r.RemovePipeline(0)

	targets := r.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, "pipeline-0", targets[0].ID)
	assert.Equal(t, "prompt-pipeline-1", r.TranscriptSnapshot("pipeline-0").Turns[0].Text)
}

func TestRemovePipeline_Last(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	seedPipelines(r, 2)

	r.RemovePipeline(1)

	targets := r.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, "prompt-pipeline-0", r.TranscriptSnapshot("pipeline-0").Turns[0].Text)
}

func TestRemovePipeline_UnknownIndexIsNoOp(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	seedPipelines(r, 2)

	r.RemovePipeline(7)

	assert.Len(t, r.Targets(), 2)
}

func TestRegistry_SkipsNonPipelineTargetsOnRekey(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	r.EnsureTarget(model.NewModelTarget("gemini-a"))
	seedPipelines(r, 2)

	r.RemovePipeline(0)

	ids := make([]string, 0, 2)
	for _, tgt := range r.Targets() {
		ids = append(ids, tgt.ID)
	}
	assert.Equal(t, []string{"gemini-a", "pipeline-0"}, ids)
}

// =============================================================================
// DRAFT TESTS
// =============================================================================

func TestRegistry_DraftIsPerTarget(t *testing.T) {
	r := NewRegistry(NewCancelTable())
	r.EnsureTarget(model.NewModelTarget("gemini-a"))
	r.EnsureTarget(model.NewModelTarget("gemini-b"))

	r.UpdateDraft("gemini-a", func(d *model.Draft) {
		d.Text = "mine"
		d.Attachments = append(d.Attachments, "a.png")
	})

	assert.Equal(t, "mine", r.Draft("gemini-a").Text)
	assert.True(t, r.Draft("gemini-b").IsEmpty())

	r.ClearDraft("gemini-a")
	assert.True(t, r.Draft("gemini-a").IsEmpty())
}
