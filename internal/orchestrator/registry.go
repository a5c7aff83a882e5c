// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import (
	"context"
	"sync"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// PER-TARGET STATE
// =============================================================================

// targetState bundles everything owned by one target. All fields behind mu;
// the per-target lock is what makes concurrent reconcilers safe on a
// genuinely multi-threaded runtime.
type targetState struct {
	mu sync.Mutex

	target     model.Target
	session    ChatSession
	config     model.GenConfig
	transcript *model.Transcript
	draft      model.Draft

	// cancelStream aborts the in-flight stream of the current session.
	// Replaced (and the predecessor invoked) whenever a new initial send
	// supersedes the session.
	cancelStream context.CancelFunc
}

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// Registry maps target ids to their session, frozen configuration snapshot,
// transcript, and follow-up draft. It owns target ordering and the atomic
// pipeline re-keying pass.
type Registry struct {
	mu      sync.Mutex
	order   []string
	states  map[string]*targetState
	cancels *CancelTable
}

// NewRegistry creates an empty registry sharing the given cancel table so
// re-keying can migrate stop flags in the same pass.
func NewRegistry(cancels *CancelTable) *Registry {
	return &Registry{
		states:  make(map[string]*targetState),
		cancels: cancels,
	}
}

// EnsureTarget registers a target if it is not yet known, preserving
// insertion order. Returns its state.
func (r *Registry) EnsureTarget(t model.Target) *targetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[t.ID]; ok {
		return st
	}
	st := &targetState{
		target:     t,
		transcript: model.NewTranscript(),
	}
	r.states[t.ID] = st
	r.order = append(r.order, t.ID)
	return st
}

// state returns the state for a target id, or nil.
func (r *Registry) state(id string) *targetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[id]
}

// Targets returns all registered targets in insertion order.
func (r *Registry) Targets() []model.Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Target, 0, len(r.order))
	for _, id := range r.order {
		st := r.states[id]
		st.mu.Lock()
		out = append(out, st.target)
		st.mu.Unlock()
	}
	return out
}

// TargetsOfKind returns registered targets of one kind, in order. This is
// the eligible set for a broadcast follow-up.
func (r *Registry) TargetsOfKind(kind model.TargetKind) []model.Target {
	var out []model.Target
	for _, t := range r.Targets() {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// HasSession reports whether the target has a live session.
func (r *Registry) HasSession(id string) bool {
	st := r.state(id)
	if st == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session != nil
}

// Config returns the frozen configuration snapshot of the target's session.
func (r *Registry) Config(id string) (model.GenConfig, bool) {
	st := r.state(id)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return nil, false
	}
	return st.config, true
}

// replaceSession installs a new session and configuration snapshot on the
// state, cancelling the superseded session's in-flight stream so a stale
// reconciler cannot keep consuming network data.
func (st *targetState) replaceSession(sess ChatSession, cfg model.GenConfig, cancel context.CancelFunc) {
	st.mu.Lock()
	old := st.cancelStream
	st.session = sess
	st.config = cfg
	st.cancelStream = cancel
	st.mu.Unlock()
	if old != nil {
		old()
	}
}

// RemoveTarget deletes a target and all of its state. For pipeline targets
// use RemovePipeline, which also renumbers the survivors.
func (r *Registry) RemoveTarget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) {
	st, ok := r.states[id]
	if !ok {
		return
	}
	st.mu.Lock()
	cancel := st.cancelStream
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	delete(r.states, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// =============================================================================
// TRANSCRIPT AND DRAFT ACCESS
// =============================================================================

// TranscriptSnapshot returns a deep copy of the target's transcript, safe to
// render while the live transcript keeps mutating.
func (r *Registry) TranscriptSnapshot(id string) *model.Transcript {
	st := r.state(id)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.transcript.Clone()
}

// Draft returns a copy of the target's pending follow-up draft.
func (r *Registry) Draft(id string) model.Draft {
	st := r.state(id)
	if st == nil {
		return model.Draft{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	d := st.draft
	d.Attachments = append([]string(nil), st.draft.Attachments...)
	return d
}

// UpdateDraft mutates the target's draft under its lock.
func (r *Registry) UpdateDraft(id string, fn func(*model.Draft)) {
	st := r.state(id)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.draft)
}

// ClearDraft resets the target's draft text and attachment queue.
func (r *Registry) ClearDraft(id string) {
	r.UpdateDraft(id, func(d *model.Draft) { d.Clear() })
}

// =============================================================================
// PIPELINE RE-KEYING
// =============================================================================

// RemovePipeline removes the pipeline at the given index and renumbers every
// subsequent pipeline target down by one, migrating sessions, transcripts,
// drafts, and cancellation flags to the new ids in a single atomic pass.
// Non-pipeline targets are untouched.
func (r *Registry) RemovePipeline(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := model.PipelineID(idx)
	if _, ok := r.states[removed]; !ok {
		return
	}
	r.removeLocked(removed)

	// Shift survivors down in ascending order so no re-key collides with an
	// id that has not moved yet.
	for j := idx + 1; ; j++ {
		oldID := model.PipelineID(j)
		st, ok := r.states[oldID]
		if !ok {
			break
		}
		newID := model.PipelineID(j - 1)

		delete(r.states, oldID)
		r.states[newID] = st
		for i, v := range r.order {
			if v == oldID {
				r.order[i] = newID
				break
			}
		}
		st.mu.Lock()
		st.target.ID = newID
		st.mu.Unlock()

		r.cancels.rekey(oldID, newID)
	}
}
