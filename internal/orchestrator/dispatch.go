// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/jeranaias/fanout-tui/internal/attach"
	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// SESSION CONTRACT
// =============================================================================

// ChatSession is the streaming-session contract the orchestrator consumes.
// *gemini.Session satisfies it; tests substitute scripted fakes.
type ChatSession interface {
	SendMessageStream(ctx context.Context, parts []model.Part) iter.Seq2[*gemini.StreamChunk, error]
}

// SessionFactory creates a new remote session for a model with a frozen
// configuration snapshot.
type SessionFactory func(ctx context.Context, modelID string, cfg model.GenConfig) (ChatSession, error)

// EncodeFunc converts a file path into an inline attachment. Injected so
// tests can script encoding failures.
type EncodeFunc func(path string) (*attach.Encoded, error)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator builds outbound content, creates or reuses sessions per
// target, and launches one streaming exchange per target concurrently.
type Orchestrator struct {
	registry *Registry
	cancels  *CancelTable
	factory  SessionFactory
	encode   EncodeFunc

	// OnUpdate, when set, is invoked (outside all locks) every time a
	// target's transcript changes. The TUI uses it to schedule a repaint.
	OnUpdate func(targetID string)

	// ConfigFor, when set, overrides the configuration passed to
	// SendInitial on a per-target basis. Config-test mode uses it to give
	// each pipeline target its own sampling preset.
	ConfigFor func(target model.Target) model.GenConfig
}

// New creates an orchestrator with its own registry and cancel table.
func New(factory SessionFactory) *Orchestrator {
	cancels := NewCancelTable()
	return &Orchestrator{
		registry: NewRegistry(cancels),
		cancels:  cancels,
		factory:  factory,
		encode:   attach.Encode,
	}
}

// Registry exposes per-target state for the UI layer.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// notify invokes the update hook, if any.
func (o *Orchestrator) notify(targetID string) {
	if o.OnUpdate != nil {
		o.OnUpdate(targetID)
	}
}

// =============================================================================
// CONTENT ASSEMBLY
// =============================================================================

// buildContent assembles the outbound parts for one send: trimmed prompt
// text first, then each encodable attachment. An attachment that fails to
// encode is omitted from the parts but keeps its preview, so the send
// degrades instead of aborting. Returns ErrEmptyContent when nothing at all
// is dispatchable.
func (o *Orchestrator) buildContent(text string, files []string) ([]model.Part, []model.AttachmentPreview, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && len(files) == 0 {
		return nil, nil, ErrEmptyContent
	}

	var parts []model.Part
	if trimmed != "" {
		parts = append(parts, model.TextPart(trimmed))
	}

	previews := make([]model.AttachmentPreview, 0, len(files))
	for _, path := range files {
		enc, err := o.encode(path)
		if err != nil {
			previews = append(previews, model.AttachmentPreview{Name: baseName(path)})
			continue
		}
		previews = append(previews, model.AttachmentPreview{Name: enc.Name, MIMEType: enc.MIMEType})
		parts = append(parts, model.BlobPart(enc.MIMEType, enc.Data))
	}

	if len(parts) == 0 {
		return nil, nil, ErrEmptyContent
	}
	return parts, previews, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// =============================================================================
// INITIAL SEND
// =============================================================================

// SendInitial dispatches one prompt to every selected target concurrently,
// creating a fresh session per target (discarding any prior one). It blocks
// until every per-target dispatch has settled; per-target failures are
// recorded on that target's turn and never returned here. The returned error
// is only a top-level precondition failure, raised before any state is
// touched.
func (o *Orchestrator) SendInitial(ctx context.Context, targets []model.Target, text string, files []string, cfg model.GenConfig) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	parts, previews, err := o.buildContent(text, files)
	if err != nil {
		return err
	}

	// Append user and placeholder turns for every target synchronously, in
	// dispatch order, before any network call begins.
	type launch struct {
		st   *targetState
		turn *model.Turn
		cfg  model.GenConfig
	}
	launches := make([]launch, 0, len(targets))
	for _, tgt := range targets {
		st := o.registry.EnsureTarget(tgt)
		placeholder := model.NewModelTurn()
		st.mu.Lock()
		st.transcript.Append(model.NewUserTurn(strings.TrimSpace(text), previews))
		st.transcript.Append(placeholder)
		st.mu.Unlock()
		o.notify(tgt.ID)

		targetCfg := cfg
		if o.ConfigFor != nil {
			if c := o.ConfigFor(tgt); c != nil {
				targetCfg = c
			}
		}
		launches = append(launches, launch{st: st, turn: placeholder, cfg: targetCfg})
	}

	// One goroutine per target; one target's failure never cancels, delays,
	// or alters another's stream.
	var wg sync.WaitGroup
	for _, l := range launches {
		wg.Add(1)
		go func(l launch) {
			defer wg.Done()
			o.runInitial(ctx, l.st, l.turn, parts, l.cfg)
		}(l)
	}
	wg.Wait()
	return nil
}

// runInitial creates a fresh session for the target and streams the first
// exchange into the placeholder turn.
func (o *Orchestrator) runInitial(ctx context.Context, st *targetState, turn *model.Turn, parts []model.Part, cfg model.GenConfig) {
	streamCtx, cancel := context.WithCancel(ctx)

	st.mu.Lock()
	modelID := st.target.ModelID
	st.mu.Unlock()

	sess, err := o.factory(streamCtx, modelID, cfg)
	if err != nil {
		cancel()
		o.failTurn(st, turn, err)
		return
	}
	st.replaceSession(sess, cfg, cancel)

	o.reconcile(streamCtx, st, turn, sess.SendMessageStream(streamCtx, parts))
}

// =============================================================================
// FOLLOW-UP SEND
// =============================================================================

// SendFollowUp dispatches a follow-up from the origin target, either to the
// origin alone or broadcast to every eligible target of the same kind. Each
// resolved target reuses its existing session and frozen configuration; a
// target with no session gets a NoSessionError recorded on its own turn
// without aborting siblings. After all resolved targets settle, the origin
// target's draft is cleared regardless of per-target outcome.
func (o *Orchestrator) SendFollowUp(ctx context.Context, originID string, broadcast bool, text string, files []string) error {
	parts, previews, err := o.buildContent(text, files)
	if err != nil {
		return err
	}

	targets := o.resolveTargets(originID, broadcast)
	if len(targets) == 0 {
		return ErrNoTargets
	}

	var wg sync.WaitGroup
	for _, tgt := range targets {
		st := o.registry.state(tgt.ID)
		if st == nil {
			continue
		}

		placeholder := model.NewModelTurn()
		st.mu.Lock()
		st.transcript.Append(model.NewUserTurn(strings.TrimSpace(text), previews))
		st.transcript.Append(placeholder)
		sess := st.session
		st.mu.Unlock()
		o.notify(tgt.ID)

		if sess == nil {
			o.failTurn(st, placeholder, &NoSessionError{TargetID: tgt.ID})
			continue
		}

		wg.Add(1)
		go func(st *targetState, turn *model.Turn, sess ChatSession) {
			defer wg.Done()
			o.runFollowUp(ctx, st, turn, sess, parts)
		}(st, placeholder, sess)
	}
	wg.Wait()

	o.registry.ClearDraft(originID)
	o.notify(originID)
	return nil
}

// runFollowUp streams one follow-up exchange on an existing session.
func (o *Orchestrator) runFollowUp(ctx context.Context, st *targetState, turn *model.Turn, sess ChatSession, parts []model.Part) {
	streamCtx, cancel := context.WithCancel(ctx)
	st.mu.Lock()
	// A follow-up supersedes the previous exchange's cancel handle but keeps
	// the session and its frozen config untouched.
	st.cancelStream = cancel
	st.mu.Unlock()

	o.reconcile(streamCtx, st, turn, sess.SendMessageStream(streamCtx, parts))
}

// resolveTargets returns {origin} or, for a broadcast, every registered
// target of the origin's kind in order.
func (o *Orchestrator) resolveTargets(originID string, broadcast bool) []model.Target {
	st := o.registry.state(originID)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	origin := st.target
	st.mu.Unlock()

	if !broadcast {
		return []model.Target{origin}
	}
	return o.registry.TargetsOfKind(origin.Kind)
}

// =============================================================================
// STOP CONTROL
// =============================================================================

// RequestStop idempotently flags (targetID, turnID) for cancellation and
// immediately marks the turn stopped so the UI reflects the stop without
// waiting for the stream's next increment. The reconciler observes the flag
// at its next increment and unwinds; its terminal write cannot resurrect the
// loading state.
func (o *Orchestrator) RequestStop(targetID, turnID string) {
	o.cancels.Request(targetID, turnID)

	st := o.registry.state(targetID)
	if st == nil {
		return
	}
	st.mu.Lock()
	if turn := st.transcript.TurnByID(turnID); turn != nil {
		turn.Stop()
	}
	st.mu.Unlock()
	o.notify(targetID)
}

// failTurn records a per-target failure on the turn.
func (o *Orchestrator) failTurn(st *targetState, turn *model.Turn, err error) {
	st.mu.Lock()
	turn.Fail(err)
	id := st.target.ID
	st.mu.Unlock()
	o.notify(id)
}
