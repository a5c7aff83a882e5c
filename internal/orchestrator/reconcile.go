// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import (
	"context"
	"iter"

	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// STREAM RECONCILER
// =============================================================================

// reconcile consumes one streaming exchange and merges it into the turn.
// Per (target, turn) the states are Streaming -> {Completed, Errored,
// StoppedByUser}, all terminal:
//
//   - A stop flag observed at an increment freezes the accumulated text and
//     stops consuming; no further mutation of the turn is permitted.
//   - Otherwise the increment's text is appended and its citations merged,
//     de-duplicated by URI with first-seen order preserved.
//   - A transport failure at any point records the error on the turn; text
//     accumulated before the failure is preserved.
//   - Normal termination with no stop observed completes the turn.
//
// Side effects are confined to this one turn; reconcilers for other targets
// run fully independently.
func (o *Orchestrator) reconcile(ctx context.Context, st *targetState, turn *model.Turn, seq iter.Seq2[*gemini.StreamChunk, error]) {
	for chunk, err := range seq {
		if err != nil {
			// A stop request wins over whatever the stream does next,
			// whether it surfaces as context.Canceled or as a transport
			// error racing the teardown.
			if o.stopRequested(st, turn) {
				o.stopTurn(st, turn)
				return
			}
			o.failTurn(st, turn, err)
			return
		}

		st.mu.Lock()
		if o.cancels.IsCancelled(st.target.ID, turn.ID) {
			turn.Stop()
			id := st.target.ID
			st.mu.Unlock()
			o.notify(id)
			return
		}
		turn.AppendText(chunk.Text)
		turn.MergeCitations(chunk.Citations)
		id := st.target.ID
		st.mu.Unlock()
		o.notify(id)
	}

	// Stream terminated normally. A stop that raced the final increment
	// still wins: Complete never reopens a terminal turn.
	st.mu.Lock()
	if o.cancels.IsCancelled(st.target.ID, turn.ID) {
		turn.Stop()
	} else {
		turn.Complete()
	}
	id := st.target.ID
	st.mu.Unlock()
	o.notify(id)
}

// stopRequested reports whether the stop flag is set for this turn.
func (o *Orchestrator) stopRequested(st *targetState, turn *model.Turn) bool {
	st.mu.Lock()
	id := st.target.ID
	st.mu.Unlock()
	return o.cancels.IsCancelled(id, turn.ID)
}

// stopTurn finalizes the turn as stopped by the user.
func (o *Orchestrator) stopTurn(st *targetState, turn *model.Turn) {
	st.mu.Lock()
	turn.Stop()
	id := st.target.ID
	st.mu.Unlock()
	o.notify(id)
}
