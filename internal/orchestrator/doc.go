// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core: it fans
// one prompt out to independent chat sessions, drives each streamed response
// into its own transcript, and supports per-target mid-stream stop and
// one-or-all follow-up routing.
//
// # Key Types
//
//   - Registry: Per-target state (session, frozen config, transcript, draft)
//     with atomic pipeline re-keying
//   - CancelTable: Per-(target, turn) stop flags consulted at every increment
//   - Orchestrator: SendInitial / SendFollowUp dispatch with settle-all
//     batch semantics and per-target error isolation
//
// # Concurrency
//
// Each target's stream runs in its own goroutine. All mutation of a target's
// transcript happens under that target's lock; streams for different targets
// never observe or block on each other. A batch completes when every
// per-target dispatch has settled, whether it succeeded, errored, or was
// stopped.
//
// # Cancellation
//
// Stopping is cooperative and advisory: RequestStop marks the flag and flips
// the turn terminal for instantaneous display, while the stream's reconciler
// notices the flag at its next increment and unwinds without resurrecting
// the loading state. The underlying network stream is cancelled via context
// but may deliver one more increment harmlessly.
package orchestrator
