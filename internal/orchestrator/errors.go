// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import "errors"

// Top-level precondition failures. These surface as a single blocking notice
// before any network activity starts and leave all existing state untouched.
var (
	// ErrEmptyContent means there was nothing to send: no trimmed text and
	// no encodable attachment.
	ErrEmptyContent = errors.New("nothing to send: enter a prompt or attach a file")

	// ErrNoTargets means no target was selected for an initial send.
	ErrNoTargets = errors.New("no targets selected")
)

// NoSessionError is recorded on a single target's turn when a follow-up is
// routed to a target that never received an initial send. It is scoped to
// that target only and never aborts sibling dispatches.
type NoSessionError struct {
	TargetID string
}

func (e *NoSessionError) Error() string {
	return "no active session for " + e.TargetID + ": send an initial prompt first"
}
