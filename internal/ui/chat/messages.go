// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the fan-out chat view for the TUI.
//
// This file defines the Bubble Tea message types used by the chat interface:
//   - Streaming: per-target transcript updates and fan-out completion
//   - Templates: reload notifications from the template file watcher
//   - Archive: run persistence results
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// TranscriptUpdatedMsg signals that a target's transcript changed and the
// view should repaint. Sent for every streaming increment, completion,
// stop, and error.
type TranscriptUpdatedMsg struct {
	TargetID string
}

// FanoutFinishedMsg signals that an initial fan-out settled on all targets.
type FanoutFinishedMsg struct {
	Err error
}

// FollowUpFinishedMsg signals that a follow-up settled on its targets.
type FollowUpFinishedMsg struct {
	Err error
}

// =============================================================================
// TEMPLATE MESSAGES
// =============================================================================

// TemplatesReloadedMsg signals that the template store reloaded from disk.
type TemplatesReloadedMsg struct {
	Err error
}

// =============================================================================
// ARCHIVE MESSAGES
// =============================================================================

// RunArchivedMsg reports the result of persisting the current run.
type RunArchivedMsg struct {
	RunID string
	Err   error
}
