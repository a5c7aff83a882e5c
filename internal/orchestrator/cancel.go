// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import "sync"

// =============================================================================
// CANCELLATION TABLE
// =============================================================================

// cancelKey identifies one in-flight generation.
type cancelKey struct {
	targetID string
	turnID   string
}

// CancelTable holds per-(target, turn) stop flags. Flags are set only by
// explicit user action and read by the stream reconciler at every increment.
// They are never cleared; a flag left set after a stream ends is harmless
// because the next send to the same target generates a fresh turn id.
type CancelTable struct {
	mu    sync.RWMutex
	flags map[cancelKey]bool
}

// NewCancelTable creates an empty cancellation table.
func NewCancelTable() *CancelTable {
	return &CancelTable{flags: make(map[cancelKey]bool)}
}

// Request idempotently marks the flag for (targetID, turnID).
func (ct *CancelTable) Request(targetID, turnID string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.flags[cancelKey{targetID, turnID}] = true
}

// IsCancelled reports whether a stop has been requested for (targetID, turnID).
func (ct *CancelTable) IsCancelled(targetID, turnID string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.flags[cancelKey{targetID, turnID}]
}

// rekey migrates every flag for oldID to newID. Called from the registry's
// atomic pipeline re-keying pass; the registry lock serializes callers.
func (ct *CancelTable) rekey(oldID, newID string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	for k, v := range ct.flags {
		if k.targetID == oldID {
			delete(ct.flags, k)
			ct.flags[cancelKey{newID, k.turnID}] = v
		}
	}
}
