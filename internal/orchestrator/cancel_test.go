// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import "testing"

func TestCancelTable_RequestAndCheck(t *testing.T) {
	ct := NewCancelTable()

	if ct.IsCancelled("a", "t1") {
		t.Error("absent flag should read as not cancelled")
	}

	ct.Request("a", "t1")
	if !ct.IsCancelled("a", "t1") {
		t.Error("flag should be set after Request")
	}
	if ct.IsCancelled("a", "t2") {
		t.Error("flags are per-turn, not per-target")
	}
	if ct.IsCancelled("b", "t1") {
		t.Error("flags are per-target, not global")
	}

	// Idempotent.
	ct.Request("a", "t1")
	if !ct.IsCancelled("a", "t1") {
		t.Error("repeated Request must not clear the flag")
	}
}

func TestCancelTable_Rekey(t *testing.T) {
	ct := NewCancelTable()
	ct.Request("pipeline-2", "t1")
	ct.Request("pipeline-2", "t2")
	ct.Request("pipeline-0", "t3")

	ct.rekey("pipeline-2", "pipeline-1")

	for _, turn := range []string{"t1", "t2"} {
		if !ct.IsCancelled("pipeline-1", turn) {
			t.Errorf("flag for %s not migrated", turn)
		}
		if ct.IsCancelled("pipeline-2", turn) {
			t.Errorf("stale flag for %s left behind", turn)
		}
	}
	if !ct.IsCancelled("pipeline-0", "t3") {
		t.Error("unrelated target's flag disturbed")
	}
}
