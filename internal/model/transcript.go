// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for targets, turns, and transcripts.
package model

import "time"

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the append-only ordered sequence of turns owned by one
// target. Order matches wall-clock dispatch order: a user turn is appended,
// immediately followed by its placeholder model turn, before any network
// call begins.
type Transcript struct {
	Turns     []*Turn   `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	now := time.Now()
	return &Transcript{
		Turns:     make([]*Turn, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a turn at the end of the transcript.
func (tr *Transcript) Append(t *Turn) {
	tr.Turns = append(tr.Turns, t)
	tr.UpdatedAt = time.Now()
}

// Len returns the number of turns.
func (tr *Transcript) Len() int {
	return len(tr.Turns)
}

// IsEmpty reports whether the transcript has no turns.
func (tr *Transcript) IsEmpty() bool {
	return len(tr.Turns) == 0
}

// Last returns the most recent turn, or nil if empty.
func (tr *Transcript) Last() *Turn {
	if len(tr.Turns) == 0 {
		return nil
	}
	return tr.Turns[len(tr.Turns)-1]
}

// TurnByID returns the turn with the given id, or nil.
func (tr *Transcript) TurnByID(id string) *Turn {
	for _, t := range tr.Turns {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FirstUserTurn returns the earliest user turn, or nil. Used for titles.
func (tr *Transcript) FirstUserTurn() *Turn {
	for _, t := range tr.Turns {
		if t.Role == RoleUser {
			return t
		}
	}
	return nil
}

// HasLoadingTurn reports whether any turn is still streaming.
func (tr *Transcript) HasLoadingTurn() bool {
	for _, t := range tr.Turns {
		if t.IsLoading {
			return true
		}
	}
	return false
}

// Clone deep-copies the transcript for rendering outside the target's lock.
func (tr *Transcript) Clone() *Transcript {
	cp := &Transcript{
		Turns:     make([]*Turn, len(tr.Turns)),
		CreatedAt: tr.CreatedAt,
		UpdatedAt: tr.UpdatedAt,
	}
	for i, t := range tr.Turns {
		cp.Turns[i] = t.Clone()
	}
	return cp
}

// =============================================================================
// FOLLOW-UP DRAFT
// =============================================================================

// Draft is the per-target pending follow-up input. Drafts are strictly
// per-target and never shared: a broadcast duplicates the content, not the
// draft state.
type Draft struct {
	Text        string
	Attachments []string // file paths queued for encoding on send
	SendToAll   bool
}

// IsEmpty reports whether the draft has neither text nor attachments.
func (d Draft) IsEmpty() bool {
	return d.Text == "" && len(d.Attachments) == 0
}

// Clear resets text and attachments, keeping the broadcast toggle.
func (d *Draft) Clear() {
	d.Text = ""
	d.Attachments = nil
}
