// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for targets, turns, and transcripts.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoppedNotice is the text a model turn falls back to when the user stops a
// generation before any output has accumulated.
const StoppedNotice = "Generation stopped by user."

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Model"
	default:
		return string(r)
	}
}

// =============================================================================
// CONTENT PART
// =============================================================================

// Part is one unit of outbound content: either text or an inline binary
// fragment (an encoded attachment). Exactly one of the two is set.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text content part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// BlobPart builds an inline binary content part.
func BlobPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// IsBlob reports whether the part carries inline binary data.
func (p Part) IsBlob() bool {
	return p.MIMEType != ""
}

// =============================================================================
// CITATION TYPE
// =============================================================================

// Citation is one grounding source attached to a model turn. Citations are
// de-duplicated by URI as increments arrive; the first-seen title wins.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// =============================================================================
// ATTACHMENT PREVIEW
// =============================================================================

// AttachmentPreview is the user-visible record of a file attached to a user
// turn. It stays visible even if encoding the file for dispatch failed.
type AttachmentPreview struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type,omitempty"`
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one entry of a transcript. User turns are immutable once created.
// Model turns are mutable while streaming and become terminal exactly once:
// loading -> completed, errored, or stopped by user. A terminal turn never
// reopens.
type Turn struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content. For user turns this is the prompt text; for model turns the
	// accumulated response.
	Text        string              `json:"text"`
	Attachments []AttachmentPreview `json:"attachments,omitempty"`
	Citations   []Citation          `json:"citations,omitempty"`

	// Streaming state (model turns only)
	IsLoading     bool   `json:"-"`
	StoppedByUser bool   `json:"stopped_by_user,omitempty"`
	Err           string `json:"error,omitempty"`

	// seen tracks citation URIs already merged, for de-duplication.
	seen map[string]struct{}
}

// NewUserTurn creates an immutable user turn.
func NewUserTurn(text string, attachments []AttachmentPreview) *Turn {
	return &Turn{
		ID:          newTurnID(),
		Role:        RoleUser,
		CreatedAt:   time.Now(),
		Text:        text,
		Attachments: attachments,
	}
}

// NewModelTurn creates a placeholder model turn in the loading state.
func NewModelTurn() *Turn {
	return &Turn{
		ID:        newTurnID(),
		Role:      RoleModel,
		CreatedAt: time.Now(),
		IsLoading: true,
	}
}

// =============================================================================
// TURN MUTATION (STREAMING)
// =============================================================================

// AppendText appends an increment's text to the accumulated response.
// No-op once the turn is terminal.
func (t *Turn) AppendText(s string) {
	if !t.IsLoading {
		return
	}
	t.Text += s
}

// MergeCitations merges citation entries into the accumulated list,
// de-duplicating by URI and preserving first-seen order.
func (t *Turn) MergeCitations(cs []Citation) {
	if !t.IsLoading || len(cs) == 0 {
		return
	}
	if t.seen == nil {
		t.seen = make(map[string]struct{}, len(cs))
		for _, c := range t.Citations {
			t.seen[c.URI] = struct{}{}
		}
	}
	for _, c := range cs {
		if c.URI == "" {
			continue
		}
		if _, dup := t.seen[c.URI]; dup {
			continue
		}
		t.seen[c.URI] = struct{}{}
		t.Citations = append(t.Citations, c)
	}
}

// Complete marks the turn terminal with its accumulated text as final.
func (t *Turn) Complete() {
	if !t.IsLoading {
		return
	}
	t.IsLoading = false
}

// Fail marks the turn terminal with an error. Text accumulated before the
// failure is preserved for display. No-op on a turn that is already
// terminal: a completed or stopped turn never becomes an errored one.
func (t *Turn) Fail(err error) {
	if !t.IsLoading {
		return
	}
	t.IsLoading = false
	if err != nil {
		t.Err = err.Error()
	}
}

// Stop marks the turn terminal as stopped by the user, freezing whatever has
// accumulated. Falls back to StoppedNotice when nothing arrived yet.
// Idempotent: a second stop leaves the turn unchanged, and Stop never
// resurrects the loading flag.
func (t *Turn) Stop() {
	if t.StoppedByUser {
		return
	}
	t.IsLoading = false
	t.StoppedByUser = true
	if strings.TrimSpace(t.Text) == "" {
		t.Text = StoppedNotice
	}
}

// IsTerminal reports whether the turn has left the loading state.
func (t *Turn) IsTerminal() bool {
	return !t.IsLoading
}

// Clone returns a copy safe to hand to a renderer while the original keeps
// mutating under its target's lock.
func (t *Turn) Clone() *Turn {
	cp := *t
	cp.seen = nil
	cp.Attachments = append([]AttachmentPreview(nil), t.Attachments...)
	cp.Citations = append([]Citation(nil), t.Citations...)
	return &cp
}

// Preview returns a truncated rune-safe preview of the turn text.
func (t *Turn) Preview(maxRunes int) string {
	runes := []rune(t.Text)
	if len(runes) <= maxRunes {
		return t.Text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// newTurnID creates a process-unique turn id. Cancellation keys are derived
// from these ids and must never collide across turns.
func newTurnID() string {
	return "turn_" + uuid.NewString()
}
