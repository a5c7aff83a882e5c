// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK for the fan-out orchestrator.
package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// STREAM CHUNK
// =============================================================================

// StreamChunk is one streamed increment: generated text plus any citation
// increments the chunk carried. Either field may be empty.
type StreamChunk struct {
	Text      string
	Citations []model.Citation
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one remote conversational handle. It is created once per
// initial send and reused for every follow-up to the same target; the
// generation configuration is frozen at creation time.
type Session struct {
	chat  *genai.Chat
	model string
}

// NewSession creates a remote chat session against the given model with the
// given frozen configuration.
func (c *Client) NewSession(ctx context.Context, modelID string, cfg model.GenConfig) (*Session, error) {
	if modelID == "" {
		modelID = c.config.ChatModel
	}
	chat, err := c.genai.Chats.Create(ctx, modelID, generateConfig(cfg), nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create session", Cause: err}
	}
	return &Session{chat: chat, model: modelID}, nil
}

// Model returns the model id the session was created against.
func (s *Session) Model() string {
	return s.model
}

// SendMessageStream sends content parts on the session and returns the lazy
// finite sequence of streamed increments. The sequence is non-restartable;
// it terminates normally or yields an error at any point mid-sequence, after
// which no further increments arrive.
func (s *Session) SendMessageStream(ctx context.Context, parts []model.Part) iter.Seq2[*StreamChunk, error] {
	converted := convertParts(parts)
	return func(yield func(*StreamChunk, error) bool) {
		for resp, err := range s.chat.SendMessageStream(ctx, converted...) {
			if err != nil {
				yield(nil, err)
				return
			}
			chunk := chunkFromResponse(resp)
			if chunk == nil {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// chunkFromResponse extracts text and citation increments from one SDK
// response. Returns nil for responses carrying neither.
func chunkFromResponse(resp *genai.GenerateContentResponse) *StreamChunk {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]

	chunk := &StreamChunk{}
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				chunk.Text += p.Text
			}
		}
	}
	chunk.Citations = citationsFromMetadata(cand.GroundingMetadata)

	if chunk.Text == "" && len(chunk.Citations) == 0 {
		return nil
	}
	return chunk
}

// citationsFromMetadata maps grounding chunks to citations. De-duplication
// across increments happens at the turn, not here.
func citationsFromMetadata(md *genai.GroundingMetadata) []model.Citation {
	if md == nil || len(md.GroundingChunks) == 0 {
		return nil
	}
	out := make([]model.Citation, 0, len(md.GroundingChunks))
	for _, gc := range md.GroundingChunks {
		if gc.Web == nil || gc.Web.URI == "" {
			continue
		}
		out = append(out, model.Citation{URI: gc.Web.URI, Title: gc.Web.Title})
	}
	return out
}
