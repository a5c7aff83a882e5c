// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the multi-target streaming core.
package orchestrator

import (
	"context"
	"iter"
	"sync"

	"github.com/jeranaias/fanout-tui/internal/attach"
	"github.com/jeranaias/fanout-tui/internal/gemini"
	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// SCRIPTED STREAMS
// =============================================================================

// streamEvent is one scripted increment: either a chunk or a terminal error.
type streamEvent struct {
	chunk *gemini.StreamChunk
	err   error
}

func textEvent(s string) streamEvent {
	return streamEvent{chunk: &gemini.StreamChunk{Text: s}}
}

func citeEvent(text string, cs ...model.Citation) streamEvent {
	return streamEvent{chunk: &gemini.StreamChunk{Text: text, Citations: cs}}
}

// fakeStream scripts one streaming exchange. When gate is non-nil the
// producer blocks on it before every event, letting tests interleave stop
// requests mid-stream.
type fakeStream struct {
	events []streamEvent
	gate   chan struct{}
}

// fakeSession satisfies ChatSession with one scripted stream per send.
type fakeSession struct {
	mu      sync.Mutex
	streams []*fakeStream
	calls   int
	lastCtx context.Context
}

func (s *fakeSession) SendMessageStream(ctx context.Context, parts []model.Part) iter.Seq2[*gemini.StreamChunk, error] {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.lastCtx = ctx
	var stream *fakeStream
	if idx < len(s.streams) {
		stream = s.streams[idx]
	}
	s.mu.Unlock()

	return func(yield func(*gemini.StreamChunk, error) bool) {
		if stream == nil {
			return
		}
		for _, ev := range stream.events {
			if stream.gate != nil {
				<-stream.gate
			}
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			if ev.err != nil {
				yield(nil, ev.err)
				return
			}
			if !yield(ev.chunk, nil) {
				return
			}
		}
	}
}

func (s *fakeSession) sendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// =============================================================================
// SCRIPTED FACTORY
// =============================================================================

// fakeFactory hands out sessions per model id, in creation order.
type fakeFactory struct {
	mu       sync.Mutex
	sessions map[string][]*fakeSession
	created  map[string]int
	err      map[string]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		sessions: make(map[string][]*fakeSession),
		created:  make(map[string]int),
		err:      make(map[string]error),
	}
}

// add queues a session to hand out for the model id.
func (f *fakeFactory) add(modelID string, s *fakeSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[modelID] = append(f.sessions[modelID], s)
}

// failWith makes session creation fail for the model id.
func (f *fakeFactory) failWith(modelID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err[modelID] = err
}

func (f *fakeFactory) createdCount(modelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[modelID]
}

func (f *fakeFactory) factory() SessionFactory {
	return func(ctx context.Context, modelID string, cfg model.GenConfig) (ChatSession, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := f.err[modelID]; err != nil {
			return nil, err
		}
		n := f.created[modelID]
		f.created[modelID] = n + 1
		queue := f.sessions[modelID]
		if n < len(queue) {
			return queue[n], nil
		}
		return &fakeSession{}, nil
	}
}

// =============================================================================
// TEST HELPERS
// =============================================================================

// singleStreamSession builds a session whose first send plays the events.
func singleStreamSession(events ...streamEvent) *fakeSession {
	return &fakeSession{streams: []*fakeStream{{events: events}}}
}

// okEncoder pretends every path encodes to a small text attachment.
func okEncoder(path string) (*attach.Encoded, error) {
	return &attach.Encoded{Name: baseName(path), MIMEType: "text/plain", Data: []byte("data")}, nil
}

// newTestOrchestrator wires an orchestrator with the fake factory and a
// permissive encoder.
func newTestOrchestrator(f *fakeFactory) *Orchestrator {
	o := New(f.factory())
	o.encode = okEncoder
	return o
}

// lastTurn returns the last turn of a target's transcript snapshot.
func lastTurn(o *Orchestrator, targetID string) *model.Turn {
	tr := o.Registry().TranscriptSnapshot(targetID)
	if tr == nil {
		return nil
	}
	return tr.Last()
}
