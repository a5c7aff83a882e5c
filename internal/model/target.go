// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for targets, turns, and transcripts.
package model

import (
	"strconv"
	"strings"
)

// =============================================================================
// TARGET TYPE
// =============================================================================

// TargetKind distinguishes the two flavors of addressable chat endpoint.
type TargetKind int

const (
	// TargetModel is a model instance in multi-model chat mode.
	TargetModel TargetKind = iota
	// TargetPipeline is an indexed sampling-parameter set in config-test mode.
	TargetPipeline
)

// PipelinePrefix is the id prefix for pipeline targets ("pipeline-0", ...).
const PipelinePrefix = "pipeline-"

// Target is an addressable chat endpoint with its own session and transcript.
// The id is stable for the lifetime of the UI session, except that removing
// a pipeline renumbers the pipelines after it (see orchestrator re-keying).
type Target struct {
	// ID is the stable string identity ("gemini-2.5-flash" or "pipeline-2").
	ID string

	// Kind says whether this target is a model instance or a pipeline.
	Kind TargetKind

	// ModelID is the remote model identifier to create sessions against.
	// For model targets this equals ID; pipelines carry it separately.
	ModelID string

	// Label is a short human-readable name for tab headers.
	Label string
}

// NewModelTarget creates a chat-mode target for a model id.
func NewModelTarget(modelID string) Target {
	return Target{
		ID:      modelID,
		Kind:    TargetModel,
		ModelID: modelID,
		Label:   shortModelLabel(modelID),
	}
}

// NewPipelineTarget creates a config-test-mode target for pipeline index idx.
func NewPipelineTarget(idx int, modelID, label string) Target {
	if label == "" {
		label = "Pipeline " + strconv.Itoa(idx+1)
	}
	return Target{
		ID:      PipelineID(idx),
		Kind:    TargetPipeline,
		ModelID: modelID,
		Label:   label,
	}
}

// PipelineID returns the target id for a pipeline index.
func PipelineID(idx int) string {
	return PipelinePrefix + strconv.Itoa(idx)
}

// PipelineIndex parses a pipeline target id back to its index.
// Returns -1 if the id is not a pipeline id.
func PipelineIndex(id string) int {
	rest, ok := strings.CutPrefix(id, PipelinePrefix)
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// IsPipeline reports whether the target id addresses a pipeline.
func IsPipeline(id string) bool {
	return PipelineIndex(id) >= 0
}

// shortModelLabel trims the vendor prefix from a model id for display.
func shortModelLabel(modelID string) string {
	if i := strings.LastIndex(modelID, "/"); i >= 0 {
		return modelID[i+1:]
	}
	return modelID
}

// =============================================================================
// GENERATION CONFIG (TAGGED VARIANT)
// =============================================================================

// GenConfig is the generation configuration frozen into a session when it is
// created. It is a closed variant: a session is either Grounded (search
// grounding enabled, sampling parameters and system instruction unset) or
// Sampled (explicit temperature / top-p / optional system instruction).
// The two never mix; grounding supersedes the sliders entirely.
type GenConfig interface {
	isGenConfig()
}

// Grounded enables the search-grounding tool. Temperature, top-p, and the
// system instruction are deliberately absent: the remote service owns them
// when grounding is active.
type Grounded struct{}

func (Grounded) isGenConfig() {}

// Sampled carries explicit sampling parameters and an optional system
// instruction (already trimmed; empty means none).
type Sampled struct {
	Temperature       float32
	TopP              float32
	SystemInstruction string
}

func (Sampled) isGenConfig() {}

// NewSampled builds a Sampled config, trimming the system instruction.
func NewSampled(temperature, topP float32, systemInstruction string) Sampled {
	return Sampled{
		Temperature:       temperature,
		TopP:              topP,
		SystemInstruction: strings.TrimSpace(systemInstruction),
	}
}
