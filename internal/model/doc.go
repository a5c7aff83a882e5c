// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for targets, turns, and transcripts.
//
// This package defines the core domain types used throughout the application
// for representing fan-out chat state: the addressable targets a prompt is
// sent to, the per-target transcripts, and the generation configuration
// frozen into each target's session.
//
// # Key Types
//
//   - Target: An addressable chat endpoint (a model instance or a pipeline)
//   - Turn: One user message or one model response within a Transcript
//   - Transcript: Append-only ordered sequence of turns owned by one target
//   - GenConfig: Tagged generation configuration (Grounded or Sampled)
//   - Part: One unit of outbound content (text or inline binary data)
//   - Citation: A source reference accumulated while streaming
//
// # Usage
//
// Build a transcript the way a dispatch does:
//
//	tr := model.NewTranscript()
//	tr.Append(model.NewUserTurn("Hello", nil))
//	mt := model.NewModelTurn()
//	tr.Append(mt)
//	mt.AppendText("Hi there")
//	mt.Complete()
package model
