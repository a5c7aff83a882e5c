// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK behind the small surface the
// orchestrator consumes: chat session creation, streaming message exchange
// with citation extraction, one-shot text generation, and image generation.
//
// # Key Types
//
//   - Client: Thin wrapper over genai.Client with credential validation
//   - Session: One remote conversational handle, created per initial send
//   - StreamChunk: One streamed increment (text plus citation increments)
//
// # Usage
//
// Create a client and a grounded session:
//
//	client, err := gemini.NewClient(ctx, apiKey)
//	sess, err := client.NewSession(ctx, "gemini-2.5-flash", model.Grounded{})
//	for chunk, err := range sess.SendMessageStream(ctx, parts) {
//	    ...
//	}
//
// The streaming sequence is lazy, finite, and non-restartable; it terminates
// normally or yields a transport error at any point mid-sequence.
package gemini
