// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the fanout TUI:
// the target tab bar, the bottom status bar, the loading spinner, and the
// chroma-backed code block renderer used inside transcripts.
package components
