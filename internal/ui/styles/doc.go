// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the fanout TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection,
// and the Theme struct bundles the pre-built styles the chat view renders with.
package styles
