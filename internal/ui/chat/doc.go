// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the fan-out chat view for the TUI.
//
// The view shows one tab per target (model instance or sampling pipeline),
// a transcript viewport for the active tab, and a shared composer. The first
// prompt fans out to every target; follow-ups route to the active target, or
// to all targets when broadcast is toggled on. Streaming output arrives
// through the orchestrator's update hook and is forwarded into the Bubble
// Tea loop as messages.
package chat
