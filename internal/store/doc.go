// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides persistence for fanout-tui: the encrypted API
// credential, the prompt template library, and the transcript archive.
//
// # Key Types
//
//   - Keyring: encrypted API key storage (AES-256-GCM, PBKDF2-SHA-256)
//   - TemplateStore: named prompt templates with optional live reload
//   - Archive: SQLite-backed transcript archive for completed runs
//
// All files live under the application config directory (~/.fanout) and
// are written atomically with owner-only permissions.
package store
