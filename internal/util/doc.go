// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the fanout-tui application.
//
// This package contains common helper functions used throughout the
// application for display-width aware string manipulation and crash-safe
// file operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation (CJK safe)
//   - PadRight: display-width aware space padding
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long strings safely for display
//	display := util.TruncateWidth(longText, 50)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
