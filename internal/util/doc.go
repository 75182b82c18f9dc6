// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers.
//
// # Key Functions
//
//   - TruncateWidth, StringWidth: display-width aware truncation
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(thread.Title, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
