// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a thread's history to a file for sharing outside
// the client.
//
// # Key Types
//
//   - Transcript: a thread, the patients it mentions and its messages
//   - Exporter: turns a Transcript into bytes of one format
//   - Options: output directory and metadata switches
//
// # Supported Formats
//
//   - Markdown: human-readable, assistant answers kept as markdown
//   - JSON: the Transcript itself
//
// # Usage
//
//	t := export.NewTranscript(thread, exchanges, state.Patients)
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(t, exp, &export.Options{OutputDir: "."})
//
// Files are written with 0600 permissions since transcripts carry patient
// information.
package export
