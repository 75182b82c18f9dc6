// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for patients, threads and messages.
//
// These are the client's session copies of records owned by the backend.
//
// # Key Types
//
//   - Patient / PatientInput: Patient record, and the same without its ID
//   - Thread: Conversation container
//   - ChatMessage: One entry of the visible message log
//   - Exchange: Stored request/response pair returned by thread history
//   - SearchResult: Transcript match returned by the database search
//
// # Usage
//
//	log := model.ExpandExchanges(history)
//	doc := model.RenderSearchMarkdown(results)
package model
