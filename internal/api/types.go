// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "github.com/jeranaias/counsel-tui/internal/model"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SearchTypeDatabase is the only search type the backend understands.
const SearchTypeDatabase = "database_search"

// CreateThreadRequest is the request body for POST /create-thread/.
type CreateThreadRequest struct {
	Title string `json:"title"`
}

// ChatRequest is the request body for POST /chat/.
type ChatRequest struct {
	Message   string `json:"message"`
	PatientID string `json:"patient_id"`
	ThreadID  string `json:"thread_id"`
}

// SearchRequest is the request body for POST /search-database/.
type SearchRequest struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

// StoreSearchRequest is the request body for POST /storeSearches/.
type StoreSearchRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response body of POST /chat/. Fields other than
// response are ignored.
type ChatResponse struct {
	Response string `json:"response"`
}

// SearchResponse is the response body of POST /search-database/.
type SearchResponse struct {
	Data []model.SearchResult `json:"data"`
}
