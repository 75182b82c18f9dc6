// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
)

// SearchResult is one matching transcript from the counseling database.
type SearchResult struct {
	Context  string `json:"context"`
	Response string `json:"response"`
}

// RenderSearchMarkdown renders search results as a single markdown document.
// Each entry is numbered from 1, the concern is block-quoted and single
// newlines in the suggested response become paragraph breaks. Entries are
// separated by a horizontal rule. The output depends only on the input.
func RenderSearchMarkdown(results []SearchResult) string {
	entries := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		b.WriteString("\n### ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". **User's Concern**\n> ")
		b.WriteString(r.Context)
		b.WriteString("\n\n### 💡 **Suggested Response**\n")
		b.WriteString(strings.ReplaceAll(r.Response, "\n", "\n\n"))
		b.WriteString("\n")
		entries = append(entries, b.String())
	}
	return strings.Join(entries, "\n---\n")
}
