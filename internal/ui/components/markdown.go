// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders assistant responses with glamour. The underlying
// renderer is rebuilt when the wrap width changes.
type MarkdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer for a glamour standard style
// ("dark", "light", "notty").
func NewMarkdownRenderer(style string, width int) *MarkdownRenderer {
	r := &MarkdownRenderer{style: style}
	r.SetWidth(width)
	return r
}

// SetWidth sets the wrap width.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if r.renderer != nil && width == r.width {
		return
	}
	r.width = width

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		log.Printf("MARKDOWN_INIT_FAILED | style=%s err=%v", r.style, err)
		r.renderer = nil
		return
	}
	r.renderer = tr
}

// Width returns the wrap width.
func (r *MarkdownRenderer) Width() int {
	return r.width
}

// Render renders content. It returns content unchanged if rendering fails.
func (r *MarkdownRenderer) Render(content string) string {
	if r == nil || r.renderer == nil || content == "" {
		return content
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
