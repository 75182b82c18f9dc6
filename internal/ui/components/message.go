// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message.
type MessageBubble struct {
	Message model.ChatMessage
	Width   int

	// Streaming shows a cursor after partially revealed content.
	Streaming bool

	// Pending renders the message as a thinking placeholder with Spinner.
	Pending bool
	Spinner string

	// Notice renders the message as a fixed notice rather than markdown.
	Notice bool

	theme    *styles.Theme
	markdown *MarkdownRenderer
}

// NewMessageBubble creates a bubble. markdown may be nil for plain text.
func NewMessageBubble(msg model.ChatMessage, theme *styles.Theme, markdown *MarkdownRenderer) *MessageBubble {
	return &MessageBubble{
		Message:  msg,
		Width:    80,
		theme:    theme,
		markdown: markdown,
	}
}

// View renders the message bubble
func (b *MessageBubble) View() string {
	if b.Message.IsUser() {
		return b.renderUserBubble()
	}
	switch {
	case b.Pending:
		return b.renderPendingBubble()
	case b.Notice:
		return b.renderNoticeBubble()
	default:
		return b.renderAssistantBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	maxContentWidth := maxInt(b.Width-12, 20)
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, maxInt(b.Width-8, 10))

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)
	label := b.theme.RoleLabel.Render(b.label())

	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right,
		lipgloss.JoinVertical(lipgloss.Right, label, bubble))
}

// ==========================================================================
// ASSISTANT BUBBLE - Markdown, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.Content
	var body string
	if b.markdown != nil && content != "" {
		body = b.markdown.Render(content)
	} else {
		body = wordWrap(content, maxInt(b.Width-8, 20))
	}
	if b.Streaming {
		body += b.theme.StreamingText.Render(" ▌")
	}
	if body == "" {
		body = "..."
	}

	label := b.theme.RoleLabel.Render(b.label())
	bubble := b.theme.AssistantBubble.MaxWidth(b.Width).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

func (b *MessageBubble) renderPendingBubble() string {
	line := b.Spinner + " " + b.Message.Content
	label := b.theme.RoleLabel.Render(b.label())
	return lipgloss.JoinVertical(lipgloss.Left, label, b.theme.LoadingText.Render(line))
}

func (b *MessageBubble) renderNoticeBubble() string {
	wrapped := wordWrap(b.Message.Content, maxInt(b.Width-8, 20))
	label := b.theme.RoleLabel.Render(b.label())
	return lipgloss.JoinVertical(lipgloss.Left, label, b.theme.NoticeBubble.Render(wrapped))
}

func (b *MessageBubble) label() string {
	name := b.Message.Sender.DisplayName()
	if b.Message.IsUser() && b.Message.Type == model.TypeSearch {
		return name + " · search"
	}
	return name
}
