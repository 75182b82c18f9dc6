// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/stream"
	"github.com/jeranaias/counsel-tui/internal/ui/components"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

func (m Model) render() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch m.overlay {
	case overlayHelp:
		return m.centered(m.renderHelp())
	case overlayPicker:
		return m.centered(m.picker.view(m.theme, m.state.Patients, m.state.SelectedPatientID, min(m.width, 60)))
	case overlayForm:
		return m.centered(m.form.view(m.theme))
	case overlayConfirmDelete:
		if p, ok := m.state.SelectedPatient(); ok {
			return m.centered(confirmDeleteView(m.theme, p))
		}
	}

	header := m.renderHeader()
	status := m.statusBar.View()

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderLog(),
		m.renderInput(),
	)
	if w := m.visibleSidebarWidth(); w > 0 {
		m.sidebar.Width = w
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, main, status)
}

func (m Model) centered(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("counsel")
	meta := m.theme.HeaderMeta.Render(" | " + m.baseURL)
	if p, ok := m.state.SelectedPatient(); ok {
		meta += m.theme.HeaderMeta.Render(" | ") + m.theme.PatientBadge.Render(p.Summary())
	}
	return m.theme.Header.Width(m.width).Render(title + meta)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderLog renders the viewport padded to its configured height.
func (m Model) renderLog() string {
	return lipgloss.NewStyle().
		Height(m.viewport.Height).
		MaxHeight(m.viewport.Height).
		Render(m.viewport.View())
}

// renderMessages renders the message log, or a placeholder when it is empty.
func (m *Model) renderMessages() string {
	if m.state.Loading {
		return m.theme.LoadingText.Render(m.spinner.View() + " Loading...")
	}
	if len(m.state.Messages) == 0 {
		return m.renderEmptyState()
	}

	width := max(m.viewport.Width, 20)
	parts := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		b := components.NewMessageBubble(msg, m.theme, m.markdown)
		b.Width = width
		switch {
		case model.IsThinkingID(msg.ID):
			b.Pending = true
			b.Spinner = m.spinner.View()
		case isNotice(msg.Content):
			b.Notice = true
		}
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}

// isNotice reports whether content is one of the fixed client-side notices.
func isNotice(content string) bool {
	switch content {
	case conversation.NoPatientNotice, conversation.NoThreadNotice,
		conversation.SendFailedNotice, stream.NoResponseNotice:
		return true
	}
	return false
}

func (m *Model) renderEmptyState() string {
	width := min(max(m.viewport.Width-8, 30), 80)
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var sb strings.Builder
	sb.WriteString(center.Inherit(m.theme.HeaderTitle).Render("Counseling Assistant"))
	sb.WriteString("\n\n")

	var hint string
	switch {
	case !m.state.HasThread():
		hint = "No thread is open. Press C-n to start one."
	case len(m.state.Patients) == 0:
		hint = "No patients yet. Press C-a to add one."
	default:
		if _, ok := m.state.SelectedPatient(); !ok {
			hint = "Press C-p to select a patient, then ask for advice."
		} else {
			hint = "Ask for advice, or press Tab to search the database."
		}
	}
	sb.WriteString(center.Inherit(m.theme.SidebarEmpty).Render(hint))
	return sb.String()
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	width := max(m.width-m.visibleSidebarWidth(), 10)

	mode := m.theme.ModeCounsel.Render(m.state.Mode.Label())
	if m.state.Mode == model.TypeSearch {
		mode = m.theme.ModeSearch.Render(m.state.Mode.Label())
	}
	line := m.theme.InputContainer.Width(width - 2).Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, line, " "+mode)
}

// =============================================================================
// HELP
// =============================================================================

func (m Model) renderHelp() string {
	body := m.theme.OverlayTitle.Render("Keyboard Shortcuts") + "\n\n" +
		m.help.View(m.keyMap) + "\n\n" +
		m.theme.ShortcutDesc.Render("Esc or F1 to close")
	return m.theme.OverlayBox.Render(body)
}
