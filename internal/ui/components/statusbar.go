// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
	"github.com/jeranaias/counsel-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current send status.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusLoading
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking, StatusLoading:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status line.
type StatusBar struct {
	Mode          model.MessageType
	PatientName   string
	ThreadTitle   string
	Status        Status
	Message       string // Transient message, replaces shortcuts while set
	Width         int
	ShowShortcuts bool

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Mode:          model.TypeCounseling,
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var mode string
	if s.Mode == model.TypeSearch {
		mode = s.theme.ModeSearch.Render(s.Mode.Label())
	} else {
		mode = s.theme.ModeCounsel.Render(s.Mode.Label())
	}

	patient := "no patient"
	if s.PatientName != "" {
		patient = s.theme.PatientBadge.Render(util.TruncateWidth(s.PatientName, 20))
	}
	thread := "no thread"
	if s.ThreadTitle != "" {
		thread = util.TruncateWidth(s.ThreadTitle, 20)
	}

	left := strings.Join([]string{
		mode,
		patient,
		thread,
		s.Status.Icon() + " " + s.Status.String(),
	}, "  ")

	right := ""
	switch {
	case s.Message != "":
		right = s.Message
	case s.ShowShortcuts && s.Width >= 100:
		right = s.shortcuts()
	}

	inner := s.Width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = maxInt(inner-lipgloss.Width(left), 0)
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) shortcuts() string {
	pairs := [][2]string{
		{"tab", "mode"},
		{"C-p", "patient"},
		{"C-n", "thread"},
		{"F1", "help"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, s.theme.ShortcutKey.Render(p[0])+" "+s.theme.ShortcutDesc.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}
