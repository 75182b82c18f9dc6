// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/jeranaias/counsel-tui/internal/ui/styles"
)

// NewThinkingSpinner creates the spinner shown on pending sends, with an
// ASCII-compatible animation.
func NewThinkingSpinner(theme *styles.Theme) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	if theme != nil {
		s.Style = theme.Spinner
	}
	return s
}
