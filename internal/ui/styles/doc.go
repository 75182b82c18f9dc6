// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the counsel TUI.

Colors live in colors.go as Lip Gloss AdaptiveColor values so they follow the
terminal background. Theme (theme.go) builds every lipgloss.Style the views
use from that palette.

# Themes

NewTheme accepts the ui.theme config value:

	dark  - force the dark palette
	light - force the light palette
	auto  - ask the terminal through termenv

The glamour markdown renderer is configured from Theme.GlamourStyle so
assistant responses match the chosen palette.

# Layout

Theme.SetSize records the window size and GetLayoutMode classifies it. The
sidebar is hidden in LayoutNarrow.
*/
package styles
