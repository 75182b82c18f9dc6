// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable view pieces of the counsel TUI.

# Components

  - MessageBubble (message.go) - one chat message, assistant content rendered as markdown
  - MarkdownRenderer (markdown.go) - glamour renderer that follows the pane width
  - Sidebar (sidebar.go) - thread list and patient list
  - StatusBar (statusbar.go) - mode, patient, thread and send status
  - NewThinkingSpinner (spinner.go) - ASCII spinner for pending sends

All components take a *styles.Theme and render to a string; none of them
hold session state beyond what the caller sets on them.

	theme := styles.NewTheme("auto")
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.Mode = model.TypeSearch
	view := bar.View()
*/
package components
