// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit        key.Binding
	ToggleMode    key.Binding
	PickPatient   key.Binding
	NewThread     key.Binding
	NewPatient    key.Binding
	EditPatient   key.Binding
	DeletePatient key.Binding
	Sidebar       key.Binding
	Up            key.Binding
	Down          key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Back          key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send / select"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "search / advice"),
		),
		PickPatient: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "pick patient"),
		),
		NewThread: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new thread"),
		),
		NewPatient: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("C-a", "add patient"),
		),
		EditPatient: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "edit patient"),
		),
		DeletePatient: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete patient"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "browse sidebar"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close / back"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleMode, k.PickPatient, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the full help view, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Conversation
		{k.Submit, k.ToggleMode, k.NewThread, k.Sidebar},
		// Patients
		{k.PickPatient, k.NewPatient, k.EditPatient, k.DeletePatient},
		// Navigation
		{k.Up, k.Down, k.PageUp, k.PageDown},
		// General
		{k.Back, k.Help, k.Quit},
	}
}
