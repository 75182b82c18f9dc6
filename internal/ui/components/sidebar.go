// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
	"github.com/jeranaias/counsel-tui/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// SidebarSection identifies which list of the sidebar has the cursor.
type SidebarSection int

const (
	SectionThreads SidebarSection = iota
	SectionPatients
)

// Sidebar renders the thread list above the patient list.
type Sidebar struct {
	Threads        []model.Thread
	ActiveThreadID string

	Patients          []model.Patient
	SelectedPatientID string

	// Focused is true when keyboard navigation targets the sidebar.
	Focused bool
	Section SidebarSection
	Cursor  int

	Width  int
	Height int

	theme *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{Width: 32, theme: theme}
}

// MoveCursor moves the cursor by delta within the current section, crossing
// into the other section at the edges.
func (s *Sidebar) MoveCursor(delta int) {
	s.Cursor += delta
	for {
		n := s.sectionLen(s.Section)
		switch {
		case s.Cursor < 0 && s.Section == SectionPatients:
			s.Section = SectionThreads
			s.Cursor += s.sectionLen(SectionThreads)
		case s.Cursor >= n && s.Section == SectionThreads && len(s.Patients) > 0:
			s.Cursor -= n
			s.Section = SectionPatients
		default:
			s.Cursor = clamp(s.Cursor, 0, maxInt(s.sectionLen(s.Section)-1, 0))
			return
		}
	}
}

// CurrentThread returns the thread under the cursor.
func (s *Sidebar) CurrentThread() (model.Thread, bool) {
	if s.Section != SectionThreads || s.Cursor < 0 || s.Cursor >= len(s.Threads) {
		return model.Thread{}, false
	}
	return s.Threads[s.Cursor], true
}

// CurrentPatient returns the patient under the cursor.
func (s *Sidebar) CurrentPatient() (model.Patient, bool) {
	if s.Section != SectionPatients || s.Cursor < 0 || s.Cursor >= len(s.Patients) {
		return model.Patient{}, false
	}
	return s.Patients[s.Cursor], true
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := maxInt(s.Width-3, 8)
	var b strings.Builder

	b.WriteString(s.theme.SidebarTitle.Render("Active Threads"))
	b.WriteString("\n")
	if len(s.Threads) == 0 {
		b.WriteString(s.theme.SidebarEmpty.Render("No active threads"))
		b.WriteString("\n")
	}
	for i, t := range s.Threads {
		title := t.Title
		if title == "" {
			title = t.ID
		}
		line := s.row(SectionThreads, i, util.TruncateWidth(title, inner-2))
		if t.ID == s.ActiveThreadID {
			line = s.theme.SidebarItemActive.Render(line)
		} else {
			line = s.theme.SidebarItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.theme.SidebarTitle.Render("Patients"))
	b.WriteString("\n")
	if len(s.Patients) == 0 {
		b.WriteString(s.theme.SidebarEmpty.Render("No patients"))
		b.WriteString("\n")
	}
	for i, p := range s.Patients {
		age := " (" + strconv.Itoa(p.Age) + ")"
		name := util.TruncateWidth(p.Name, inner-2-util.StringWidth(age))
		line := s.row(SectionPatients, i, name+age)
		if p.ID == s.SelectedPatientID {
			line = s.theme.SidebarItemSelected.Render(line)
		} else {
			line = s.theme.SidebarItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := s.theme.Sidebar.Width(s.Width - 1)
	if s.Height > 0 {
		style = style.Height(s.Height).MaxHeight(s.Height)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (s *Sidebar) row(section SidebarSection, i int, text string) string {
	if s.Focused && s.Section == section && s.Cursor == i {
		return "> " + text
	}
	return "  " + text
}

func (s *Sidebar) sectionLen(section SidebarSection) int {
	if section == SectionThreads {
		return len(s.Threads)
	}
	return len(s.Patients)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
