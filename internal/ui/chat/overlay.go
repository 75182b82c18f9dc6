// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
	"github.com/jeranaias/counsel-tui/internal/util"
)

// overlay identifies the modal view that currently has the keyboard.
type overlay int

const (
	overlayNone overlay = iota
	overlayPicker
	overlayForm
	overlayConfirmDelete
	overlayHelp
)

// =============================================================================
// PATIENT PICKER
// =============================================================================

// patientPicker chooses the patient counseling messages are sent for.
type patientPicker struct {
	cursor int
}

func newPatientPicker(patients []model.Patient, selectedID string) patientPicker {
	for i, p := range patients {
		if p.ID == selectedID {
			return patientPicker{cursor: i}
		}
	}
	return patientPicker{}
}

func (p patientPicker) move(delta, n int) patientPicker {
	if n == 0 {
		p.cursor = 0
		return p
	}
	p.cursor = (p.cursor + delta + n) % n
	return p
}

func (p patientPicker) view(theme *styles.Theme, patients []model.Patient, selectedID string, width int) string {
	var b strings.Builder
	b.WriteString(theme.OverlayTitle.Render("Select Patient"))
	b.WriteString("\n")
	if len(patients) == 0 {
		b.WriteString(theme.SidebarEmpty.Render("No patients yet. Press C-a to add one."))
	}
	for i, pt := range patients {
		mark := "  "
		if pt.ID == selectedID {
			mark = "* "
		}
		line := mark + util.TruncateWidth(pt.Summary()+" · "+pt.Gender, width-8)
		if i == p.cursor {
			b.WriteString(theme.OverlaySelected.Render(line))
		} else {
			b.WriteString(theme.OverlayItem.Render(line))
		}
		b.WriteString("\n")
	}
	return theme.OverlayBox.Render(strings.TrimRight(b.String(), "\n"))
}

// =============================================================================
// PATIENT FORM
// =============================================================================

const (
	fieldName = iota
	fieldAge
	fieldGender
	fieldDiagnosis
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Age", "Gender", "Diagnosis"}

var errAgeNotNumber = errors.New("age must be a number")

// patientForm adds a patient (editingID empty) or edits one.
type patientForm struct {
	editingID string
	inputs    [fieldCount]textinput.Model
	focus     int
	err       string
}

func newPatientForm(p *model.Patient) patientForm {
	f := patientForm{}
	placeholders := [fieldCount]string{"Full name", "Age in years", "Male / Female", "Optional"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		f.inputs[i] = ti
	}
	f.inputs[fieldAge].CharLimit = 3
	if p != nil {
		f.editingID = p.ID
		f.inputs[fieldName].SetValue(p.Name)
		f.inputs[fieldAge].SetValue(strconv.Itoa(p.Age))
		f.inputs[fieldGender].SetValue(p.Gender)
		f.inputs[fieldDiagnosis].SetValue(p.Diagnosis)
	}
	f.inputs[fieldName].Focus()
	return f
}

// focusField moves focus to field i, wrapping around.
func (f patientForm) focusField(i int) patientForm {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
	return f
}

// update routes a key to the focused input.
func (f patientForm) update(msg tea.Msg) (patientForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// input returns the entered patient, normalized and validated.
func (f patientForm) input() (model.PatientInput, error) {
	ageText := strings.TrimSpace(f.inputs[fieldAge].Value())
	age, err := strconv.Atoi(ageText)
	if err != nil {
		return model.PatientInput{}, errAgeNotNumber
	}
	in := model.PatientInput{
		Name:      f.inputs[fieldName].Value(),
		Age:       age,
		Gender:    f.inputs[fieldGender].Value(),
		Diagnosis: f.inputs[fieldDiagnosis].Value(),
	}.Normalize()
	if err := in.Validate(); err != nil {
		return model.PatientInput{}, err
	}
	return in, nil
}

func (f patientForm) view(theme *styles.Theme) string {
	title := "Add Patient"
	if f.editingID != "" {
		title = "Edit Patient"
	}

	var b strings.Builder
	b.WriteString(theme.OverlayTitle.Render(title))
	b.WriteString("\n")
	for i := range f.inputs {
		label := theme.FormLabel.Render(fieldLabels[i])
		if i == f.focus {
			label = theme.InputPrompt.Render(">") + label
		} else {
			label = " " + label
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, f.inputs[i].View()))
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(theme.FormError.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.ShortcutDesc.Render("Tab next field · Enter save · Esc cancel"))
	return theme.OverlayBox.Render(b.String())
}

// =============================================================================
// DELETE CONFIRMATION
// =============================================================================

func confirmDeleteView(theme *styles.Theme, p model.Patient) string {
	body := theme.OverlayTitle.Render("Delete Patient") + "\n" +
		"Delete " + p.Summary() + "?\n\n" +
		theme.ShortcutKey.Render("y") + theme.ShortcutDesc.Render(" delete   ") +
		theme.ShortcutKey.Render("n") + theme.ShortcutDesc.Render(" keep")
	return theme.DangerBox.Render(body)
}
