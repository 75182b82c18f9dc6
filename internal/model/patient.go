// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Patient is the session copy of a backend patient record.
type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis,omitempty"`
}

// Input returns the patient without its ID, as sent on create and update.
func (p Patient) Input() PatientInput {
	return PatientInput{
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Diagnosis: p.Diagnosis,
	}
}

// Summary returns "Name, age N" for list rows.
func (p Patient) Summary() string {
	return fmt.Sprintf("%s, age %d", p.Name, p.Age)
}

// PatientInput is a patient minus its ID.
type PatientInput struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
}

// Validation errors for patient input.
var (
	ErrPatientNameRequired = errors.New("name is required")
	ErrPatientAgeInvalid   = errors.New("age must be between 0 and 150")
)

// Validate checks the fields the backend cannot accept.
func (in PatientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrPatientNameRequired
	}
	if in.Age < 0 || in.Age > 150 {
		return ErrPatientAgeInvalid
	}
	return nil
}

// Normalize trims fields and title-cases the gender.
func (in PatientInput) Normalize() PatientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = NormalizeGender(in.Gender)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	return in
}

var genderCaser = cases.Title(language.English)

// NormalizeGender maps free-form input such as "female" or " MALE " to the
// backend's "Female" / "Male" spelling.
func NormalizeGender(g string) string {
	g = strings.TrimSpace(g)
	if g == "" {
		return ""
	}
	switch strings.ToLower(g) {
	case "m":
		return "Male"
	case "f":
		return "Female"
	}
	return genderCaser.String(strings.ToLower(g))
}

// FindPatient returns the patient with id, if present.
func FindPatient(patients []Patient, id string) (Patient, bool) {
	for _, p := range patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}
