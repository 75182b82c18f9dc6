// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"log"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/model"
)

// =============================================================================
// FETCH RESULTS
// =============================================================================

// PatientsLoaded is the result of LoadPatients.
type PatientsLoaded struct {
	Patients []model.Patient
	Err      error
}

// ThreadsLoaded is the result of LoadThreads. History holds the first
// thread's messages when there is a first thread.
type ThreadsLoaded struct {
	Threads []model.Thread
	History *ThreadFetched
	Err     error
}

// ThreadFetched is the result of FetchThread.
type ThreadFetched struct {
	ThreadID  string
	Exchanges []model.Exchange
	Err       error
}

// ThreadCreated is the result of CreateThread.
type ThreadCreated struct {
	Thread model.Thread
	Err    error
}

// PatientSaved is the result of SavePatient.
type PatientSaved struct {
	Patient model.Patient
	Created bool
	Err     error
}

// PatientDeleted is the result of DeletePatient.
type PatientDeleted struct {
	ID  string
	Err error
}

// =============================================================================
// FETCH FUNCTIONS
// =============================================================================

// LoadPatients fetches the full patient set.
func LoadPatients(ctx context.Context, gw api.Gateway) PatientsLoaded {
	patients, err := gw.ListPatients(ctx)
	if err == nil {
		log.Printf("PATIENTS_LOADED | count=%d", len(patients))
	}
	return PatientsLoaded{Patients: patients, Err: err}
}

// LoadThreads fetches all threads and, if there is at least one, the history
// of the first.
func LoadThreads(ctx context.Context, gw api.Gateway) ThreadsLoaded {
	threads, err := gw.ListThreads(ctx)
	if err != nil {
		return ThreadsLoaded{Err: err}
	}
	log.Printf("THREADS_LOADED | count=%d", len(threads))
	ev := ThreadsLoaded{Threads: threads}
	if first, ok := model.FirstThread(threads); ok {
		history := FetchThread(ctx, gw, first.ID)
		ev.History = &history
	}
	return ev
}

// FetchThread fetches the stored history of a thread.
func FetchThread(ctx context.Context, gw api.Gateway, threadID string) ThreadFetched {
	exchanges, err := gw.ThreadMessages(ctx, threadID)
	return ThreadFetched{ThreadID: threadID, Exchanges: exchanges, Err: err}
}

// CreateThread creates a thread with the default title.
func CreateThread(ctx context.Context, gw api.Gateway) ThreadCreated {
	th, err := gw.CreateThread(ctx, model.DefaultThreadTitle)
	if err == nil {
		log.Printf("THREAD_CREATED | id=%s", th.ID)
	}
	return ThreadCreated{Thread: th, Err: err}
}

// SavePatient creates the patient when id is empty and updates it otherwise.
// The input is normalized and validated first; invalid input is never sent.
func SavePatient(ctx context.Context, gw api.Gateway, id string, in model.PatientInput) PatientSaved {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return PatientSaved{Patient: model.Patient{ID: id}, Created: id == "", Err: err}
	}
	var (
		p   model.Patient
		err error
	)
	if id == "" {
		p, err = gw.CreatePatient(ctx, in)
	} else {
		p, err = gw.UpdatePatient(ctx, id, in)
		if err == nil && p.ID == "" {
			p.ID = id
		}
	}
	if err == nil {
		log.Printf("PATIENT_SAVED | id=%s created=%t", p.ID, id == "")
	}
	return PatientSaved{Patient: p, Created: id == "", Err: err}
}

// DeletePatient deletes the patient with id.
func DeletePatient(ctx context.Context, gw api.Gateway, id string) PatientDeleted {
	err := gw.DeletePatient(ctx, id)
	if err == nil {
		log.Printf("PATIENT_DELETED | id=%s", id)
	}
	return PatientDeleted{ID: id, Err: err}
}
