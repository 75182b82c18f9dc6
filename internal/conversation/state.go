// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"log"

	"github.com/jeranaias/counsel-tui/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the in-memory session state of one conversation view.
//
// State is a value. Every transition returns a new State and never writes to
// a slice it shares with the receiver, so an older State stays valid after a
// transition.
type State struct {
	Patients []model.Patient
	Threads  []model.Thread

	// ActiveThreadID is the thread the message log belongs to.
	ActiveThreadID string

	// SelectedPatientID is the patient counseling messages are sent for.
	SelectedPatientID string

	// Mode decides where the next message is routed.
	Mode model.MessageType

	// Messages is the visible log of the active thread.
	Messages []model.ChatMessage

	// Loading is true until the first patient load finishes.
	Loading bool
}

// New returns the initial state: loading, counseling mode, nothing selected.
func New() State {
	return State{
		Mode:    model.TypeCounseling,
		Loading: true,
	}
}

// SelectedPatient returns the selected patient, if any.
func (s State) SelectedPatient() (model.Patient, bool) {
	if s.SelectedPatientID == "" {
		return model.Patient{}, false
	}
	return model.FindPatient(s.Patients, s.SelectedPatientID)
}

// ActiveThread returns the active thread, if any.
func (s State) ActiveThread() (model.Thread, bool) {
	if s.ActiveThreadID == "" {
		return model.Thread{}, false
	}
	return model.FindThread(s.Threads, s.ActiveThreadID)
}

// HasThread reports whether a thread is active.
func (s State) HasThread() bool {
	return s.ActiveThreadID != ""
}

// Message returns the message with id, if present.
func (s State) Message(id string) (model.ChatMessage, bool) {
	if i := s.messageIndex(id); i >= 0 {
		return s.Messages[i], true
	}
	return model.ChatMessage{}, false
}

// =============================================================================
// SELECTION AND MODE
// =============================================================================

// SelectPatient selects the patient with id. An empty id clears the selection;
// an unknown id is ignored.
func (s State) SelectPatient(id string) State {
	if id != "" {
		if _, ok := model.FindPatient(s.Patients, id); !ok {
			return s
		}
	}
	s.SelectedPatientID = id
	return s
}

// SetMode sets the message mode.
func (s State) SetMode(mode model.MessageType) State {
	s.Mode = mode
	return s
}

// ToggleMode switches between search and counseling.
func (s State) ToggleMode() State {
	s.Mode = s.Mode.Toggle()
	return s
}

// BeginSelectThread makes id the active thread and empties the log. The log
// is filled when the matching ThreadFetched arrives.
func (s State) BeginSelectThread(id string) State {
	s.ActiveThreadID = id
	s.Messages = nil
	return s
}

// =============================================================================
// APPLYING FETCH RESULTS
// =============================================================================

// ApplyPatientsLoaded replaces the patient set. On failure the set is kept.
// Loading is cleared either way.
func (s State) ApplyPatientsLoaded(ev PatientsLoaded) State {
	s.Loading = false
	if ev.Err != nil {
		log.Printf("PATIENTS_LOAD_FAILED | err=%v", ev.Err)
		return s
	}
	s.Patients = clonePatients(ev.Patients)
	if s.SelectedPatientID != "" {
		if _, ok := model.FindPatient(s.Patients, s.SelectedPatientID); !ok {
			s.SelectedPatientID = ""
		}
	}
	return s
}

// ApplyThreadsLoaded replaces the thread set and selects the first thread
// with its history. With no threads, the active thread and log are empty.
//
// A thread the user opened or created before the list arrived stays active
// with its log; a locally created thread missing from the list is kept at
// the end.
func (s State) ApplyThreadsLoaded(ev ThreadsLoaded) State {
	if ev.Err != nil {
		log.Printf("THREADS_LOAD_FAILED | err=%v", ev.Err)
		return s
	}
	loaded := cloneThreads(ev.Threads)
	if s.ActiveThreadID != "" {
		if _, ok := model.FindThread(loaded, s.ActiveThreadID); !ok {
			if local, ok := model.FindThread(s.Threads, s.ActiveThreadID); ok {
				loaded = append(loaded, local)
			}
		}
		if _, ok := model.FindThread(loaded, s.ActiveThreadID); ok {
			s.Threads = loaded
			return s
		}
	}
	s.Threads = loaded
	first, ok := model.FirstThread(s.Threads)
	if !ok {
		s.ActiveThreadID = ""
		s.Messages = nil
		return s
	}
	s = s.BeginSelectThread(first.ID)
	if ev.History != nil {
		s = s.ApplyThreadFetched(*ev.History)
	}
	return s
}

// ApplyThreadFetched replaces the log with a thread's history. Results for a
// thread that is no longer active are dropped.
func (s State) ApplyThreadFetched(ev ThreadFetched) State {
	if ev.ThreadID != s.ActiveThreadID {
		log.Printf("THREAD_FETCH_STALE | thread=%s active=%s", ev.ThreadID, s.ActiveThreadID)
		return s
	}
	if ev.Err != nil {
		log.Printf("THREAD_FETCH_FAILED | thread=%s err=%v", ev.ThreadID, ev.Err)
		return s
	}
	s.Messages = model.ExpandExchanges(ev.Exchanges)
	return s
}

// ApplyThreadCreated appends the new thread, activates it and clears the log.
func (s State) ApplyThreadCreated(ev ThreadCreated) State {
	if ev.Err != nil {
		log.Printf("THREAD_CREATE_FAILED | err=%v", ev.Err)
		return s
	}
	threads := make([]model.Thread, 0, len(s.Threads)+1)
	threads = append(threads, s.Threads...)
	s.Threads = append(threads, ev.Thread)
	return s.BeginSelectThread(ev.Thread.ID)
}

// ApplyPatientSaved replaces the patient by id or appends it when new.
func (s State) ApplyPatientSaved(ev PatientSaved) State {
	if ev.Err != nil {
		log.Printf("PATIENT_SAVE_FAILED | id=%s err=%v", ev.Patient.ID, ev.Err)
		return s
	}
	patients := clonePatients(s.Patients)
	for i := range patients {
		if patients[i].ID == ev.Patient.ID {
			patients[i] = ev.Patient
			s.Patients = patients
			return s
		}
	}
	s.Patients = append(patients, ev.Patient)
	return s
}

// ApplyPatientDeleted removes the patient. The selection is cleared only if
// it was the deleted patient.
func (s State) ApplyPatientDeleted(ev PatientDeleted) State {
	if ev.Err != nil {
		log.Printf("PATIENT_DELETE_FAILED | id=%s err=%v", ev.ID, ev.Err)
		return s
	}
	patients := make([]model.Patient, 0, len(s.Patients))
	for _, p := range s.Patients {
		if p.ID != ev.ID {
			patients = append(patients, p)
		}
	}
	s.Patients = patients
	if s.SelectedPatientID == ev.ID {
		s.SelectedPatientID = ""
	}
	return s
}

// =============================================================================
// MESSAGE LOG
// =============================================================================

// SetMessageContent overwrites the content of the message with id. Unknown
// ids leave the state unchanged.
func (s State) SetMessageContent(id, content string) State {
	i := s.messageIndex(id)
	if i < 0 {
		return s
	}
	msgs := cloneMessages(s.Messages)
	msgs[i].Content = content
	s.Messages = msgs
	return s
}

func (s State) appendMessages(msgs ...model.ChatMessage) State {
	out := make([]model.ChatMessage, 0, len(s.Messages)+len(msgs))
	out = append(out, s.Messages...)
	s.Messages = append(out, msgs...)
	return s
}

func (s State) removeMessage(id string) State {
	i := s.messageIndex(id)
	if i < 0 {
		return s
	}
	out := make([]model.ChatMessage, 0, len(s.Messages)-1)
	out = append(out, s.Messages[:i]...)
	s.Messages = append(out, s.Messages[i+1:]...)
	return s
}

func (s State) messageIndex(id string) int {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePatients(in []model.Patient) []model.Patient {
	if in == nil {
		return nil
	}
	return append([]model.Patient(nil), in...)
}

func cloneThreads(in []model.Thread) []model.Thread {
	if in == nil {
		return nil
	}
	return append([]model.Thread(nil), in...)
}

func cloneMessages(in []model.ChatMessage) []model.ChatMessage {
	return append([]model.ChatMessage(nil), in...)
}
