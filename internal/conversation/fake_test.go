// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/model"
)

var errBackend = errors.New("backend down")

// fakeGateway is an in-memory api.Gateway that records calls.
type fakeGateway struct {
	mu sync.Mutex

	patients []model.Patient
	threads  []model.Thread
	history  map[string][]model.Exchange

	chatReply   string
	chatErr     error
	search      []model.SearchResult
	searchErr   error
	storeErr    error
	listErr     error
	nextID      int
	calls       []string
	stored      []api.StoreSearchRequest
	historyHits map[string]int
}

var _ api.Gateway = (*fakeGateway)(nil)

func newFake() *fakeGateway {
	return &fakeGateway{
		history:     map[string][]model.Exchange{},
		historyHits: map[string]int{},
	}
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeGateway) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) ListPatients(ctx context.Context) ([]model.Patient, error) {
	f.record("ListPatients")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Patient(nil), f.patients...), nil
}

func (f *fakeGateway) CreatePatient(ctx context.Context, in model.PatientInput) (model.Patient, error) {
	f.record("CreatePatient")
	f.nextID++
	p := model.Patient{ID: "new" + string(rune('0'+f.nextID)), Name: in.Name, Age: in.Age, Gender: in.Gender, Diagnosis: in.Diagnosis}
	f.patients = append(f.patients, p)
	return p, nil
}

func (f *fakeGateway) UpdatePatient(ctx context.Context, id string, in model.PatientInput) (model.Patient, error) {
	f.record("UpdatePatient")
	return model.Patient{ID: id, Name: in.Name, Age: in.Age, Gender: in.Gender, Diagnosis: in.Diagnosis}, nil
}

func (f *fakeGateway) DeletePatient(ctx context.Context, id string) error {
	f.record("DeletePatient")
	if f.listErr != nil {
		return f.listErr
	}
	return nil
}

func (f *fakeGateway) ListThreads(ctx context.Context) ([]model.Thread, error) {
	f.record("ListThreads")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Thread(nil), f.threads...), nil
}

func (f *fakeGateway) CreateThread(ctx context.Context, title string) (model.Thread, error) {
	f.record("CreateThread")
	f.nextID++
	th := model.Thread{ID: "t-new" + string(rune('0'+f.nextID)), Title: title}
	f.threads = append(f.threads, th)
	return th, nil
}

func (f *fakeGateway) ThreadMessages(ctx context.Context, threadID string) ([]model.Exchange, error) {
	f.record("ThreadMessages")
	f.mu.Lock()
	f.historyHits[threadID]++
	f.mu.Unlock()
	return append([]model.Exchange(nil), f.history[threadID]...), nil
}

func (f *fakeGateway) SendChat(ctx context.Context, message, patientID, threadID string) (api.ChatResponse, error) {
	f.record("SendChat")
	if f.chatErr != nil {
		return api.ChatResponse{}, f.chatErr
	}
	return api.ChatResponse{Response: f.chatReply}, nil
}

func (f *fakeGateway) SearchDatabase(ctx context.Context, query string) (api.SearchResponse, error) {
	f.record("SearchDatabase")
	if f.searchErr != nil {
		return api.SearchResponse{}, f.searchErr
	}
	return api.SearchResponse{Data: f.search}, nil
}

func (f *fakeGateway) StoreSearch(ctx context.Context, threadID, message, response string) error {
	f.record("StoreSearch")
	f.stored = append(f.stored, api.StoreSearchRequest{ThreadID: threadID, Message: message, Response: response})
	return f.storeErr
}
