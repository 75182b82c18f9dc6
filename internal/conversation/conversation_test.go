// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/counsel-tui/internal/model"
)

var ctx = context.Background()

func samplePatients() []model.Patient {
	return []model.Patient{
		{ID: "p1", Name: "Ann", Age: 34, Gender: "Female"},
		{ID: "p2", Name: "Bob", Age: 51, Gender: "Male"},
		{ID: "p3", Name: "Cy", Age: 19, Gender: "Male"},
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestNew(t *testing.T) {
	s := New()
	assert.True(t, s.Loading)
	assert.Equal(t, model.TypeCounseling, s.Mode)
	assert.False(t, s.HasThread())
	assert.Empty(t, s.Messages)
}

func TestLoadPatients(t *testing.T) {
	gw := newFake()
	gw.patients = samplePatients()

	s := New().ApplyPatientsLoaded(LoadPatients(ctx, gw))
	assert.False(t, s.Loading)
	assert.Len(t, s.Patients, 3)
}

func TestLoadPatients_FailureKeepsState(t *testing.T) {
	gw := newFake()
	gw.listErr = errBackend

	s := New()
	s.Patients = samplePatients()
	s = s.ApplyPatientsLoaded(LoadPatients(ctx, gw))
	assert.False(t, s.Loading, "loading is cleared regardless of outcome")
	assert.Equal(t, samplePatients(), s.Patients)
}

func TestLoadThreads_Empty(t *testing.T) {
	for _, threads := range [][]model.Thread{nil, {}} {
		gw := newFake()
		gw.threads = threads

		var s State
		require.NotPanics(t, func() {
			s = New().ApplyThreadsLoaded(LoadThreads(ctx, gw))
		})
		assert.Empty(t, s.ActiveThreadID)
		assert.Empty(t, s.Messages)
		assert.Equal(t, 0, gw.called("ThreadMessages"))
	}
}

func TestLoadThreads_SelectsFirst(t *testing.T) {
	gw := newFake()
	gw.threads = []model.Thread{{ID: "t1", Title: "Intro"}, {ID: "t2", Title: "Later"}}
	gw.history["t1"] = []model.Exchange{{ID: "m1", Message: "hi", Response: "hello", PatientID: "p1"}}

	s := New().ApplyThreadsLoaded(LoadThreads(ctx, gw))
	assert.Equal(t, "t1", s.ActiveThreadID)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hi", s.Messages[0].Content)
	assert.Equal(t, 1, gw.historyHits["t1"])
	assert.Equal(t, 0, gw.historyHits["t2"])
}

func TestLoadThreads_KeepsThreadCreatedBeforeLoad(t *testing.T) {
	gw := newFake()
	gw.threads = []model.Thread{{ID: "t1", Title: "Intro"}, {ID: "t2", Title: "Later"}}
	gw.history["t1"] = []model.Exchange{{ID: "m1", Message: "hi", Response: "hello"}}

	s := New().ApplyThreadCreated(ThreadCreated{Thread: model.Thread{ID: "t9", Title: model.DefaultThreadTitle}})
	s = s.appendMessages(model.NewUserMessage("first words", model.TypeSearch, ""))
	s = s.ApplyThreadsLoaded(LoadThreads(ctx, gw))

	assert.Equal(t, "t9", s.ActiveThreadID)
	require.Len(t, s.Threads, 3)
	assert.Equal(t, "t9", s.Threads[2].ID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "first words", s.Messages[0].Content)
}

func TestLoadThreads_KeepsActiveThreadPresentInList(t *testing.T) {
	gw := newFake()
	gw.threads = []model.Thread{{ID: "t1"}, {ID: "t2"}}
	gw.history["t1"] = []model.Exchange{{ID: "m1", Message: "hi", Response: "hello"}}

	s := New()
	s.Threads = []model.Thread{{ID: "t2"}}
	s = s.BeginSelectThread("t2")
	s = s.ApplyThreadsLoaded(LoadThreads(ctx, gw))

	assert.Equal(t, "t2", s.ActiveThreadID)
	assert.Len(t, s.Threads, 2)
	assert.Empty(t, s.Messages, "first thread's history not applied over t2")
}

func TestLoadThreads_FailureKeepsState(t *testing.T) {
	gw := newFake()
	gw.listErr = errBackend

	s := New()
	s.Threads = []model.Thread{{ID: "t1"}}
	s.ActiveThreadID = "t1"
	s = s.ApplyThreadsLoaded(LoadThreads(ctx, gw))
	assert.Equal(t, "t1", s.ActiveThreadID)
	assert.Len(t, s.Threads, 1)
}

// =============================================================================
// THREADS
// =============================================================================

func TestSelectThread_Example(t *testing.T) {
	gw := newFake()
	gw.threads = []model.Thread{{ID: "t1", Title: "Intro"}}
	gw.history["t1"] = []model.Exchange{{ID: "m1", Message: "hi", Response: "hello", PatientID: "p1"}}

	s := New()
	s.Threads = gw.threads
	s = s.BeginSelectThread("t1")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "t1"))

	require.Len(t, s.Messages, 2)
	assert.Equal(t, model.ChatMessage{ID: "m1", Content: "hi", Sender: model.SenderUser, Type: model.TypeCounseling, PatientID: "p1"}, s.Messages[0])
	assert.Equal(t, model.ChatMessage{ID: "m1-response", Content: "hello", Sender: model.SenderAssistant, Type: model.TypeCounseling, PatientID: "p1"}, s.Messages[1])
}

func TestSelectThread_RoundTripRefetches(t *testing.T) {
	gw := newFake()
	gw.threads = []model.Thread{{ID: "A"}, {ID: "B"}}
	gw.history["A"] = []model.Exchange{{ID: "a1", Message: "q", Response: "r"}}
	gw.history["B"] = []model.Exchange{{ID: "b1", Message: "x", Response: "y"}}

	s := New()
	s.Threads = gw.threads
	s = s.BeginSelectThread("A")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "A"))

	// Local-only edit to A's log, then switch away and back.
	s = s.appendMessages(model.NewUserMessage("unsent", model.TypeSearch, ""))
	require.Len(t, s.Messages, 3)

	s = s.BeginSelectThread("B")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "B"))
	assert.Equal(t, "b1", s.Messages[0].ID)

	gw.history["A"] = append(gw.history["A"], model.Exchange{ID: "a2", Message: "q2", Response: "r2"})
	s = s.BeginSelectThread("A")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "A"))

	assert.Equal(t, 2, gw.historyHits["A"])
	assert.Equal(t, model.ExpandExchanges(gw.history["A"]), s.Messages)
}

func TestThreadFetched_StaleDropped(t *testing.T) {
	gw := newFake()
	gw.history["A"] = []model.Exchange{{ID: "a1", Message: "q", Response: "r"}}

	s := New().BeginSelectThread("A")
	slow := FetchThread(ctx, gw, "A")
	s = s.BeginSelectThread("B")
	s = s.ApplyThreadFetched(slow)

	assert.Equal(t, "B", s.ActiveThreadID)
	assert.Empty(t, s.Messages)
}

func TestCreateThread(t *testing.T) {
	gw := newFake()
	s := New()
	s.Threads = []model.Thread{{ID: "t1"}}
	s = s.BeginSelectThread("t1")
	s = s.appendMessages(model.NewUserMessage("old", model.TypeSearch, ""))

	s = s.ApplyThreadCreated(CreateThread(ctx, gw))
	require.Len(t, s.Threads, 2)
	assert.Equal(t, model.DefaultThreadTitle, s.Threads[1].Title)
	assert.Equal(t, s.Threads[1].ID, s.ActiveThreadID)
	assert.Empty(t, s.Messages)
}

// =============================================================================
// PATIENTS
// =============================================================================

func TestDeletePatient_Selection(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		deleted  string
		want     string
	}{
		{"selected patient cleared", "p2", "p2", ""},
		{"other patient keeps selection", "p2", "p3", "p2"},
		{"no selection", "", "p1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFake()
			s := New()
			s.Patients = samplePatients()
			s = s.SelectPatient(tt.selected)

			s = s.ApplyPatientDeleted(DeletePatient(ctx, gw, tt.deleted))
			assert.Equal(t, tt.want, s.SelectedPatientID)
			assert.Len(t, s.Patients, 2)
			_, found := model.FindPatient(s.Patients, tt.deleted)
			assert.False(t, found)
		})
	}
}

func TestDeletePatient_FailureKeepsPatient(t *testing.T) {
	gw := newFake()
	gw.listErr = errBackend
	s := New()
	s.Patients = samplePatients()
	s = s.SelectPatient("p1")

	s = s.ApplyPatientDeleted(DeletePatient(ctx, gw, "p1"))
	assert.Len(t, s.Patients, 3)
	assert.Equal(t, "p1", s.SelectedPatientID)
}

func TestSavePatient_CreateAppends(t *testing.T) {
	gw := newFake()
	s := New()
	s.Patients = samplePatients()

	ev := SavePatient(ctx, gw, "", model.PatientInput{Name: " Dee ", Age: 40, Gender: "female"})
	require.NoError(t, ev.Err)
	assert.True(t, ev.Created)
	s = s.ApplyPatientSaved(ev)

	require.Len(t, s.Patients, 4)
	assert.Equal(t, "Dee", s.Patients[3].Name)
	assert.Equal(t, "Female", s.Patients[3].Gender)
	assert.Equal(t, 1, gw.called("CreatePatient"))
}

func TestSavePatient_UpdateReplaces(t *testing.T) {
	gw := newFake()
	s := New()
	s.Patients = samplePatients()

	s = s.ApplyPatientSaved(SavePatient(ctx, gw, "p2", model.PatientInput{Name: "Robert", Age: 52, Gender: "m"}))
	require.Len(t, s.Patients, 3)
	assert.Equal(t, model.Patient{ID: "p2", Name: "Robert", Age: 52, Gender: "Male"}, s.Patients[1])
	assert.Equal(t, 1, gw.called("UpdatePatient"))
}

func TestSavePatient_InvalidNotSent(t *testing.T) {
	gw := newFake()
	ev := SavePatient(ctx, gw, "", model.PatientInput{Name: "  ", Age: 3})
	assert.ErrorIs(t, ev.Err, model.ErrPatientNameRequired)
	assert.Empty(t, gw.calls)

	s := New()
	s.Patients = samplePatients()
	assert.Len(t, s.ApplyPatientSaved(ev).Patients, 3)
}

func TestSelectPatient_UnknownIgnored(t *testing.T) {
	s := New()
	s.Patients = samplePatients()
	s = s.SelectPatient("p1").SelectPatient("nope")
	assert.Equal(t, "p1", s.SelectedPatientID)
	assert.Empty(t, s.SelectPatient("").SelectedPatientID)
}

func TestPatientsLoaded_DropsVanishedSelection(t *testing.T) {
	s := New()
	s.Patients = samplePatients()
	s = s.SelectPatient("p3")
	s = s.ApplyPatientsLoaded(PatientsLoaded{Patients: samplePatients()[:2]})
	assert.Empty(t, s.SelectedPatientID)
}

// =============================================================================
// VALUE SEMANTICS
// =============================================================================

func TestTransitionsDoNotAlias(t *testing.T) {
	base := New()
	base.Patients = samplePatients()
	base = base.BeginSelectThread("t1")
	base = base.appendMessages(model.NewUserMessage("one", model.TypeSearch, ""))

	next := base.SetMessageContent(base.Messages[0].ID, "changed")
	assert.Equal(t, "one", base.Messages[0].Content)
	assert.Equal(t, "changed", next.Messages[0].Content)

	after := base.ApplyPatientSaved(PatientSaved{Patient: model.Patient{ID: "p1", Name: "Zed"}})
	assert.Equal(t, "Ann", base.Patients[0].Name)
	assert.Equal(t, "Zed", after.Patients[0].Name)
}

func TestToggleMode(t *testing.T) {
	s := New()
	assert.Equal(t, model.TypeSearch, s.ToggleMode().Mode)
	assert.Equal(t, model.TypeCounseling, s.ToggleMode().ToggleMode().Mode)
	assert.Equal(t, model.TypeSearch, s.SetMode(model.TypeSearch).Mode)
}

// =============================================================================
// SENDING
// =============================================================================

func readyState() State {
	s := New()
	s.Loading = false
	s.Patients = samplePatients()
	s.Threads = []model.Thread{{ID: "t1", Title: "Intro"}}
	return s.BeginSelectThread("t1")
}

func TestSend_CounselingWithoutPatient(t *testing.T) {
	gw := newFake()
	s := readyState()

	s, out := s.Send("I feel anxious")
	assert.Nil(t, out.Request)
	assert.ErrorIs(t, out.Err, ErrNoPatient)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, model.SenderUser, s.Messages[0].Sender)
	assert.Equal(t, "I feel anxious", s.Messages[0].Content)
	assert.Equal(t, model.SenderAssistant, s.Messages[1].Sender)
	assert.Equal(t, NoPatientNotice, s.Messages[1].Content)
	assert.Equal(t, 0, gw.called("SendChat"))
}

func TestSend_CounselingWithoutPatientOrThread(t *testing.T) {
	s := New()
	s, out := s.Send("hello")
	assert.ErrorIs(t, out.Err, ErrNoPatient)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, NoPatientNotice, s.Messages[1].Content)
}

func TestSend_SearchWithoutThread(t *testing.T) {
	s := New().SetMode(model.TypeSearch)
	s, out := s.Send("grief")
	assert.ErrorIs(t, out.Err, ErrNoThread)
	assert.Nil(t, out.Request)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, NoThreadNotice, s.Messages[1].Content)
}

func TestSend_Empty(t *testing.T) {
	s := readyState()
	next, out := s.Send("   ")
	assert.ErrorIs(t, out.Err, ErrEmptyMessage)
	assert.Empty(t, next.Messages)
}

func TestSend_CounselingRoundTrip(t *testing.T) {
	gw := newFake()
	gw.chatReply = "Try a breathing exercise."
	s := readyState().SelectPatient("p1")

	s, out := s.Send("  panic attacks ")
	require.NotNil(t, out.Request)
	req := *out.Request
	assert.Equal(t, Request{Mode: model.TypeCounseling, Content: "panic attacks", PatientID: "p1", ThreadID: "t1", PlaceholderID: req.PlaceholderID}, req)

	require.Len(t, s.Messages, 2)
	assert.Equal(t, "panic attacks", s.Messages[0].Content)
	assert.Equal(t, "p1", s.Messages[0].PatientID)
	assert.Equal(t, req.PlaceholderID, s.Messages[1].ID)
	assert.Equal(t, ThinkingText, s.Messages[1].Content)
	assert.True(t, strings.HasPrefix(req.PlaceholderID, "thinking-"))

	res := Resolve(ctx, gw, req)
	require.NoError(t, res.Err)
	assert.Equal(t, gw.chatReply, res.Text)
	assert.Equal(t, 1, gw.called("SendChat"))

	s, id, ok := s.ApplyResolved(res)
	require.True(t, ok)
	require.Len(t, s.Messages, 2)
	_, placeholder := s.Message(req.PlaceholderID)
	assert.False(t, placeholder, "placeholder removed")
	assert.Equal(t, id, s.Messages[1].ID)
	assert.Equal(t, "", s.Messages[1].Content)
	assert.Equal(t, model.SenderAssistant, s.Messages[1].Sender)
}

func TestSend_Failure(t *testing.T) {
	gw := newFake()
	gw.chatErr = errBackend
	s := readyState().SelectPatient("p2")

	s, out := s.Send("help")
	require.NotNil(t, out.Request)
	s, id, ok := s.ApplyResolved(Resolve(ctx, gw, *out.Request))

	assert.False(t, ok)
	assert.Empty(t, id)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, out.Request.PlaceholderID, s.Messages[1].ID, "replaced in place")
	assert.Equal(t, SendFailedNotice, s.Messages[1].Content)
}

func TestSend_SearchStoresRenderedMarkdown(t *testing.T) {
	gw := newFake()
	gw.search = []model.SearchResult{{Context: "I can't sleep", Response: "Keep a routine.\nAvoid screens."}}
	s := readyState().SetMode(model.TypeSearch)

	s, out := s.Send("insomnia")
	require.NotNil(t, out.Request)
	assert.Empty(t, out.Request.PatientID)

	res := Resolve(ctx, gw, *out.Request)
	require.NoError(t, res.Err)
	want := model.RenderSearchMarkdown(gw.search)
	assert.Equal(t, want, res.Text)
	require.Len(t, gw.stored, 1)
	assert.Equal(t, "t1", gw.stored[0].ThreadID)
	assert.Equal(t, "insomnia", gw.stored[0].Message)
	assert.Equal(t, want, gw.stored[0].Response)
	assert.Equal(t, 0, gw.called("SendChat"))
}

func TestSend_SearchStoreFailureStillAnswers(t *testing.T) {
	gw := newFake()
	gw.search = []model.SearchResult{{Context: "c", Response: "r"}}
	gw.storeErr = errBackend
	s := readyState().SetMode(model.TypeSearch)

	s, out := s.Send("q")
	res := Resolve(ctx, gw, *out.Request)
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.Text)

	_, _, ok := s.ApplyResolved(res)
	assert.True(t, ok)
}

func TestApplyResolved_InactiveThreadDropped(t *testing.T) {
	gw := newFake()
	gw.chatReply = "late"
	s := readyState().SelectPatient("p1")
	s, out := s.Send("q")

	s = s.BeginSelectThread("t2")
	next, id, ok := s.ApplyResolved(Resolve(ctx, gw, *out.Request))
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Empty(t, next.Messages)
}

func TestSend_NoPlaceholderAlongsideResult(t *testing.T) {
	gw := newFake()
	gw.chatReply = "answer"
	s := readyState().SelectPatient("p1")

	for i := 0; i < 3; i++ {
		var out Outcome
		s, out = s.Send("q")
		s, _, _ = s.ApplyResolved(Resolve(ctx, gw, *out.Request))
	}
	for _, m := range s.Messages {
		assert.NotEqual(t, ThinkingText, m.Content)
	}
	assert.Len(t, s.Messages, 6)
}

func TestApplyResolved_ThreadReloadedMeanwhileDropped(t *testing.T) {
	gw := newFake()
	gw.chatReply = "r-late"
	gw.threads = []model.Thread{{ID: "A"}, {ID: "B"}}
	gw.history["A"] = []model.Exchange{{ID: "a1", Message: "q", Response: "r"}}

	s := New()
	s.Patients = samplePatients()
	s.Threads = gw.threads
	s = s.SelectPatient("p1").BeginSelectThread("A")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "A"))

	s, out := s.Send("hello")
	require.NotNil(t, out.Request)

	// A -> B -> A while the reply is in flight.
	s = s.BeginSelectThread("B")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "B"))
	s = s.BeginSelectThread("A")
	s = s.ApplyThreadFetched(FetchThread(ctx, gw, "A"))

	fresh := model.ExpandExchanges(gw.history["A"])
	next, id, ok := s.ApplyResolved(Resolve(ctx, gw, *out.Request))
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Equal(t, fresh, next.Messages)

	// The failure branch is dropped the same way.
	gw.chatErr = errBackend
	next, _, ok = s.ApplyResolved(Resolve(ctx, gw, *out.Request))
	assert.False(t, ok)
	assert.Equal(t, fresh, next.Messages)
}
