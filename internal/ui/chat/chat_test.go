// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/config"
	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/stream"
	"github.com/jeranaias/counsel-tui/internal/ui/components"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// stubGateway serves a fixed backend from memory.
type stubGateway struct {
	mu       sync.Mutex
	patients []model.Patient
	threads  []model.Thread
	history  map[string][]model.Exchange
	reply    string
	chatErr  error
	chats    int
}

var _ api.Gateway = (*stubGateway)(nil)

func newStub() *stubGateway {
	return &stubGateway{
		patients: []model.Patient{{ID: "p1", Name: "Ada", Age: 41, Gender: "Female"}},
		threads:  []model.Thread{{ID: "t1", Title: "First"}, {ID: "t2", Title: "Second"}},
		history: map[string][]model.Exchange{
			"t1": {{ID: "e1", Message: "hi", Response: "hello", ThreadID: "t1"}},
			"t2": {{ID: "e2", Message: "q", Response: "a", ThreadID: "t2"}, {ID: "e3", Message: "q2", Response: "a2", ThreadID: "t2"}},
		},
		reply: "You could try a short breathing exercise together.",
	}
}

func (s *stubGateway) ListPatients(ctx context.Context) ([]model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Patient(nil), s.patients...), nil
}

func (s *stubGateway) CreatePatient(ctx context.Context, in model.PatientInput) (model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Patient{ID: "p-new", Name: in.Name, Age: in.Age, Gender: in.Gender, Diagnosis: in.Diagnosis}
	s.patients = append(s.patients, p)
	return p, nil
}

func (s *stubGateway) UpdatePatient(ctx context.Context, id string, in model.PatientInput) (model.Patient, error) {
	return model.Patient{ID: id, Name: in.Name, Age: in.Age, Gender: in.Gender, Diagnosis: in.Diagnosis}, nil
}

func (s *stubGateway) DeletePatient(ctx context.Context, id string) error {
	return nil
}

func (s *stubGateway) ListThreads(ctx context.Context) ([]model.Thread, error) {
	return append([]model.Thread(nil), s.threads...), nil
}

func (s *stubGateway) CreateThread(ctx context.Context, title string) (model.Thread, error) {
	return model.Thread{ID: "t-new", Title: title}, nil
}

func (s *stubGateway) ThreadMessages(ctx context.Context, threadID string) ([]model.Exchange, error) {
	return s.history[threadID], nil
}

func (s *stubGateway) SendChat(ctx context.Context, message, patientID, threadID string) (api.ChatResponse, error) {
	s.mu.Lock()
	s.chats++
	s.mu.Unlock()
	if s.chatErr != nil {
		return api.ChatResponse{}, s.chatErr
	}
	return api.ChatResponse{Response: s.reply}, nil
}

func (s *stubGateway) SearchDatabase(ctx context.Context, query string) (api.SearchResponse, error) {
	return api.SearchResponse{Data: []model.SearchResult{{Context: "Anxiety", Response: "Guideline: use CBT."}}}, nil
}

func (s *stubGateway) StoreSearch(ctx context.Context, threadID, message, response string) error {
	return nil
}

func (s *stubGateway) chatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats
}

func newTestModel(gw api.Gateway) Model {
	cfg := config.Default()
	cfg.Streaming.IntervalMs = 1
	return New(Options{Gateway: gw, Config: cfg, Theme: styles.NewTheme("dark")})
}

// collect runs cmd and returns the messages that arrive promptly. Batches
// are expanded; long timers such as status clears are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(250 * time.Millisecond):
		return nil
	}
}

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runeMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model after the startup loads have been applied.
func loaded(t *testing.T, gw api.Gateway) Model {
	t.Helper()
	m := newTestModel(gw)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	msgs := collect(m.Init())

	patients, ok := find[conversation.PatientsLoaded](msgs)
	require.True(t, ok, "expected PatientsLoaded from Init")
	threads, ok := find[conversation.ThreadsLoaded](msgs)
	require.True(t, ok, "expected ThreadsLoaded from Init")

	m, _ = update(m, patients)
	m, _ = update(m, threads)
	return m
}

// send types text and presses enter, returning the resolve command.
func send(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	return update(m, keyMsg(tea.KeyEnter))
}

// drainStream feeds stream ticks until the reveal finishes.
func drainStream(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 1000, "stream did not finish")
		tick, ok := find[StreamTickMsg](collect(cmd))
		require.True(t, ok)
		m, cmd = update(m, tick)
	}
	return m
}

// =============================================================================
// STARTUP
// =============================================================================

func TestView_LoadingBeforeSize(t *testing.T) {
	m := newTestModel(newStub())
	assert.Equal(t, "Loading...", m.View())
}

func TestInit_LoadsPatientsAndFirstThread(t *testing.T) {
	m := loaded(t, newStub())
	s := m.State()

	assert.False(t, s.Loading)
	require.Len(t, s.Patients, 1)
	assert.Equal(t, "t1", s.ActiveThreadID)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hi", s.Messages[0].Content)
	assert.Equal(t, "hello", s.Messages[1].Content)

	view := m.View()
	assert.Contains(t, view, "Active Threads")
	assert.Contains(t, view, "First")
	assert.Contains(t, view, "Ada")
}

func TestInit_NoThreads(t *testing.T) {
	gw := newStub()
	gw.threads = nil
	m := loaded(t, gw)

	assert.Empty(t, m.State().ActiveThreadID)
	assert.Empty(t, m.State().Messages)
	assert.Contains(t, m.View(), "No active threads")
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_WithoutPatientAnswersLocally(t *testing.T) {
	gw := newStub()
	m := loaded(t, gw)
	assert.Equal(t, placeholderNoPatient, m.input.Placeholder)

	m, cmd := send(m, "How do I help?")
	assert.Nil(t, cmd)

	msgs := m.State().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "How do I help?", msgs[2].Content)
	assert.Equal(t, conversation.NoPatientNotice, msgs[3].Content)
	assert.Equal(t, 0, gw.chatCount())
	assert.Empty(t, m.input.Value())
}

func TestSend_EmptyInputIsIgnored(t *testing.T) {
	m := loaded(t, newStub())
	before := len(m.State().Messages)

	m, cmd := send(m, "   ")
	assert.Nil(t, cmd)
	assert.Len(t, m.State().Messages, before)
}

func TestSend_CounselingRevealsReply(t *testing.T) {
	gw := newStub()
	m := loaded(t, gw)
	m.state = m.state.SelectPatient("p1")

	m, cmd := send(m, "Patient is anxious")
	require.NotNil(t, cmd)

	msgs := m.State().Messages
	last := msgs[len(msgs)-1]
	assert.True(t, model.IsThinkingID(last.ID))
	assert.Equal(t, conversation.ThinkingText, last.Content)

	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, resolved.Err)

	m, cmd = update(m, resolved)
	require.NotNil(t, cmd)
	assert.True(t, m.Streaming())

	m = drainStream(t, m, cmd)
	assert.False(t, m.Streaming())

	msgs = m.State().Messages
	assert.Equal(t, gw.reply, msgs[len(msgs)-1].Content)
	assert.Equal(t, model.SenderAssistant, msgs[len(msgs)-1].Sender)
	for _, msg := range msgs {
		assert.False(t, model.IsThinkingID(msg.ID), "placeholder left behind")
	}
	assert.Equal(t, 1, gw.chatCount())
}

func TestSend_StatusFollowsPhases(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")
	assert.Equal(t, components.StatusReady, m.statusBar.Status)

	m, cmd := send(m, "hello")
	assert.Equal(t, 1, m.presenter.Awaiting())
	assert.Equal(t, components.StatusThinking, m.statusBar.Status)
	assert.False(t, m.Streaming())

	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, stream.AwaitingResponse, m.presenter.Phase(resolved.TaskID))

	m, cmd = update(m, resolved)
	assert.Equal(t, 0, m.presenter.Awaiting())
	assert.Equal(t, components.StatusStreaming, m.statusBar.Status)

	m = drainStream(t, m, cmd)
	assert.Equal(t, components.StatusReady, m.statusBar.Status)
	assert.False(t, m.presenter.Active())
}

func TestSend_FailureReplacesPlaceholder(t *testing.T) {
	gw := newStub()
	gw.chatErr = errors.New("boom")
	m := loaded(t, gw)
	m.state = m.state.SelectPatient("p1")

	m, cmd := send(m, "hello")
	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)

	m, _ = update(m, resolved)
	msgs := m.State().Messages
	assert.Equal(t, conversation.SendFailedNotice, msgs[len(msgs)-1].Content)
	assert.False(t, m.Streaming())
	assert.Equal(t, "Request failed", m.statusBar.Message)
}

func TestSend_SearchMode(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")

	m, _ = update(m, keyMsg(tea.KeyTab))
	assert.Equal(t, model.TypeSearch, m.State().Mode)
	assert.Equal(t, placeholderSearch, m.input.Placeholder)

	m, cmd := send(m, "cbt")
	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)
	m, cmd = update(m, resolved)
	m = drainStream(t, m, cmd)

	msgs := m.State().Messages
	assert.Contains(t, msgs[len(msgs)-1].Content, "Guideline")
}

// =============================================================================
// THREAD SWITCHING
// =============================================================================

func TestThreadSwitch_StopsRevealOfOldThread(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")

	m, cmd := send(m, "hello")
	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)
	m, cmd = update(m, resolved)
	tick, ok := find[StreamTickMsg](collect(cmd))
	require.True(t, ok)

	m, cmd = m.selectThread("t2")
	require.NotNil(t, cmd)
	assert.False(t, m.Streaming())
	assert.Empty(t, m.State().Messages)

	fetched, ok := find[conversation.ThreadFetched](collect(cmd))
	require.True(t, ok)
	m, _ = update(m, fetched)
	require.Len(t, m.State().Messages, 4)

	// The abandoned tick changes nothing.
	before := m.State().Messages
	m, cmd = update(m, tick)
	assert.Nil(t, cmd)
	assert.Equal(t, before, m.State().Messages)
}

func TestThreadSwitch_ViaSidebar(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyCtrlB))
	assert.True(t, m.sidebar.Focused)
	m, _ = update(m, keyMsg(tea.KeyDown))
	m, cmd := update(m, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, "t2", m.State().ActiveThreadID)

	fetched, ok := find[conversation.ThreadFetched](collect(cmd))
	require.True(t, ok)
	m, _ = update(m, fetched)
	assert.Len(t, m.State().Messages, 4)

	m, _ = update(m, keyMsg(tea.KeyEsc))
	assert.False(t, m.sidebar.Focused)
}

func TestStaleResolvedIsDropped(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")

	m, cmd := send(m, "hello")
	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)

	m, _ = m.selectThread("t2")
	m, cmd = update(m, resolved)
	assert.Nil(t, cmd)
	assert.False(t, m.Streaming())
	assert.Empty(t, m.State().Messages)
}

func TestThreadRoundTrip_LateReplyDropped(t *testing.T) {
	gw := newStub()
	m := loaded(t, gw)
	m.state = m.state.SelectPatient("p1")

	m, cmd := send(m, "hello")
	resolved, ok := find[ResolvedMsg](collect(cmd))
	require.True(t, ok)

	// t1 -> t2 -> t1 while the reply is in flight.
	for _, id := range []string{"t2", "t1"} {
		m, cmd = m.selectThread(id)
		fetched, ok := find[conversation.ThreadFetched](collect(cmd))
		require.True(t, ok)
		m, _ = update(m, fetched)
	}

	m, cmd = update(m, resolved)
	assert.Nil(t, cmd)
	assert.False(t, m.Streaming())
	assert.Equal(t, model.ExpandExchanges(gw.history["t1"]), m.State().Messages)
	assert.Equal(t, 0, m.presenter.Awaiting())
}

func TestNewThread(t *testing.T) {
	m := loaded(t, newStub())

	m, cmd := update(m, keyMsg(tea.KeyCtrlN))
	created, ok := find[conversation.ThreadCreated](collect(cmd))
	require.True(t, ok)

	m, _ = update(m, created)
	assert.Equal(t, "t-new", m.State().ActiveThreadID)
	assert.Len(t, m.State().Threads, 3)
	assert.Empty(t, m.State().Messages)
}

// =============================================================================
// PATIENTS
// =============================================================================

func TestPatientPicker(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyCtrlP))
	assert.Equal(t, overlayPicker, m.overlay)
	assert.Contains(t, m.View(), "Select Patient")

	m, _ = update(m, keyMsg(tea.KeyEnter))
	assert.Equal(t, overlayNone, m.overlay)
	assert.Equal(t, "p1", m.State().SelectedPatientID)
	assert.Equal(t, placeholderCounsel, m.input.Placeholder)
}

func TestPatientForm_AddSelectsPatient(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyCtrlA))
	require.Equal(t, overlayForm, m.overlay)
	m.form.inputs[fieldName].SetValue("  Bob ")
	m.form.inputs[fieldAge].SetValue("30")
	m.form.inputs[fieldGender].SetValue("male")

	m, cmd := update(m, keyMsg(tea.KeyEnter))
	assert.Equal(t, overlayNone, m.overlay)
	saved, ok := find[conversation.PatientSaved](collect(cmd))
	require.True(t, ok)
	require.NoError(t, saved.Err)
	assert.Equal(t, "Bob", saved.Patient.Name)
	assert.Equal(t, "Male", saved.Patient.Gender)

	m, _ = update(m, saved)
	assert.Len(t, m.State().Patients, 2)
	assert.Equal(t, "p-new", m.State().SelectedPatientID)
}

func TestPatientForm_RejectsBadAge(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyCtrlA))
	m.form.inputs[fieldName].SetValue("Bob")
	m.form.inputs[fieldAge].SetValue("abc")

	m, cmd := update(m, keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, overlayForm, m.overlay)
	assert.Equal(t, errAgeNotNumber.Error(), m.form.err)
}

func TestPatientForm_FocusCycles(t *testing.T) {
	f := newPatientForm(nil)
	assert.Equal(t, fieldName, f.focus)
	f = f.focusField(f.focus - 1)
	assert.Equal(t, fieldDiagnosis, f.focus)
	f = f.focusField(f.focus + 1)
	assert.Equal(t, fieldName, f.focus)
}

func TestPatientForm_EditPrefills(t *testing.T) {
	p := model.Patient{ID: "p1", Name: "Ada", Age: 41, Gender: "Female"}
	f := newPatientForm(&p)
	assert.Equal(t, "p1", f.editingID)

	in, err := f.input()
	require.NoError(t, err)
	assert.Equal(t, p.Input(), in)
}

func TestDeletePatient_ClearsSelection(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")

	m, _ = update(m, keyMsg(tea.KeyCtrlX))
	require.Equal(t, overlayConfirmDelete, m.overlay)
	assert.Contains(t, m.View(), "Delete Patient")

	m, cmd := update(m, runeMsg("y"))
	deleted, ok := find[conversation.PatientDeleted](collect(cmd))
	require.True(t, ok)

	m, _ = update(m, deleted)
	assert.Empty(t, m.State().Patients)
	assert.Empty(t, m.State().SelectedPatientID)
	assert.Equal(t, placeholderNoPatient, m.input.Placeholder)
}

func TestDeletePatient_RequiresSelection(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyCtrlX))
	assert.Equal(t, overlayNone, m.overlay)
	assert.Equal(t, "No patient selected", m.statusBar.Message)
}

// =============================================================================
// MISC
// =============================================================================

func TestHelpOverlay(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, keyMsg(tea.KeyF1))
	assert.Equal(t, overlayHelp, m.overlay)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(m, keyMsg(tea.KeyEsc))
	assert.Equal(t, overlayNone, m.overlay)
}

func TestStatusClear_IgnoresStaleSequence(t *testing.T) {
	m := loaded(t, newStub())

	m, _ = update(m, StatusMsg{Text: "one"})
	m, _ = update(m, StatusMsg{Text: "two"})
	m, _ = update(m, statusClearMsg{Seq: m.statusSeq - 1})
	assert.Equal(t, "two", m.statusBar.Message)

	m, _ = update(m, statusClearMsg{Seq: m.statusSeq})
	assert.Empty(t, m.statusBar.Message)
}

func TestConfigReloaded(t *testing.T) {
	m := loaded(t, newStub())

	cfg := config.Default()
	cfg.Streaming.ChunkSize = 5
	cfg.UI.ShowSidebar = false
	m, _ = update(m, ConfigReloadedMsg{Config: cfg})

	assert.Equal(t, 5, m.presenter.Config().ChunkSize)
	assert.Equal(t, 0, m.visibleSidebarWidth())
	assert.Equal(t, "Configuration reloaded", m.statusBar.Message)
}

func TestQuit_CancelsEverything(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")
	m, cmd := send(m, "hello")
	resolved, _ := find[ResolvedMsg](collect(cmd))
	m, _ = update(m, resolved)
	require.True(t, m.Streaming())

	m, cmd = update(m, keyMsg(tea.KeyCtrlC))
	assert.True(t, m.Quitting())
	assert.False(t, m.Streaming())
	assert.True(t, m.cancelMgr.closed())
	_, ok := find[tea.QuitMsg](collect(cmd))
	assert.True(t, ok)
}

func TestViewport_KeepsScrollPositionOnRedraw(t *testing.T) {
	m := loaded(t, newStub())
	var msgs []model.ChatMessage
	for i := 0; i < 60; i++ {
		msgs = append(msgs, model.NewUserMessage("line of history", model.TypeCounseling, ""))
	}
	m.state.Messages = msgs
	m.syncWidgets()
	require.True(t, m.viewport.AtBottom())

	m, _ = update(m, keyMsg(tea.KeyPgUp))
	require.False(t, m.viewport.AtBottom())
	offset := m.viewport.YOffset

	m, _ = update(m, StatusMsg{Text: "saved"})
	m, _ = update(m, statusClearMsg{Seq: m.statusSeq})
	assert.Equal(t, offset, m.viewport.YOffset)

	// A new message brings the log back to the bottom.
	m, _ = send(m, "new question")
	assert.True(t, m.viewport.AtBottom())
}

func TestIsNotice(t *testing.T) {
	assert.True(t, isNotice(conversation.NoPatientNotice))
	assert.True(t, isNotice(stream.NoResponseNotice))
	assert.False(t, isNotice("regular reply"))
}

func TestRenderMessages_PendingUsesSpinner(t *testing.T) {
	m := loaded(t, newStub())
	m.state = m.state.SelectPatient("p1")
	m, _ = send(m, "hello")

	out := m.renderMessages()
	assert.True(t, strings.Contains(out, conversation.ThinkingText))
}
