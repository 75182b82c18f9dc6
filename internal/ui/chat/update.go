// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/stream"
	"github.com/jeranaias/counsel-tui/internal/ui/components"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Conversation results
	case conversation.PatientsLoaded:
		m.state = m.state.ApplyPatientsLoaded(msg)
		return m.afterResult(msg.Err, "Failed to load patients")

	case conversation.ThreadsLoaded:
		m.state = m.state.ApplyThreadsLoaded(msg)
		m.presenter.CancelForThread(m.state.ActiveThreadID)
		err := msg.Err
		if err == nil && msg.History != nil {
			err = msg.History.Err
		}
		return m.afterResult(err, "Failed to load threads")

	case conversation.ThreadFetched:
		stale := msg.ThreadID != m.state.ActiveThreadID
		m.state = m.state.ApplyThreadFetched(msg)
		if stale {
			return m, nil
		}
		return m.afterResult(msg.Err, "Failed to load thread")

	case conversation.ThreadCreated:
		m.state = m.state.ApplyThreadCreated(msg)
		m.presenter.CancelForThread(m.state.ActiveThreadID)
		return m.afterResult(msg.Err, "Failed to create thread")

	case conversation.PatientSaved:
		m.state = m.state.ApplyPatientSaved(msg)
		if msg.Err == nil && msg.Created {
			m.state = m.state.SelectPatient(msg.Patient.ID)
		}
		if msg.Err == nil {
			return m.withStatus("Saved "+msg.Patient.Name, false)
		}
		return m.afterResult(msg.Err, "Failed to save patient")

	case conversation.PatientDeleted:
		m.state = m.state.ApplyPatientDeleted(msg)
		return m.afterResult(msg.Err, "Failed to delete patient")

	// Sending and streaming
	case ResolvedMsg:
		return m.handleResolved(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.presenter.Awaiting() > 0 || m.state.Loading {
			m.updateViewport()
		}
		return m, cmd

	// UI state
	case StatusMsg:
		return m.withStatus(msg.Text, false)

	case statusClearMsg:
		if msg.Seq == m.statusSeq {
			m.statusBar.Message = ""
			if m.statusBar.Status == components.StatusError {
				m.statusBar.Status = components.StatusReady
			}
			m.syncWidgets()
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

// afterResult refreshes the widgets and reports err in the status bar.
func (m Model) afterResult(err error, what string) (tea.Model, tea.Cmd) {
	if err != nil {
		return m.withStatus(what, true)
	}
	m.syncWidgets()
	return m, nil
}

// withStatus shows a transient status message. isErr also flags the status
// bar as failed until the message clears.
func (m Model) withStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.statusBar.Message = text
	if isErr {
		m.statusBar.Status = components.StatusError
	}
	m.syncWidgets()
	return m, clearStatusCmd(m.statusSeq)
}

func (m Model) handleResolved(msg ResolvedMsg) (tea.Model, tea.Cmd) {
	r := msg.Resolved

	// A task cancelled while awaiting belongs to an abandoned thread.
	if m.presenter.Phase(msg.TaskID) != stream.AwaitingResponse {
		log.Printf("SEND_STALE | task=%d thread=%s", msg.TaskID, r.Request.ThreadID)
		m.syncWidgets()
		return m, nil
	}

	state, messageID, ok := m.state.ApplyResolved(r)
	m.state = state
	if !ok {
		m.presenter.Fail(msg.TaskID)
		if r.Err != nil && r.Request.ThreadID == m.state.ActiveThreadID {
			return m.withStatus("Request failed", true)
		}
		m.syncWidgets()
		return m, nil
	}

	task, _ := m.presenter.Begin(msg.TaskID, messageID, r.Text)
	m.syncWidgets()
	return m, streamTickCmd(m.presenter.Config().Interval, task.ID)
}

func (m Model) handleStreamTick(msg StreamTickMsg) (tea.Model, tea.Cmd) {
	u := m.presenter.Tick(msg.TaskID)
	if u.Phase == stream.Idle || u.Phase == stream.AwaitingResponse {
		return m, nil
	}
	if u.Changed && u.ThreadID == m.state.ActiveThreadID {
		m.state = m.state.SetMessageContent(u.MessageID, u.Content)
	}
	m.syncWidgets()
	if u.Next {
		return m, streamTickCmd(m.presenter.Config().Interval, u.TaskID)
	}
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}
	m.presenter.SetConfig(stream.Config{
		ChunkSize:         cfg.Streaming.ChunkSize,
		Interval:          cfg.Streaming.Interval(),
		NoResponseTimeout: cfg.Streaming.NoResponseTimeout(),
	})
	m.requestTimeout = cfg.Server.RequestTimeout()
	m.showSidebar = cfg.UI.ShowSidebar
	m.sidebarWidth = cfg.UI.SidebarWidth
	if cfg.Server.BaseURL() != m.baseURL {
		log.Printf("CONFIG_RELOAD | server change to %s applies on restart", cfg.Server.BaseURL())
	}
	m = m.relayout()
	return m.withStatus("Configuration reloaded", false)
}

// =============================================================================
// LAYOUT
// =============================================================================

// Layout heights of the fixed rows around the message log.
const (
	headerHeight    = 2
	inputAreaHeight = 3
	statusBarHeight = 1
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m = m.relayout()
	return m, nil
}

// relayout sizes the widgets to the terminal.
func (m Model) relayout() Model {
	if m.width == 0 || m.height == 0 {
		return m
	}
	logWidth := m.width - m.visibleSidebarWidth()

	m.viewport.Width = max(logWidth, 1)
	m.viewport.Height = max(m.height-headerHeight-inputAreaHeight-statusBarHeight, 1)

	const promptLen = 2 // "> "
	m.input.Width = max(logWidth-6-promptLen, 10)

	m.sidebar.Width = m.visibleSidebarWidth()
	m.sidebar.Height = max(m.height-headerHeight-statusBarHeight, 1)
	m.statusBar.SetWidth(m.width)
	m.markdown.SetWidth(logWidth - 6)
	m.help.Width = m.width
	m.syncWidgets()
	return m
}

// visibleSidebarWidth is zero when the sidebar is hidden or the terminal is
// too narrow for it.
func (m Model) visibleSidebarWidth() int {
	if !m.showSidebar || m.width < 60 {
		return 0
	}
	return m.sidebarWidth
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m.shutdown()
	}

	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}
	if m.sidebar.Focused {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleMode):
		m.state = m.state.ToggleMode()
		m.syncWidgets()
		return m, nil

	case key.Matches(msg, m.keyMap.PickPatient):
		m.picker = newPatientPicker(m.state.Patients, m.state.SelectedPatientID)
		m.overlay = overlayPicker
		return m, nil

	case key.Matches(msg, m.keyMap.NewThread):
		return m.withStatusCmd("Creating thread...", m.createThreadCmd())

	case key.Matches(msg, m.keyMap.NewPatient):
		m.form = newPatientForm(nil)
		m.overlay = overlayForm
		return m, nil

	case key.Matches(msg, m.keyMap.EditPatient):
		p, ok := m.state.SelectedPatient()
		if !ok {
			return m.withStatus("No patient selected", false)
		}
		m.form = newPatientForm(&p)
		m.overlay = overlayForm
		return m, nil

	case key.Matches(msg, m.keyMap.DeletePatient):
		if _, ok := m.state.SelectedPatient(); !ok {
			return m.withStatus("No patient selected", false)
		}
		m.overlay = overlayConfirmDelete
		return m, nil

	case key.Matches(msg, m.keyMap.Sidebar):
		m.showSidebar = true
		m.sidebar.Focused = true
		m.input.Blur()
		m = m.relayout()
		m.syncWidgets()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// withStatusCmd shows text and runs cmd.
func (m Model) withStatusCmd(text string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	next, clear := m.withStatus(text, false)
	return next, tea.Batch(cmd, clear)
}

// submit sends the input line.
func (m Model) submit() (tea.Model, tea.Cmd) {
	state, out := m.state.Send(m.input.Value())
	if errors.Is(out.Err, conversation.ErrEmptyMessage) {
		return m, nil
	}
	m.state = state
	m.input.Reset()

	if out.Request == nil {
		m.syncWidgets()
		return m, nil
	}
	task := m.presenter.Await(out.Request.PlaceholderID, out.Request.ThreadID)
	m.syncWidgets()
	return m, tea.Batch(m.resolveCmd(*out.Request, task.ID), m.spinner.Tick)
}

// selectThread switches the active thread and fetches its history. Reveals
// bound to the previous thread stop before the log is replaced.
func (m Model) selectThread(id string) (Model, tea.Cmd) {
	if id == m.state.ActiveThreadID {
		return m, nil
	}
	m.presenter.CancelForThread(id)
	m.state = m.state.BeginSelectThread(id)
	m.syncWidgets()
	return m, m.fetchThreadCmd(id)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.MoveCursor(-1)
	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.MoveCursor(1)
	case key.Matches(msg, m.keyMap.Submit):
		if t, ok := m.sidebar.CurrentThread(); ok {
			return m.selectThread(t.ID)
		}
		if p, ok := m.sidebar.CurrentPatient(); ok {
			m.state = m.state.SelectPatient(p.ID)
			m.syncWidgets()
		}
	case key.Matches(msg, m.keyMap.Back), key.Matches(msg, m.keyMap.Sidebar):
		m.sidebar.Focused = false
		m.input.Focus()
		m.syncWidgets()
	case key.Matches(msg, m.keyMap.ToggleMode):
		m.state = m.state.ToggleMode()
		m.syncWidgets()
	case key.Matches(msg, m.keyMap.Help):
		m.overlay = overlayHelp
	}
	return m, nil
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keyMap.Back) || key.Matches(msg, m.keyMap.Help) {
			m.overlay = overlayNone
		}
		return m, nil

	case overlayPicker:
		switch {
		case key.Matches(msg, m.keyMap.Back):
			m.overlay = overlayNone
		case key.Matches(msg, m.keyMap.Up):
			m.picker = m.picker.move(-1, len(m.state.Patients))
		case key.Matches(msg, m.keyMap.Down):
			m.picker = m.picker.move(1, len(m.state.Patients))
		case key.Matches(msg, m.keyMap.Submit):
			m.overlay = overlayNone
			if m.picker.cursor < len(m.state.Patients) {
				m.state = m.state.SelectPatient(m.state.Patients[m.picker.cursor].ID)
				m.syncWidgets()
			}
		}
		return m, nil

	case overlayConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.overlay = overlayNone
			p, ok := m.state.SelectedPatient()
			if !ok {
				return m, nil
			}
			return m, m.deletePatientCmd(p.ID)
		case "n", "N", "esc":
			m.overlay = overlayNone
		}
		return m, nil

	case overlayForm:
		return m.handleFormKey(msg)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		return m, nil
	case "tab", "down":
		m.form = m.form.focusField(m.form.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.form = m.form.focusField(m.form.focus - 1)
		return m, nil
	case "enter":
		in, err := m.form.input()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.overlay = overlayNone
		return m, m.savePatientCmd(m.form.editingID, in)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// shutdown aborts requests and reveals, then quits.
func (m Model) shutdown() (tea.Model, tea.Cmd) {
	m.cancelMgr.clear()
	awaiting := m.presenter.Awaiting()
	n := m.presenter.CancelAll()
	log.Printf("QUIT | cancelled_tasks=%d awaiting=%d", n, awaiting)
	m.quit = true
	return m, tea.Quit
}
