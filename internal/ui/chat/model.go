// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/config"
	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/stream"
	"github.com/jeranaias/counsel-tui/internal/ui/components"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
)

// Input placeholders, by situation.
const (
	placeholderNoPatient = "Select a patient to start..."
	placeholderSearch    = "Search the database..."
	placeholderCounsel   = "Type your message..."
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the counseling chat.
type Model struct {
	// Conversation state, replaced wholesale on every transition
	state conversation.State

	// Reveal tasks for assistant responses
	presenter *stream.Presenter

	// Backend
	gateway        api.Gateway
	cancelMgr      *cancelManager // Pointer to avoid copying mutex during Bubble Tea updates
	requestTimeout time.Duration

	// Styling
	theme    *styles.Theme
	keyMap   KeyMap
	markdown *components.MarkdownRenderer

	// Dimensions
	width  int
	height int

	// Widgets
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	help      help.Model
	sidebar   *components.Sidebar
	statusBar *components.StatusBar

	// Sidebar visibility and keyboard focus
	showSidebar  bool
	sidebarWidth int

	// Modal overlays
	overlay overlay
	picker  patientPicker
	form    patientForm

	// Log position last rendered, to tell new content from redraws
	shownThread   string
	shownMessages int

	// Transient status message sequence, so stale clears are ignored
	statusSeq int

	baseURL string
	quit    bool
}

// Options configure a new Model.
type Options struct {
	Gateway api.Gateway
	Config  *config.Config
	Theme   *styles.Theme
}

// New creates the chat model. A nil Config uses config.Default().
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholderNoPatient
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	m := Model{
		state: conversation.New(),
		presenter: stream.NewPresenter(stream.Config{
			ChunkSize:         cfg.Streaming.ChunkSize,
			Interval:          cfg.Streaming.Interval(),
			NoResponseTimeout: cfg.Streaming.NoResponseTimeout(),
		}),
		gateway:        opts.Gateway,
		cancelMgr:      newCancelManager(),
		requestTimeout: cfg.Server.RequestTimeout(),
		theme:          theme,
		keyMap:         DefaultKeyMap(),
		markdown:       components.NewMarkdownRenderer(theme.GlamourStyle(), 76),
		viewport:       vp,
		input:          ti,
		spinner:        components.NewThinkingSpinner(theme),
		help:           help.New(),
		sidebar:        components.NewSidebar(theme),
		statusBar:      components.NewStatusBar(theme),
		showSidebar:    cfg.UI.ShowSidebar,
		sidebarWidth:   cfg.UI.SidebarWidth,
		baseURL:        cfg.Server.BaseURL(),
	}
	m.help.ShowAll = true
	m.statusBar.Status = components.StatusLoading
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads patients and threads. The history of the first thread arrives
// with the thread list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadPatientsCmd(),
		m.loadThreadsCmd(),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// View renders the model.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current conversation state.
func (m Model) State() conversation.State {
	return m.state
}

// Streaming reports whether a response is still being revealed.
func (m Model) Streaming() bool {
	return m.presenter.Streaming()
}

// Quitting reports whether the model has asked the program to exit.
func (m Model) Quitting() bool {
	return m.quit
}

// =============================================================================
// DERIVED UI STATE
// =============================================================================

// syncWidgets copies conversation state into the sidebar, status bar and
// input placeholder, then re-renders the message log.
func (m *Model) syncWidgets() {
	m.sidebar.Threads = m.state.Threads
	m.sidebar.ActiveThreadID = m.state.ActiveThreadID
	m.sidebar.Patients = m.state.Patients
	m.sidebar.SelectedPatientID = m.state.SelectedPatientID
	m.sidebar.MoveCursor(0)

	m.statusBar.Mode = m.state.Mode
	m.statusBar.PatientName = ""
	if p, ok := m.state.SelectedPatient(); ok {
		m.statusBar.PatientName = p.Name
	}
	m.statusBar.ThreadTitle = ""
	if t, ok := m.state.ActiveThread(); ok {
		m.statusBar.ThreadTitle = t.Title
	}
	switch {
	case m.state.Loading:
		m.statusBar.Status = components.StatusLoading
	case m.presenter.Awaiting() > 0:
		m.statusBar.Status = components.StatusThinking
	case m.presenter.Streaming():
		m.statusBar.Status = components.StatusStreaming
	case m.statusBar.Status != components.StatusError:
		m.statusBar.Status = components.StatusReady
	}

	m.input.Placeholder = m.placeholder()
	m.updateViewport()
}

func (m Model) placeholder() string {
	if _, ok := m.state.SelectedPatient(); !ok {
		return placeholderNoPatient
	}
	if m.state.Mode == model.TypeSearch {
		return placeholderSearch
	}
	return placeholderCounsel
}

// updateViewport re-renders the log. It follows the newest message while a
// reveal runs or when the log gained messages or changed thread; otherwise
// the scroll position stays where the user left it.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
	n := len(m.state.Messages)
	if m.presenter.Streaming() || n != m.shownMessages || m.state.ActiveThreadID != m.shownThread {
		m.viewport.GotoBottom()
	}
	m.shownMessages = n
	m.shownThread = m.state.ActiveThreadID
}
