// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat session for counsel.
//
// Command: chat
// Aliases: repl
//
// Runs the same conversation as the full-screen interface on a plain
// terminal: messages go through the selected patient and active thread and
// answers are revealed a chunk at a time.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /patients, /p       List patients
//   /patient N|none     Select patient N, or clear the selection
//   /threads, /t        List threads
//   /thread N           Open thread N
//   /new                Create and open a thread
//   /mode [search|advice]
//                       Show or switch the message mode
//   /history            Print the open thread
//   /export [md|json]   Write the open thread to a file
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current request
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/config"
	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/export"
	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/stream"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.line.SetCompleter(completeSlash)
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

var slashCommands = []string{
	"/help", "/patients", "/patient", "/threads", "/thread",
	"/new", "/mode", "/history", "/export", "/quit",
}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for a line-based chat session. Everything but
// Cancel runs on the REPL goroutine.
type ChatSession struct {
	Gateway        api.Gateway
	State          conversation.State
	Presenter      *stream.Presenter
	RequestTimeout time.Duration

	Out       io.Writer
	Width     int
	Quiet     bool
	ExportDir string

	StartTime time.Time
	Sent      int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewChatSession creates a chat session writing to out.
func NewChatSession(gw api.Gateway, cfg *config.Config, out io.Writer, args Args) *ChatSession {
	return &ChatSession{
		Gateway: gw,
		State:   conversation.New(),
		Presenter: stream.NewPresenter(stream.Config{
			ChunkSize:         cfg.Streaming.ChunkSize,
			Interval:          cfg.Streaming.Interval(),
			NoResponseTimeout: cfg.Streaming.NoResponseTimeout(),
		}),
		RequestTimeout: cfg.Server.RequestTimeout(),
		Out:            out,
		Width:          GetTerminalWidth(),
		Quiet:          args.Quiet,
		ExportDir:      ".",
		StartTime:      time.Now(),
	}
}

// Load fetches patients and threads and opens the first thread. A failed
// patient load is returned since nothing useful can be done without the
// backend.
func (s *ChatSession) Load(ctx context.Context) error {
	patients := conversation.LoadPatients(ctx, s.Gateway)
	s.State = s.State.ApplyPatientsLoaded(patients)
	if patients.Err != nil {
		return NewCommandError("chat", "start", "could not load patients", patients.Err)
	}
	threads := conversation.LoadThreads(ctx, s.Gateway)
	s.State = s.State.ApplyThreadsLoaded(threads)
	if threads.Err != nil {
		return NewCommandError("chat", "start", "could not load threads", threads.Err)
	}
	return nil
}

// Cancel aborts the request or reveal in progress, if any. It reports
// whether there was one. Safe to call from a signal handler goroutine.
func (s *ChatSession) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

func (s *ChatSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// Prompt returns the input prompt: mode and selected patient.
func (s *ChatSession) Prompt() string {
	who := "no patient"
	if p, ok := s.State.SelectedPatient(); ok {
		who = p.Name
	}
	return fmt.Sprintf("[%s | %s] > ", s.State.Mode.Label(), who)
}

// HandleLine processes one line of input. quit is true when the session
// should end.
func (s *ChatSession) HandleLine(ctx context.Context, input string) (quit bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}
	if strings.HasPrefix(input, "/") {
		return s.handleSlashCommand(ctx, input)
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return true, nil
	}
	return false, s.send(ctx, input)
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// send delivers one message and reveals the answer.
func (s *ChatSession) send(ctx context.Context, content string) error {
	next, out := s.State.Send(content)
	s.State = next
	if errors.Is(out.Err, conversation.ErrEmptyMessage) {
		return nil
	}
	if out.Request == nil {
		// Answered locally; the notice is the last entry.
		if n := len(s.State.Messages); n > 0 {
			notice := s.State.Messages[n-1]
			fmt.Fprintf(s.Out, "%s %s\n\n", AssistantStyle.Render("Assistant:"), WarningStyle.Render(notice.Content))
		}
		return nil
	}

	sendCtx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel()
	}()

	if !s.Quiet {
		fmt.Fprintln(s.Out, DimStyle.Render(conversation.ThinkingText))
	}

	awaiting := s.Presenter.Await(out.Request.PlaceholderID, out.Request.ThreadID)
	reqCtx, reqCancel := context.WithTimeout(sendCtx, s.RequestTimeout)
	resolved := conversation.Resolve(reqCtx, s.Gateway, *out.Request)
	reqCancel()

	next, messageID, ok := s.State.ApplyResolved(resolved)
	s.State = next
	if !ok {
		s.Presenter.Fail(awaiting.ID)
		if sendCtx.Err() != nil {
			fmt.Fprintln(s.Out, WarningStyle.Render("[Cancelled]"))
			return nil
		}
		fmt.Fprintf(s.Out, "%s %s\n\n", AssistantStyle.Render("Assistant:"), ErrorStyle.Render(conversation.SendFailedNotice))
		return resolved.Err
	}
	s.Sent++

	fmt.Fprintln(s.Out, AssistantStyle.Render("Assistant:"))
	printed := 0
	task, _ := s.Presenter.Begin(awaiting.ID, messageID, resolved.Text)
	phase := s.Presenter.Run(sendCtx, task, func(u stream.Update) {
		s.State = s.State.SetMessageContent(u.MessageID, u.Content)
		if u.Phase == stream.Failed {
			fmt.Fprint(s.Out, WarningStyle.Render(u.Content))
			return
		}
		fmt.Fprint(s.Out, u.Content[printed:])
		printed = len(u.Content)
	})
	fmt.Fprintln(s.Out)
	if phase == stream.Idle {
		fmt.Fprintln(s.Out, WarningStyle.Render("[Cancelled]"))
	}
	fmt.Fprintln(s.Out)
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (s *ChatSession) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/help", "/h", "/?":
		s.printHelp()

	case "/quit", "/q", "/exit":
		return true, nil

	case "/patients", "/p":
		s.printPatients()

	case "/patient":
		return false, s.selectPatient(arg)

	case "/threads", "/t":
		s.printThreads()

	case "/thread":
		return false, s.openThread(ctx, arg)

	case "/new":
		ev := conversation.CreateThread(ctx, s.Gateway)
		if ev.Err != nil {
			return false, NewCommandError("chat", "new", "could not create thread", ev.Err)
		}
		s.Presenter.CancelForThread(ev.Thread.ID)
		s.State = s.State.ApplyThreadCreated(ev)
		fmt.Fprintf(s.Out, "%s Opened new thread %s\n", SuccessStyle.Render("[OK]"), ev.Thread.ID)

	case "/mode":
		return false, s.setMode(arg)

	case "/history":
		if len(s.State.Messages) == 0 {
			fmt.Fprintln(s.Out, DimStyle.Render("No messages in this thread."))
			break
		}
		for _, msg := range s.State.Messages {
			printMessage(s.Out, msg, s.Width)
		}

	case "/export":
		return false, s.exportThread(arg)

	default:
		example := "/help"
		if s := suggest(cmd, slashCommands); s != "" {
			example = s
		}
		return false, &ValidationError{Field: "command", Value: cmd, Reason: "unknown command", Example: example}
	}
	return false, nil
}

func (s *ChatSession) selectPatient(arg string) error {
	if arg == "" {
		return &ValidationError{Field: "patient", Reason: "number or 'none' required", Example: "/patient 2"}
	}
	if strings.EqualFold(arg, "none") {
		s.State = s.State.SelectPatient("")
		fmt.Fprintln(s.Out, DimStyle.Render("Patient selection cleared."))
		return nil
	}
	i, err := parseIndex(arg, len(s.State.Patients), "patient")
	if err != nil {
		return err
	}
	p := s.State.Patients[i]
	s.State = s.State.SelectPatient(p.ID)
	fmt.Fprintf(s.Out, "%s Selected %s\n", SuccessStyle.Render("[OK]"), p.Summary())
	return nil
}

func (s *ChatSession) openThread(ctx context.Context, arg string) error {
	i, err := parseIndex(arg, len(s.State.Threads), "thread")
	if err != nil {
		return err
	}
	th := s.State.Threads[i]
	s.Presenter.CancelForThread(th.ID)
	s.State = s.State.BeginSelectThread(th.ID)
	ev := conversation.FetchThread(ctx, s.Gateway, th.ID)
	s.State = s.State.ApplyThreadFetched(ev)
	if ev.Err != nil {
		return NewCommandError("chat", "thread", "could not load history", ev.Err)
	}
	fmt.Fprintf(s.Out, "%s Opened %s (%d messages)\n", SuccessStyle.Render("[OK]"), th.Title, len(s.State.Messages))
	return nil
}

func (s *ChatSession) setMode(arg string) error {
	switch strings.ToLower(arg) {
	case "":
		s.State = s.State.ToggleMode()
	case "advice", "counsel":
		s.State = s.State.SetMode(model.TypeCounseling)
	default:
		mode, ok := model.ParseMessageType(strings.ToLower(arg))
		if !ok {
			return &ValidationError{Field: "mode", Value: arg, Reason: "expected search or advice", Example: "/mode search"}
		}
		s.State = s.State.SetMode(mode)
	}
	fmt.Fprintf(s.Out, "Mode: %s\n", ValueStyle.Render(s.State.Mode.Label()))
	return nil
}

// exportThread writes the visible history of the open thread to the
// session's export directory.
func (s *ChatSession) exportThread(format string) error {
	th, ok := s.State.ActiveThread()
	if !ok {
		return &ValidationError{Field: "thread", Reason: "no thread is open", Example: "/thread 1"}
	}
	opts := &export.Options{OutputDir: s.ExportDir, IncludeMetadata: true}
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return &ValidationError{Field: "format", Value: format, Reason: "expected md or json", Example: "/export json"}
	}
	t := export.FromMessages(th, s.State.Messages, s.State.Patients)
	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		if errors.Is(err, export.ErrEmptyTranscript) {
			return &ValidationError{Field: "thread", Reason: "has no messages to export"}
		}
		return NewCommandError("chat", "export", "could not write transcript", err)
	}
	fmt.Fprintf(s.Out, "%s Exported %d messages to %s\n", SuccessStyle.Render("[OK]"), len(t.Messages), path)
	return nil
}

func (s *ChatSession) printPatients() {
	if len(s.State.Patients) == 0 {
		fmt.Fprintln(s.Out, DimStyle.Render("No patients."))
		return
	}
	for i, p := range s.State.Patients {
		mark := " "
		if p.ID == s.State.SelectedPatientID {
			mark = "*"
		}
		fmt.Fprintf(s.Out, "%s%3d. %s\n", mark, i+1, p.Summary())
	}
}

func (s *ChatSession) printThreads() {
	if len(s.State.Threads) == 0 {
		fmt.Fprintln(s.Out, DimStyle.Render("No threads. Use /new to create one."))
		return
	}
	for i, th := range s.State.Threads {
		mark := " "
		if th.ID == s.State.ActiveThreadID {
			mark = "*"
		}
		fmt.Fprintf(s.Out, "%s%3d. %s\n", mark, i+1, th.Title)
	}
}

func (s *ChatSession) printHelp() {
	fmt.Fprintln(s.Out, TitleStyle.Render("Commands"))
	rows := [][2]string{
		{"/patients", "List patients"},
		{"/patient N|none", "Select a patient"},
		{"/threads", "List threads"},
		{"/thread N", "Open a thread"},
		{"/new", "Create a thread"},
		{"/mode [search|advice]", "Switch message mode"},
		{"/history", "Print the open thread"},
		{"/export [md|json]", "Write the open thread to a file"},
		{"/quit", "Exit"},
	}
	for _, r := range rows {
		fmt.Fprintf(s.Out, "  %-24s %s\n", r[0], DimStyle.Render(r[1]))
	}
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printWelcome(baseURL string) {
	fmt.Fprintln(s.Out, TitleStyle.Render("counsel chat"))
	fmt.Fprintln(s.Out, RenderField("Backend", baseURL))
	fmt.Fprintln(s.Out, RenderField("Patients", fmt.Sprint(len(s.State.Patients))))
	thread := "none (use /new)"
	if th, ok := s.State.ActiveThread(); ok {
		thread = th.Title
	}
	fmt.Fprintln(s.Out, RenderField("Thread", thread))
	fmt.Fprintln(s.Out, DimStyle.Render("Type /help for commands, /patient N to pick a patient."))
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printExitSummary() {
	if s.Quiet {
		return
	}
	fmt.Fprintf(s.Out, "%s %d sent in %s\n",
		DimStyle.Render("Session:"), s.Sent, time.Since(s.StartTime).Round(time.Second))
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive chat loop until /quit, Ctrl+C at the
// prompt or EOF.
func HandleChat(ctx context.Context, gw api.Gateway, cfg *config.Config, args Args) error {
	if err := RequiresTTY("start a chat session"); err != nil {
		return err
	}

	session := NewChatSession(gw, cfg, os.Stdout, args)
	if err := session.Load(ctx); err != nil {
		return err
	}
	if !session.Quiet {
		session.printWelcome(cfg.Server.BaseURL())
	}

	input := NewChatCLI()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if session.Cancel() {
				fmt.Fprintln(os.Stderr)
			}
		}
	}()

	for {
		line, err := input.ReadInput(session.Prompt())
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin
			fmt.Fprintln(session.Out)
			session.printExitSummary()
			return nil
		}

		quit, err := session.HandleLine(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if quit {
			session.printExitSummary()
			return nil
		}
	}
}
