// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// records.go - The patients and threads commands.
//
// Examples:
//   counsel patients               List patients
//   counsel threads                List threads
//   counsel threads show ID        Print a thread's stored exchanges
//   counsel threads new            Create a thread
//   counsel threads export ID      Write a thread transcript to a file
//   counsel threads --json         Thread list in JSON format
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/export"
	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/util"
)

// listTitleWidth truncates thread titles and diagnoses in tables.
const listTitleWidth = 40

// =============================================================================
// PATIENTS
// =============================================================================

// HandlePatients handles "counsel patients [list]".
func HandlePatients(ctx context.Context, w io.Writer, gw api.Gateway, args Args) error {
	p := NewArgParser(args.Raw)
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
	default:
		return &ValidationError{Field: "subcommand", Value: sub, Reason: "patients only supports list", Example: "counsel patients list"}
	}

	ev := conversation.LoadPatients(ctx, gw)
	if ev.Err != nil {
		return NewCommandError("patients", "list", "could not load patients", ev.Err)
	}

	if args.JSON || p.BoolFlag("json") {
		out := make([]PatientData, 0, len(ev.Patients))
		for _, pt := range ev.Patients {
			out = append(out, PatientData(pt))
		}
		return NewJSONResponse("patients", out).Print(w)
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Patients (%d)", len(ev.Patients))))
	if len(ev.Patients) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No patients yet. Add one from the full-screen interface."))
		return nil
	}
	for i, pt := range ev.Patients {
		fmt.Fprintf(w, "%3d. %s  %s  %s\n",
			i+1,
			ValueStyle.Render(pt.Summary()),
			DimStyle.Render(pt.Gender),
			util.TruncateWidth(pt.Diagnosis, listTitleWidth))
	}
	return nil
}

// =============================================================================
// THREADS
// =============================================================================

// HandleThreads handles "counsel threads [list|show ID|new]".
func HandleThreads(ctx context.Context, w io.Writer, gw api.Gateway, args Args) error {
	p := NewArgParser(args.Raw)
	jsonMode := args.JSON || p.BoolFlag("json")

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return listThreads(ctx, w, gw, jsonMode)
	case "show":
		id := p.Positional(1)
		if id == "" {
			return &ValidationError{Field: "thread id", Reason: "required", Example: "counsel threads show 3f2a..."}
		}
		return showThread(ctx, w, gw, id, jsonMode)
	case "new":
		ev := conversation.CreateThread(ctx, gw)
		if ev.Err != nil {
			return NewCommandError("threads", "new", "could not create thread", ev.Err)
		}
		if jsonMode {
			return NewJSONResponse("threads new", ThreadData(ev.Thread)).Print(w)
		}
		fmt.Fprintf(w, "%s Created thread %s\n", SuccessStyle.Render("[OK]"), ev.Thread.ID)
		return nil
	case "export":
		id := p.Positional(1)
		if id == "" {
			return &ValidationError{Field: "thread id", Reason: "required", Example: "counsel threads export 3f2a... --format json"}
		}
		return exportThread(ctx, w, gw, id, p.FlagOrDefault("format", "md"), p.FlagOrDefault("out", "."), jsonMode)
	default:
		return &ValidationError{Field: "subcommand", Value: sub, Reason: "expected list, show, new or export", Example: "counsel threads show ID"}
	}
}

func listThreads(ctx context.Context, w io.Writer, gw api.Gateway, jsonMode bool) error {
	threads, err := gw.ListThreads(ctx)
	if err != nil {
		return NewCommandError("threads", "list", "could not load threads", err)
	}

	if jsonMode {
		out := make([]ThreadData, 0, len(threads))
		for _, th := range threads {
			out = append(out, ThreadData(th))
		}
		return NewJSONResponse("threads", out).Print(w)
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Threads (%d)", len(threads))))
	if len(threads) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No threads yet. Create one with 'counsel threads new'."))
		return nil
	}
	for i, th := range threads {
		fmt.Fprintf(w, "%3d. %s  %s\n", i+1, ValueStyle.Render(util.TruncateWidth(th.Title, listTitleWidth)), DimStyle.Render(th.ID))
	}
	return nil
}

func showThread(ctx context.Context, w io.Writer, gw api.Gateway, id string, jsonMode bool) error {
	ev := conversation.FetchThread(ctx, gw, id)
	if ev.Err != nil {
		if api.IsStatus(ev.Err, http.StatusNotFound) {
			return &NotFoundError{Resource: "thread", ID: id}
		}
		return NewCommandError("threads", "show", "could not load thread", ev.Err)
	}

	if jsonMode {
		out := make([]ExchangeData, 0, len(ev.Exchanges))
		for _, ex := range ev.Exchanges {
			out = append(out, ExchangeData{ID: ex.ID, Message: ex.Message, Response: ex.Response})
		}
		return NewJSONResponse("threads show", out).Print(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("Thread "+id))
	if len(ev.Exchanges) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages in this thread."))
		return nil
	}
	width := GetTerminalWidth()
	for _, msg := range model.ExpandExchanges(ev.Exchanges) {
		printMessage(w, msg, width)
	}
	return nil
}

// printMessage writes one log entry with its sender prefix.
func printMessage(w io.Writer, msg model.ChatMessage, width int) {
	prefix := AssistantStyle.Render(msg.Sender.DisplayName() + ":")
	if msg.IsUser() {
		prefix = UserStyle.Render(msg.Sender.DisplayName() + ":")
	}
	fmt.Fprintln(w, prefix)
	fmt.Fprintln(w, WrapText(msg.Content, width))
	fmt.Fprintln(w)
}

// parseIndex parses a 1-based list index.
func parseIndex(s string, n int, field string) (int, error) {
	i, err := ParseIntWithValidation(s, field)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: s, Reason: "must be a positive number"}
	}
	if i > n {
		return 0, &ValidationError{Field: field, Value: strconv.Itoa(i), Reason: fmt.Sprintf("only %d available", n)}
	}
	return i - 1, nil
}

// exportThread writes a thread transcript into dir. The thread title and
// patient names are looked up best-effort; a failure there only thins out
// the transcript.
func exportThread(ctx context.Context, w io.Writer, gw api.Gateway, id, format, dir string, jsonMode bool) error {
	opts := &export.Options{OutputDir: dir, IncludeMetadata: true}
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return &ValidationError{Field: "format", Value: format, Reason: "expected md or json", Example: "counsel threads export ID --format json"}
	}

	ev := conversation.FetchThread(ctx, gw, id)
	if ev.Err != nil {
		if api.IsStatus(ev.Err, http.StatusNotFound) {
			return &NotFoundError{Resource: "thread", ID: id}
		}
		return NewCommandError("threads", "export", "could not load thread", ev.Err)
	}

	thread := model.Thread{ID: id}
	if threads, err := gw.ListThreads(ctx); err == nil {
		if th, ok := model.FindThread(threads, id); ok {
			thread = th
		}
	}
	patients, _ := gw.ListPatients(ctx)

	path, err := export.ExportToFile(export.NewTranscript(thread, ev.Exchanges, patients), exporter, opts)
	if err != nil {
		if errors.Is(err, export.ErrEmptyTranscript) {
			return &ValidationError{Field: "thread", Value: id, Reason: "has no messages to export"}
		}
		return NewCommandError("threads", "export", "could not write transcript", err)
	}

	if jsonMode {
		return NewJSONResponse("threads export", ExportData{
			ThreadID: id,
			Path:     path,
			Format:   strings.TrimPrefix(exporter.FileExtension(), "."),
			Messages: len(ev.Exchanges) * 2,
		}).Print(w)
	}
	fmt.Fprintf(w, "%s Exported %d messages to %s\n", SuccessStyle.Render("[OK]"), len(ev.Exchanges)*2, path)
	return nil
}
