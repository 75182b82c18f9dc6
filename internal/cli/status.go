// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for counsel.
//
// Command: status
// Aliases: s
//
// Examples:
//   counsel status                Check the backend
//   counsel status --json         Status in JSON format
//
// Output Fields:
//   Backend    Base URL of the API
//   Config     Path of the config file in use
//   Reachable  Whether the patient and thread lists could be fetched
//   Latency    Time taken by both list calls
//   Patients   Number of patients on the backend
//   Threads    Number of threads on the backend
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/conversation"
)

// StatusTarget is what the status command checks.
type StatusTarget struct {
	Gateway    api.Gateway
	BaseURL    string
	ConfigPath string
}

// HandleStatus handles the "status" command. An unreachable backend is
// reported in the output and also returned so the exit code reflects it.
func HandleStatus(ctx context.Context, w io.Writer, target StatusTarget, args Args) error {
	data, err := collectStatus(ctx, target)

	if args.JSON {
		resp := NewJSONResponse("status", data)
		if err != nil {
			resp = NewJSONErrorResponse("status", err)
			resp.Data = data
		}
		if perr := resp.Print(w); perr != nil {
			return perr
		}
		if err != nil {
			return reportedError{err}
		}
		return nil
	}

	fmt.Fprintln(w, TitleStyle.Render("counsel status"))
	fmt.Fprintln(w, RenderField("Backend", data.BaseURL))
	fmt.Fprintln(w, RenderField("Config", data.ConfigPath))
	fmt.Fprintln(w, RenderSeparator())
	fmt.Fprintln(w, LabelStyle.Render("Reachable")+RenderStatus(data.Reachable))
	if err != nil {
		return NewCommandError("status", "check", "backend unreachable", err)
	}
	fmt.Fprintln(w, RenderField("Latency", fmt.Sprintf("%dms", data.LatencyMs)))
	fmt.Fprintln(w, RenderField("Patients", fmt.Sprint(data.Patients)))
	fmt.Fprintln(w, RenderField("Threads", fmt.Sprint(data.Threads)))
	return nil
}

func collectStatus(ctx context.Context, target StatusTarget) (StatusData, error) {
	data := StatusData{
		BaseURL:    target.BaseURL,
		ConfigPath: target.ConfigPath,
	}
	if data.ConfigPath == "" {
		data.ConfigPath = "(defaults)"
	}

	start := time.Now()
	patients := conversation.LoadPatients(ctx, target.Gateway)
	if patients.Err != nil {
		data.Error = patients.Err.Error()
		return data, patients.Err
	}
	threads, err := target.Gateway.ListThreads(ctx)
	if err != nil {
		data.Error = err.Error()
		return data, err
	}

	data.Reachable = true
	data.LatencyMs = time.Since(start).Milliseconds()
	data.Patients = len(patients.Patients)
	data.Threads = len(threads)
	return data, nil
}
