// json_output.go - JSON output for scripting against the counsel CLI.
//
// Every command that takes --json writes exactly one JSONResponse to stdout.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the indented JSON response to w.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// StatusData represents the data returned by the status command.
type StatusData struct {
	BaseURL    string `json:"base_url"`
	ConfigPath string `json:"config_path"`
	Reachable  bool   `json:"reachable"`
	LatencyMs  int64  `json:"latency_ms"`
	Patients   int    `json:"patients"`
	Threads    int    `json:"threads"`
	Error      string `json:"error,omitempty"`
}

// PatientData is one patient in the patients command output.
type PatientData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
}

// ThreadData is one thread in the threads command output.
type ThreadData struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExchangeData is one stored exchange in the threads show output.
type ExchangeData struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

// ConfigPathData represents the data returned by the config path command.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ExportData is the JSON output of threads export.
type ExportData struct {
	ThreadID string `json:"thread_id"`
	Path     string `json:"path"`
	Format   string `json:"format"`
	Messages int    `json:"messages"`
}
