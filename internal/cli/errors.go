// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for the counsel commands.
//
// Handlers return errors and never print them; main displays the error
// once and exits with GetExitCode.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/config"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "threads", "config")
	Action  string // Action being performed (e.g., "show", "init")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "thread", "patient")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON error response in JSON mode and
// as a styled line otherwise.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil || Reported(err) {
		return
	}

	if jsonMode {
		displayErrorJSON(w, command, err)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render(hint))
	}
	fmt.Fprintln(w)
}

func displayErrorJSON(w io.Writer, command string, err error) {
	output := map[string]interface{}{
		"command":    command,
		"error":      err.Error(),
		"error_type": errorType(err),
		"success":    false,
	}

	var ve *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &ve):
		output["field"] = ve.Field
		output["value"] = ve.Value
		if ve.Example != "" {
			output["example"] = ve.Example
		}
	case errors.As(err, &nf):
		output["resource"] = nf.Resource
		output["id"] = nf.ID
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

func errorType(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	var ce *CommandError
	var cfgErrs config.ValidateErrors
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &nf):
		return "not_found_error"
	case errors.As(err, &cfgErrs):
		return "config_error"
	case api.IsTimeout(err):
		return "timeout_error"
	case api.IsConnection(err):
		return "network_error"
	case errors.As(err, &ce):
		return "command_error"
	default:
		return "generic_error"
	}
}

func errorHint(err error) string {
	var cfgErrs config.ValidateErrors
	switch {
	case api.IsConnection(err):
		return "Is the backend running? Check server.host and server.port with 'counsel config show'."
	case api.IsTimeout(err):
		return "The backend did not answer in time. Raise server.request_timeout_secs if this persists."
	case errors.As(err, &cfgErrs):
		return "Fix the configuration file shown by 'counsel config path'."
	}
	return ""
}

// =============================================================================
// EXIT CODES
// =============================================================================

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *ValidationError
	var nf *NotFoundError
	var cfgErrs config.ValidateErrors
	switch {
	case errors.As(err, &ve):
		return ExitUsageError
	case errors.As(err, &nf), api.IsStatus(err, http.StatusNotFound):
		return ExitNotFoundError
	case errors.As(err, &cfgErrs), errors.Is(err, config.ErrConfigExists):
		return ExitConfigError
	case api.IsTimeout(err):
		return ExitTimeoutError
	case api.IsConnection(err):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// reportedError marks an error whose details the handler already wrote.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

// Reported reports whether err was already written by the handler that
// returned it. DisplayError skips such errors.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
