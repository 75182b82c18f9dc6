// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/counsel-tui/internal/config"
	"github.com/jeranaias/counsel-tui/internal/conversation"
)

// The conversation result events (PatientsLoaded, ThreadsLoaded,
// ThreadFetched, ThreadCreated, PatientSaved, PatientDeleted) are delivered
// as Bubble Tea messages unchanged. The types below cover the rest.

// =============================================================================
// SEND MESSAGES
// =============================================================================

// ResolvedMsg carries the result of a send's network call. TaskID is the
// presenter task that awaited it.
type ResolvedMsg struct {
	conversation.Resolved
	TaskID uint64
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg advances the reveal task with TaskID.
type StreamTickMsg struct {
	TaskID uint64
	Time   time.Time
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// StatusMsg shows a transient message in the status bar.
type StatusMsg struct {
	Text string
}

// statusClearMsg clears the transient status message if it is still Seq.
type statusClearMsg struct {
	Seq int
}

// ConfigReloadedMsg delivers a configuration that changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}
