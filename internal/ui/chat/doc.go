// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main Bubble Tea view of the counsel TUI.
//
// The Model owns one conversation.State and one stream.Presenter. All state
// changes happen in Update:
//   - Network work runs as tea.Cmd and comes back as conversation result
//     events (PatientsLoaded, ThreadFetched, ...) or ResolvedMsg.
//   - The streaming reveal is driven by StreamTickMsg values tagged with a
//     presenter task id; ticks for cancelled tasks are ignored.
//   - Switching threads cancels reveal tasks bound to the abandoned thread.
//     Late results for that thread are dropped by the state. Quitting also
//     aborts in-flight requests.
//
// Overlays (patient picker, patient form, delete confirmation, help) take
// the keyboard while open.
package chat
