// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/counsel-tui/internal/conversation"
	"github.com/jeranaias/counsel-tui/internal/model"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Each command derives its context from the model's cancelManager so that
// quitting aborts requests still in flight.

func (m Model) loadPatientsCmd() tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.LoadPatients(ctx, gw)
	}
}

func (m Model) loadThreadsCmd() tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.LoadThreads(ctx, gw)
	}
}

func (m Model) fetchThreadCmd(threadID string) tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.FetchThread(ctx, gw, threadID)
	}
}

func (m Model) createThreadCmd() tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.CreateThread(ctx, gw)
	}
}

func (m Model) savePatientCmd(id string, in model.PatientInput) tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.SavePatient(ctx, gw, id, in)
	}
}

func (m Model) deletePatientCmd(id string) tea.Cmd {
	gw, cm, timeout := m.gateway, m.cancelMgr, m.requestTimeout
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(timeout)
		defer cancel()
		return conversation.DeletePatient(ctx, gw, id)
	}
}

// resolveCmd performs the network part of a send. A search makes two calls,
// so the timeout applies to each through the client rather than here.
func (m Model) resolveCmd(req conversation.Request, taskID uint64) tea.Cmd {
	gw, cm := m.gateway, m.cancelMgr
	return func() tea.Msg {
		ctx, cancel := cm.requestContext(0)
		defer cancel()
		return ResolvedMsg{Resolved: conversation.Resolve(ctx, gw, req), TaskID: taskID}
	}
}

// streamTickCmd schedules the next reveal step of a task.
func streamTickCmd(interval time.Duration, taskID uint64) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StreamTickMsg{TaskID: taskID, Time: t}
	})
}

// clearStatusCmd clears a transient status message after a delay.
func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{Seq: seq}
	})
}
