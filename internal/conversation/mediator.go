// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/model"
)

// Fixed texts shown in the message log.
const (
	NoPatientNotice  = "Patient is not selected, kindly select the patient.."
	NoThreadNotice   = "No thread is open, create a thread first."
	ThinkingText     = "Thinking..."
	SendFailedNotice = "⚠️ Failed to get a response. Please try again."
)

// Send errors.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoPatient    = errors.New("no patient selected")
	ErrNoThread     = errors.New("no active thread")
)

// Request describes the network call a send needs.
type Request struct {
	Mode          model.MessageType
	Content       string
	PatientID     string
	ThreadID      string
	PlaceholderID string
}

// Outcome reports what Send did. Request is nil when no network call is
// needed; Err then says why.
type Outcome struct {
	Request *Request
	Err     error
}

// Send appends the user's message and decides how it is delivered.
//
// A counseling message without a selected patient gets a synthesized
// assistant reply and never reaches the network. Otherwise a thinking
// placeholder is appended and the returned Request must be passed to Resolve.
func (s State) Send(content string) (State, Outcome) {
	content = strings.TrimSpace(content)
	if content == "" {
		return s, Outcome{Err: ErrEmptyMessage}
	}

	patient, hasPatient := s.SelectedPatient()
	s = s.appendMessages(model.NewUserMessage(content, s.Mode, patient.ID))

	if s.Mode == model.TypeCounseling && !hasPatient {
		s = s.appendMessages(model.NewAssistantMessage(NoPatientNotice, model.TypeCounseling, ""))
		return s, Outcome{Err: ErrNoPatient}
	}
	if !s.HasThread() {
		s = s.appendMessages(model.NewAssistantMessage(NoThreadNotice, s.Mode, patient.ID))
		return s, Outcome{Err: ErrNoThread}
	}

	placeholder := model.ChatMessage{
		ID:        model.ThinkingID(),
		Content:   ThinkingText,
		Sender:    model.SenderAssistant,
		Type:      s.Mode,
		PatientID: patient.ID,
	}
	s = s.appendMessages(placeholder)

	return s, Outcome{Request: &Request{
		Mode:          s.Mode,
		Content:       content,
		PatientID:     patient.ID,
		ThreadID:      s.ActiveThreadID,
		PlaceholderID: placeholder.ID,
	}}
}

// Resolved is the result of Resolve.
type Resolved struct {
	Request Request
	Text    string
	Err     error
}

// Resolve performs the network part of a send. Counseling messages go to the
// chat endpoint. Search messages query the database, render the results as
// markdown and store the query with the rendered markdown in the thread; a
// failed store is logged and the answer is still returned.
func Resolve(ctx context.Context, gw api.Gateway, req Request) Resolved {
	switch req.Mode {
	case model.TypeSearch:
		resp, err := gw.SearchDatabase(ctx, req.Content)
		if err != nil {
			log.Printf("SEARCH_FAILED | thread=%s err=%v", req.ThreadID, err)
			return Resolved{Request: req, Err: err}
		}
		text := model.RenderSearchMarkdown(resp.Data)
		if err := gw.StoreSearch(ctx, req.ThreadID, req.Content, text); err != nil {
			log.Printf("SEARCH_STORE_FAILED | thread=%s err=%v", req.ThreadID, err)
		}
		log.Printf("SEARCH_RESOLVED | thread=%s results=%d", req.ThreadID, len(resp.Data))
		return Resolved{Request: req, Text: text}

	default:
		resp, err := gw.SendChat(ctx, req.Content, req.PatientID, req.ThreadID)
		if err != nil {
			log.Printf("CHAT_FAILED | thread=%s patient=%s err=%v", req.ThreadID, req.PatientID, err)
			return Resolved{Request: req, Err: err}
		}
		log.Printf("CHAT_RESOLVED | thread=%s chars=%d", req.ThreadID, len(resp.Response))
		return Resolved{Request: req, Text: resp.Response}
	}
}

// ApplyResolved folds a resolved send into the log.
//
// On failure the placeholder is replaced in place by SendFailedNotice and
// ok is false. On success the placeholder is removed and an empty assistant
// message is appended; its id is returned for the presenter to fill. Results
// for a thread that is no longer active, or whose placeholder is no longer in
// the log because the thread was reloaded meanwhile, change nothing.
func (s State) ApplyResolved(r Resolved) (next State, messageID string, ok bool) {
	if r.Request.ThreadID != s.ActiveThreadID {
		log.Printf("SEND_STALE | thread=%s active=%s", r.Request.ThreadID, s.ActiveThreadID)
		return s, "", false
	}
	if _, found := s.Message(r.Request.PlaceholderID); !found {
		log.Printf("SEND_STALE | thread=%s placeholder=%s reason=reloaded", r.Request.ThreadID, r.Request.PlaceholderID)
		return s, "", false
	}
	if r.Err != nil {
		return s.SetMessageContent(r.Request.PlaceholderID, SendFailedNotice), "", false
	}
	s = s.removeMessage(r.Request.PlaceholderID)
	msg := model.NewAssistantMessage("", model.TypeCounseling, r.Request.PatientID)
	return s.appendMessages(msg), msg.ID, true
}
