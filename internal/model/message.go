// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for patients, threads and messages.
package model

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType selects how a message is routed to the backend.
type MessageType string

const (
	// TypeCounseling messages require a patient and go to the advice endpoint.
	TypeCounseling MessageType = "counseling"
	// TypeSearch messages query the transcript database.
	TypeSearch MessageType = "search"
)

// String returns the string representation of the type.
func (t MessageType) String() string {
	return string(t)
}

// Label returns the button label used for the type.
func (t MessageType) Label() string {
	switch t {
	case TypeSearch:
		return "Search Database"
	case TypeCounseling:
		return "Get Advice"
	default:
		return string(t)
	}
}

// Toggle returns the other message type.
func (t MessageType) Toggle() MessageType {
	if t == TypeSearch {
		return TypeCounseling
	}
	return TypeSearch
}

// ParseMessageType parses "search" or "counseling".
func ParseMessageType(s string) (MessageType, bool) {
	switch MessageType(s) {
	case TypeSearch:
		return TypeSearch, true
	case TypeCounseling:
		return TypeCounseling, true
	}
	return "", false
}

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage is one entry of the visible message log.
type ChatMessage struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Type      MessageType `json:"type"`
	PatientID string      `json:"patientId,omitempty"`
}

// IsUser reports whether the message was written by the user.
func (m ChatMessage) IsUser() bool {
	return m.Sender == SenderUser
}

// NewUserMessage creates a user message with a random unique ID.
func NewUserMessage(content string, typ MessageType, patientID string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderUser,
		Type:      typ,
		PatientID: patientID,
	}
}

// NewAssistantMessage creates an assistant message with a response ID.
func NewAssistantMessage(content string, typ MessageType, patientID string) ChatMessage {
	return ChatMessage{
		ID:        ResponseID(),
		Content:   content,
		Sender:    SenderAssistant,
		Type:      typ,
		PatientID: patientID,
	}
}

// =============================================================================
// STORED EXCHANGES
// =============================================================================

// Exchange is one stored request/response pair of a thread's history.
type Exchange struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	PatientID string `json:"patient_id"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// ExpandExchanges turns each exchange into a user entry followed by its
// assistant entry. The assistant entry ID is the exchange ID plus "-response".
func ExpandExchanges(exchanges []Exchange) []ChatMessage {
	out := make([]ChatMessage, 0, len(exchanges)*2)
	for _, ex := range exchanges {
		out = append(out,
			ChatMessage{
				ID:        ex.ID,
				Content:   ex.Message,
				Sender:    SenderUser,
				Type:      TypeCounseling,
				PatientID: ex.PatientID,
			},
			ChatMessage{
				ID:        ex.ID + "-response",
				Content:   ex.Response,
				Sender:    SenderAssistant,
				Type:      TypeCounseling,
				PatientID: ex.PatientID,
			},
		)
	}
	return out
}

// =============================================================================
// ID GENERATION
// =============================================================================

// idSeq disambiguates timestamp IDs created within the same millisecond.
var idSeq atomic.Uint64

// ResponseID returns a timestamp-derived ID for assistant responses.
func ResponseID() string {
	return timestampID("response")
}

// ThinkingID returns a timestamp-derived ID for thinking placeholders.
func ThinkingID() string {
	return timestampID("thinking")
}

// IsThinkingID reports whether id belongs to a thinking placeholder.
func IsThinkingID(id string) bool {
	return strings.HasPrefix(id, "thinking-")
}

func timestampID(prefix string) string {
	n := idSeq.Add(1)
	return prefix + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(n, 10)
}
