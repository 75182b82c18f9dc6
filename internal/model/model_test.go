// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// EXCHANGE EXPANSION TESTS
// =============================================================================

func TestExpandExchanges_Example(t *testing.T) {
	got := ExpandExchanges([]Exchange{
		{ID: "m1", Message: "hi", Response: "hello", PatientID: "p1"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, ChatMessage{ID: "m1", Content: "hi", Sender: SenderUser, Type: TypeCounseling, PatientID: "p1"}, got[0])
	assert.Equal(t, ChatMessage{ID: "m1-response", Content: "hello", Sender: SenderAssistant, Type: TypeCounseling, PatientID: "p1"}, got[1])
}

func TestExpandExchanges_PreservesOrder(t *testing.T) {
	got := ExpandExchanges([]Exchange{
		{ID: "a", Message: "q1", Response: "r1"},
		{ID: "b", Message: "q2", Response: "r2"},
	})

	var contents []string
	for _, m := range got {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"q1", "r1", "q2", "r2"}, contents)
}

func TestExpandExchanges_Empty(t *testing.T) {
	got := ExpandExchanges(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// =============================================================================
// SEARCH MARKDOWN TESTS
// =============================================================================

func TestRenderSearchMarkdown_Single(t *testing.T) {
	got := RenderSearchMarkdown([]SearchResult{
		{Context: "I can't sleep", Response: "Try a routine.\nLimit screens."},
	})

	want := "\n### 1. **User's Concern**\n> I can't sleep\n\n### 💡 **Suggested Response**\nTry a routine.\n\nLimit screens.\n"
	assert.Equal(t, want, got)
}

func TestRenderSearchMarkdown_NumbersAndSeparators(t *testing.T) {
	got := RenderSearchMarkdown([]SearchResult{
		{Context: "a", Response: "x"},
		{Context: "b", Response: "y"},
		{Context: "c", Response: "z"},
	})

	assert.Equal(t, 2, strings.Count(got, "\n---\n"))
	assert.Contains(t, got, "### 1. **User's Concern**\n> a")
	assert.Contains(t, got, "### 2. **User's Concern**\n> b")
	assert.Contains(t, got, "### 3. **User's Concern**\n> c")
	assert.Less(t, strings.Index(got, "> a"), strings.Index(got, "> b"))
}

func TestRenderSearchMarkdown_Deterministic(t *testing.T) {
	in := []SearchResult{{Context: "ctx", Response: "one\ntwo"}}
	assert.Equal(t, RenderSearchMarkdown(in), RenderSearchMarkdown(in))
}

func TestRenderSearchMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", RenderSearchMarkdown(nil))
}

// =============================================================================
// ID TESTS
// =============================================================================

func TestIDs_UniqueWithinSession(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		for _, id := range []string{ResponseID(), ThinkingID(), NewUserMessage("x", TypeSearch, "").ID} {
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}

func TestIDs_Prefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(ResponseID(), "response-"))
	assert.True(t, strings.HasPrefix(ThinkingID(), "thinking-"))
	assert.True(t, IsThinkingID(ThinkingID()))
	assert.False(t, IsThinkingID(ResponseID()))
}

// =============================================================================
// PATIENT TESTS
// =============================================================================

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"female", "Female"},
		{" MALE ", "Male"},
		{"m", "Male"},
		{"F", "Female"},
		{"", ""},
		{"other", "Other"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeGender(tc.in))
		})
	}
}

func TestPatientInput_Validate(t *testing.T) {
	assert.ErrorIs(t, PatientInput{Name: "  "}.Validate(), ErrPatientNameRequired)
	assert.ErrorIs(t, PatientInput{Name: "Ada", Age: -1}.Validate(), ErrPatientAgeInvalid)
	assert.ErrorIs(t, PatientInput{Name: "Ada", Age: 151}.Validate(), ErrPatientAgeInvalid)
	assert.NoError(t, PatientInput{Name: "Ada", Age: 36}.Validate())
}

func TestPatient_Input(t *testing.T) {
	p := Patient{ID: "p1", Name: "Ada", Age: 36, Gender: "Female", Diagnosis: "anxiety"}
	assert.Equal(t, PatientInput{Name: "Ada", Age: 36, Gender: "Female", Diagnosis: "anxiety"}, p.Input())
}

func TestFirstThread(t *testing.T) {
	_, ok := FirstThread(nil)
	assert.False(t, ok)

	th, ok := FirstThread([]Thread{{ID: "t1", Title: "Intro"}, {ID: "t2"}})
	assert.True(t, ok)
	assert.Equal(t, "t1", th.ID)
}

func TestMessageType_Toggle(t *testing.T) {
	assert.Equal(t, TypeSearch, TypeCounseling.Toggle())
	assert.Equal(t, TypeCounseling, TypeSearch.Toggle())

	typ, ok := ParseMessageType("search")
	assert.True(t, ok)
	assert.Equal(t, TypeSearch, typ)

	_, ok = ParseMessageType("gossip")
	assert.False(t, ok)
}
