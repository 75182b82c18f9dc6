// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the client-side session state and the rules for
// sending messages.
//
// State is an immutable value. Network work is done by plain functions
// (LoadPatients, LoadThreads, FetchThread, CreateThread, SavePatient,
// DeletePatient, Resolve) that return result events; the owner of the State
// folds each event back in with the matching Apply method. In the terminal
// UI the functions run as tea.Cmd and the events arrive as messages.
//
// A send is two steps:
//
//	st, out := st.Send(input)
//	if out.Request != nil {
//	    res := conversation.Resolve(ctx, gw, *out.Request)
//	    st, msgID, ok := st.ApplyResolved(res)
//	    // start revealing res.Text into msgID when ok
//	}
package conversation
