// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// DefaultThreadTitle is the title given to threads created from the client.
const DefaultThreadTitle = "default title"

// Thread is a conversation container.
type Thread struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FirstThread returns the first thread if there is one.
func FirstThread(threads []Thread) (Thread, bool) {
	if len(threads) == 0 {
		return Thread{}, false
	}
	return threads[0], true
}

// FindThread returns the thread with id, if present.
func FindThread(threads []Thread, id string) (Thread, bool) {
	for _, t := range threads {
		if t.ID == id {
			return t, true
		}
	}
	return Thread{}, false
}
