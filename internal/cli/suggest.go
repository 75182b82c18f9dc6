// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Typo correction for command words.
package cli

import (
	"strings"
)

// validCommands holds the command words ParseArgs accepts, aliases included.
var validCommands = []string{
	"tui", "chat", "repl",
	"patients", "patient",
	"threads", "thread",
	"status", "config", "version", "help",
}

// SuggestCommand returns the command closest to input, or "" when nothing
// is close enough or input is already valid.
func SuggestCommand(input string) string {
	return suggest(strings.ToLower(input), validCommands)
}

// suggest picks the candidate with the smallest edit distance within a
// threshold that grows with the input length.
func suggest(input string, candidates []string) string {
	// Don't suggest for very short inputs (likely intentional)
	if len(input) < 2 {
		return ""
	}

	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	bestMatch := ""
	bestDistance := -1
	for _, c := range candidates {
		distance := levenshteinDistance(input, c)
		if distance == 0 {
			return ""
		}
		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			bestDistance = distance
			bestMatch = c
		}
	}
	return bestMatch
}

// levenshteinDistance is the number of single-byte insertions, deletions or
// substitutions turning s1 into s2.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	cols := len(s2) + 1
	prev := make([]int, cols)
	curr := make([]int, cols)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j < cols; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[cols-1]
}
