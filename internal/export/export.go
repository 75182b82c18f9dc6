// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/counsel-tui/internal/model"
	"github.com/jeranaias/counsel-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is everything an export contains.
type Transcript struct {
	ThreadID   string              `json:"thread_id"`
	Title      string              `json:"title"`
	Patients   []model.Patient     `json:"patients"`
	Messages   []model.ChatMessage `json:"messages"`
	ExportedAt time.Time           `json:"exported_at"`
}

// NewTranscript builds a transcript from a thread's stored exchanges.
func NewTranscript(thread model.Thread, exchanges []model.Exchange, known []model.Patient) *Transcript {
	return FromMessages(thread, model.ExpandExchanges(exchanges), known)
}

// FromMessages builds a transcript from a visible message log. Thinking
// placeholders are left out. Patients lists, in order of first mention, the
// known patients the messages refer to.
func FromMessages(thread model.Thread, messages []model.ChatMessage, known []model.Patient) *Transcript {
	t := &Transcript{
		ThreadID:   thread.ID,
		Title:      thread.Title,
		Patients:   []model.Patient{},
		Messages:   make([]model.ChatMessage, 0, len(messages)),
		ExportedAt: time.Now(),
	}
	seen := map[string]bool{}
	for _, msg := range messages {
		if model.IsThinkingID(msg.ID) {
			continue
		}
		t.Messages = append(t.Messages, msg)
		if msg.PatientID == "" || seen[msg.PatientID] {
			continue
		}
		seen[msg.PatientID] = true
		if p, ok := model.FindPatient(known, msg.PatientID); ok {
			t.Patients = append(t.Patients, p)
		}
	}
	return t
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, dot included.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata adds the front matter and session section to
	// markdown exports.
	IncludeMetadata bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
	}
}

// ForFormat returns the exporter for a format name: "md", "markdown" or
// "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use md or json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a transcript using exporter and returns the path of
// the written file.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("thread_%s_%s%s",
		sanitizeFilename(t.Title),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "thread"
	}
	return string(result)
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
