// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream reveals an already resolved assistant response a chunk at a
// time so the conversation looks like it is being typed.
package stream

import (
	"log"
	"time"
)

// NoResponseNotice replaces the message when nothing was revealed in time.
const NoResponseNotice = "No response received. Please try again."

// =============================================================================
// PHASE
// =============================================================================

// Phase is the lifecycle position of one send.
type Phase int

const (
	Idle Phase = iota
	AwaitingResponse
	Streaming
	Done
	Failed
)

// String returns a short name for the phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further updates follow.
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config controls the reveal cadence.
type Config struct {
	// ChunkSize is the number of runes revealed per tick (default: 20)
	ChunkSize int

	// Interval between ticks (default: 20ms)
	Interval time.Duration

	// NoResponseTimeout is how long to wait for the first chunk (default: 5s)
	NoResponseTimeout time.Duration
}

// DefaultConfig returns the default reveal cadence.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         20,
		Interval:          20 * time.Millisecond,
		NoResponseTimeout: 5 * time.Second,
	}
}

// =============================================================================
// TASK
// =============================================================================

// Task is one reveal bound to the message and thread it writes to.
type Task struct {
	ID        uint64
	MessageID string
	ThreadID  string
	Phase     Phase

	text     []rune
	revealed int
	started  time.Time
}

// Update is the effect of one tick on the target message.
type Update struct {
	TaskID    uint64
	MessageID string
	ThreadID  string

	// Content is the new message content. Only meaningful when Changed.
	Content string
	Changed bool

	Phase Phase

	// Next is true when another tick should be scheduled.
	Next bool
}

// =============================================================================
// PRESENTER
// =============================================================================

// Presenter owns the running reveal tasks. It is not safe for concurrent
// use; the owner drives it from a single goroutine.
type Presenter struct {
	cfg    Config
	nextID uint64
	tasks  map[uint64]*Task
	now    func() time.Time
}

// NewPresenter creates a presenter. Zero config fields take defaults.
func NewPresenter(cfg Config) *Presenter {
	p := &Presenter{
		tasks: make(map[uint64]*Task),
		now:   time.Now,
	}
	p.SetConfig(cfg)
	return p
}

// Config returns the effective configuration.
func (p *Presenter) Config() Config {
	return p.cfg
}

// SetConfig replaces the cadence. Running tasks pick it up on their next tick.
func (p *Presenter) SetConfig(cfg Config) {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.NoResponseTimeout <= 0 {
		cfg.NoResponseTimeout = def.NoResponseTimeout
	}
	p.cfg = cfg
}

// Await registers a send whose request is in flight. messageID is the
// placeholder shown meanwhile. The task stays in AwaitingResponse until Begin
// or Fail; cancelling it marks the eventual answer as unwanted.
func (p *Presenter) Await(messageID, threadID string) Task {
	p.nextID++
	t := &Task{
		ID:        p.nextID,
		MessageID: messageID,
		ThreadID:  threadID,
		Phase:     AwaitingResponse,
	}
	p.tasks[t.ID] = t
	return *t
}

// Begin starts revealing text into messageID for an awaiting task. It
// reports false when the task is unknown, cancelled or already revealing.
// The caller schedules the first tick after Config().Interval.
func (p *Presenter) Begin(id uint64, messageID, text string) (Task, bool) {
	t, ok := p.tasks[id]
	if !ok || t.Phase != AwaitingResponse {
		return Task{}, false
	}
	t.MessageID = messageID
	t.Phase = Streaming
	t.text = []rune(text)
	t.started = p.now()
	log.Printf("STREAM_START | task=%d message=%s runes=%d", t.ID, messageID, len(t.text))
	return *t, true
}

// Fail ends an awaiting task whose request failed. It reports whether the
// task was still awaiting.
func (p *Presenter) Fail(id uint64) bool {
	t, ok := p.tasks[id]
	if !ok || t.Phase != AwaitingResponse {
		return false
	}
	p.finish(t, Failed)
	return true
}

// Phase returns the phase of a running task, or Idle when there is none.
func (p *Presenter) Phase(id uint64) Phase {
	if t, ok := p.tasks[id]; ok {
		return t.Phase
	}
	return Idle
}

// Tick advances the task with id. Ticks for finished, cancelled or still
// awaiting tasks return an Update with Next false and nothing changed.
func (p *Presenter) Tick(id uint64) Update {
	t, ok := p.tasks[id]
	if !ok {
		return Update{TaskID: id, Phase: Idle}
	}
	u := Update{TaskID: id, MessageID: t.MessageID, ThreadID: t.ThreadID}
	if t.Phase == AwaitingResponse {
		u.Phase = AwaitingResponse
		return u
	}

	if t.revealed < len(t.text) {
		t.revealed += p.cfg.ChunkSize
		if t.revealed > len(t.text) {
			t.revealed = len(t.text)
		}
		u.Content = string(t.text[:t.revealed])
		u.Changed = true
		if t.revealed == len(t.text) {
			p.finish(t, Done)
			u.Phase = Done
			return u
		}
		u.Phase = Streaming
		u.Next = true
		return u
	}

	// Nothing to reveal yet: wait for the no-response window to pass.
	if p.now().Sub(t.started) >= p.cfg.NoResponseTimeout {
		p.finish(t, Failed)
		u.Content = NoResponseNotice
		u.Changed = true
		u.Phase = Failed
		return u
	}
	u.Phase = Streaming
	u.Next = true
	return u
}

// Cancel stops the task with id. It reports whether the task was running.
func (p *Presenter) Cancel(id uint64) bool {
	t, ok := p.tasks[id]
	if !ok {
		return false
	}
	delete(p.tasks, id)
	log.Printf("STREAM_CANCEL | task=%d message=%s", id, t.MessageID)
	return true
}

// CancelForThread stops every task bound to a thread other than active.
// It returns the number of cancelled tasks.
func (p *Presenter) CancelForThread(active string) int {
	n := 0
	for id, t := range p.tasks {
		if t.ThreadID != active {
			if p.Cancel(id) {
				n++
			}
		}
	}
	return n
}

// CancelAll stops every task.
func (p *Presenter) CancelAll() int {
	n := 0
	for id := range p.tasks {
		if p.Cancel(id) {
			n++
		}
	}
	return n
}

// Active reports whether any task is awaiting or revealing.
func (p *Presenter) Active() bool {
	return len(p.tasks) > 0
}

// Awaiting returns the number of tasks whose request is in flight.
func (p *Presenter) Awaiting() int {
	return p.count(AwaitingResponse)
}

// Streaming reports whether any task is revealing.
func (p *Presenter) Streaming() bool {
	return p.count(Streaming) > 0
}

func (p *Presenter) count(phase Phase) int {
	n := 0
	for _, t := range p.tasks {
		if t.Phase == phase {
			n++
		}
	}
	return n
}

// Running reports whether the task with id is still running.
func (p *Presenter) Running(id uint64) bool {
	_, ok := p.tasks[id]
	return ok
}

func (p *Presenter) finish(t *Task, phase Phase) {
	t.Phase = phase
	delete(p.tasks, t.ID)
	log.Printf("STREAM_END | task=%d message=%s phase=%s runes=%d", t.ID, t.MessageID, phase, t.revealed)
}
