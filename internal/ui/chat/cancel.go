// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// REQUEST CONTEXT MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager owns the context that every backend request derives from.
// Commands run on their own goroutines, so access is mutex protected.
// IMPORTANT: This must be used as a pointer (*cancelManager) in Model structs to
// prevent copying the mutex when Bubble Tea's Update function returns model copies.
type cancelManager struct {
	mu         sync.Mutex
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// newCancelManager creates a new cancelManager pointer with a live context.
func newCancelManager() *cancelManager {
	cm := &cancelManager{}
	cm.reset()
	return cm
}

// requestContext returns a context for one request, bounded by timeout when
// it is positive.
func (cm *cancelManager) requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	cm.mu.Lock()
	parent := cm.ctx
	cm.mu.Unlock()
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// clear aborts every request. Used on quit; later requests fail at once.
// Safe to call multiple times.
func (cm *cancelManager) clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

func (cm *cancelManager) reset() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.ctx, cm.cancelFunc = context.WithCancel(context.Background())
}

// closed reports whether clear has been called.
func (cm *cancelManager) closed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cancelFunc == nil
}
