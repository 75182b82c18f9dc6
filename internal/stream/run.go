// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"time"
)

// Run drives task on a ticker until it finishes or ctx is done, calling
// apply for every update that changes the message. It blocks, and the
// presenter must not be used from another goroutine meanwhile.
func (p *Presenter) Run(ctx context.Context, task Task, apply func(Update)) Phase {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Cancel(task.ID)
			return Idle
		case <-ticker.C:
			u := p.Tick(task.ID)
			if u.Changed && apply != nil {
				apply(u)
			}
			if !u.Next {
				return u.Phase
			}
		}
	}
}
