package lsp

import (
	"context"
	"sync"
	"time"
)

// Scheduler coalesces rapid edits into one deferred analysis per document.
// Each Schedule bumps a per-URI generation; when the timer fires, a task
// whose generation is no longer current was superseded and does nothing.
type Scheduler struct {
	delay time.Duration

	mu         sync.Mutex
	generation map[string]uint64
}

func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{
		delay:      delay,
		generation: make(map[string]uint64),
	}
}

// Schedule queues task to run after the debounce delay, replacing any
// still-pending task for the same URI.
func (s *Scheduler) Schedule(ctx context.Context, uri string, task func(context.Context)) {
	s.mu.Lock()
	s.generation[uri]++
	gen := s.generation[uri]
	s.mu.Unlock()

	time.AfterFunc(s.delay, func() {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		current := s.generation[uri]
		s.mu.Unlock()
		if current != gen {
			return
		}
		task(ctx)
	})
}

// Cancel drops any pending task for the URI without scheduling a new one.
func (s *Scheduler) Cancel(uri string) {
	s.mu.Lock()
	s.generation[uri]++
	s.mu.Unlock()
}
