package util

import (
	"context"
	"sync"
)

// Semaphore is a context-aware concurrency limiter. The sampler uses it
// to cap in-flight metric queries and the reconciler uses it to cap
// concurrent docker invocations.
type Semaphore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	limit    int
	acquired int
}

// NewSemaphore creates a semaphore with the given limit. Limits below
// one are raised to one so Acquire can always make progress.
func NewSemaphore(limit int) *Semaphore {
	if limit < 1 {
		limit = 1
	}
	s := &Semaphore{limit: limit}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Acquire blocks until a slot is free or the context is cancelled, and
// returns the context error in the latter case.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cond.Wait cannot select on ctx.Done(), so a helper goroutine
	// broadcasts on cancellation to wake blocked waiters.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-done:
		}
	}()

	for s.acquired >= s.limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	// A cancel broadcast may race a freed slot; cancellation wins.
	if err := ctx.Err(); err != nil {
		return err
	}

	s.acquired++
	return nil
}

// Release frees a slot and wakes one waiter.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acquired > 0 {
		s.acquired--
	}
	s.cond.Signal()
}

// Limit returns the slot count.
func (s *Semaphore) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// Acquired returns the number of slots currently held.
func (s *Semaphore) Acquired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}
