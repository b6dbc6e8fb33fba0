// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements the maintenance scheduler described in
// §4.5: a single background worker pool that accepts fire-and-forget
// futures, caps in-flight count by joining the oldest task once the
// ceiling is hit, and is the only component that may run
// runtime-blocking operations off the critical path (ledger fsync,
// heat-map summary publication, periodic checkpoint emission).
//
// It is built on golang.org/x/sync/semaphore, bounding concurrency the
// same way the teacher's dependency graph already pulls in that module
// transitively without ever giving it a direct, idiomatic home.
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

const defaultMaxInFlight = 100

// Scheduler is a lazily-started worker pool. The zero value is not
// usable; construct with New.
type Scheduler struct {
	sem *semaphore.Weighted

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a Scheduler with the given in-flight ceiling. A
// maxInFlight of 0 uses the §4.5 default of ~100.
func New(maxInFlight int) *Scheduler {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Scheduler{sem: semaphore.NewWeighted(int64(maxInFlight))}
}

// ensureStarted lazily captures the background context on first use,
// per §4.5 ("started lazily by the router and territory manager on
// first use to defer runtime capture"). parent governs the scheduler's
// own lifetime; tasks additionally observe it for shutdown.
func (s *Scheduler) ensureStarted(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	if parent == nil {
		parent = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.started = true
}

// Submit runs fn in a new goroutine once a slot is available, blocking
// the *submitter* (not the caller's own critical section, provided the
// caller does not hold a lock across Submit) until a slot frees up if
// the pool is saturated — this is the "join the oldest" backpressure
// from §4.5, implemented as acquire-before-spawn rather than an
// explicit LRU join list, which is equivalent under a weighted
// semaphore of capacity N: the Nth+1 submission cannot proceed until
// one of the N in-flight tasks completes.
func (s *Scheduler) Submit(ctx context.Context, fn func(context.Context)) {
	s.ensureStarted(ctx)

	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		// Scheduler is shutting down; drop the task.
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		fn(s.ctx)
	}()
}

// Run submits fn and returns a channel that receives its error result
// (nil on success), for call sites that need the outcome.
func (s *Scheduler) Run(ctx context.Context, fn func(context.Context) error) <-chan error {
	result := make(chan error, 1)
	s.Submit(ctx, func(taskCtx context.Context) {
		result <- fn(taskCtx)
	})
	return result
}

// Shutdown cancels all in-flight tasks' context and waits for them to
// return. It is safe to call even if the scheduler was never started.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	s.wg.Wait()
}
