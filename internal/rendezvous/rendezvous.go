// Package rendezvous provides the begin/end signaling that brackets each
// experiment trial.
//
// The orchestrator releases a worker by signaling its Begin semaphore and
// learns that the worker's transaction finished by waiting on its End
// semaphore. These two edges are the only synchronization around a trial's
// shared-memory accesses: Signal happens-before the matching Wait return, so
// the orchestrator never observes the shared cells concurrently with a
// worker's transaction.
package rendezvous

import (
	"context"
	"sync"
)

// Semaphore is a counting signal with an initial count of zero.
//
// Signal increments the count and wakes a waiter; Wait blocks until the count
// is positive, then decrements it. Signals are never lost: a Signal issued
// before Wait is consumed by the next Wait.
//
// Thread-safety: Signal is safe from any goroutine. The experiment runs one
// dedicated waiter per semaphore; multiple concurrent waiters are supported
// but contend for counts in no particular order.
type Semaphore struct {
	mu    sync.Mutex
	count int
	wake  chan struct{}
}

// NewSemaphore creates a semaphore with count zero.
func NewSemaphore() *Semaphore {
	return &Semaphore{wake: make(chan struct{}, 1)}
}

// Signal increments the count and wakes one waiter if any is blocked.
// Never blocks.
func (s *Semaphore) Signal() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.notify()
}

// Wait blocks until the count is positive, then decrements it and returns
// nil. Returns ctx.Err() if the context is cancelled first; the count is
// left untouched in that case.
func (s *Semaphore) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.count > 0 {
			s.count--
			leftover := s.count > 0
			s.mu.Unlock()
			if leftover {
				// Pass the wakeup on so a second waiter is not stranded
				// when two signals arrived under a single wake token.
				s.notify()
			}
			return nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

func (s *Semaphore) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Reset drops any pending counts and wakeups. Only legal while the semaphore
// is quiescent (no concurrent Signal or Wait); the experiment calls it
// between runs, when both workers have parked, to discard signals stranded by
// a cancellation.
func (s *Semaphore) Reset() {
	s.mu.Lock()
	s.count = 0
	s.mu.Unlock()
	select {
	case <-s.wake:
	default:
	}
}

// Pair couples the two semaphores that frame one worker's trials.
//
// Begin is signaled by the orchestrator and waited on by the worker; End is
// signaled by the worker and waited on by the orchestrator. Created once at
// startup and lives for the process lifetime.
type Pair struct {
	Begin *Semaphore
	End   *Semaphore
}

// NewPair creates a begin/end pair with both counts at zero.
func NewPair() *Pair {
	return &Pair{Begin: NewSemaphore(), End: NewSemaphore()}
}

// Reset drops pending counts on both sides. Same quiescence requirement as
// Semaphore.Reset.
func (p *Pair) Reset() {
	p.Begin.Reset()
	p.End.Reset()
}
