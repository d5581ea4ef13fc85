// Package taskq bounds concurrency of external model calls and retries
// rate-limited ones with exponential backoff.
//
// The Queue admits at most a fixed number of tasks at a time and is strictly
// FIFO among waiters. All counters are owned by the queue itself; callers
// only see Acquire/Release/Do.
package taskq

import (
	"context"
	"sync"
)

// Queue is a bounded-concurrency FIFO limiter. At most limit tasks hold a
// slot at any instant; waiters are admitted in arrival order as slots free
// up. A task's failure affects nobody but that task, and an admitted task is
// never cancelled by the queue.
type Queue struct {
	mu      sync.Mutex
	limit   int
	active  int
	waiters []chan struct{}
}

// New creates a queue admitting at most limit concurrent tasks. limit < 1 is
// clamped to 1.
func New(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	return &Queue{limit: limit}
}

// Acquire blocks until a slot is free or ctx is done. Callers that acquired
// a slot must Release it. Waiting is FIFO: a caller never overtakes an
// earlier waiter, even when capacity frees up while both are queued.
func (q *Queue) Acquire(ctx context.Context) error {
	q.mu.Lock()
	if q.active < q.limit && len(q.waiters) == 0 {
		q.active++
		q.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	q.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		select {
		case <-ready:
			// The slot was handed over while we were giving up; pass it
			// straight to the next waiter instead of leaking it.
			q.releaseLocked()
		default:
			q.removeWaiterLocked(ready)
		}
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot. If anyone is waiting, the slot transfers directly to
// the head of the line; the active count only drops when the line is empty.
// Hand-off is a single step per Release, so draining a burst is an iterative
// chain of Release calls rather than recursion.
func (q *Queue) Release() {
	q.mu.Lock()
	q.releaseLocked()
	q.mu.Unlock()
}

func (q *Queue) releaseLocked() {
	if len(q.waiters) > 0 {
		ready := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(ready)
		return
	}
	q.active--
}

func (q *Queue) removeWaiterLocked(ready chan struct{}) {
	for i, w := range q.waiters {
		if w == ready {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}

// Do runs fn while holding a queue slot. The slot is held for the full
// duration of fn, including any retry delays fn performs internally.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	if err := q.Acquire(ctx); err != nil {
		return err
	}
	defer q.Release()
	return fn()
}

// Active returns the number of tasks currently holding a slot.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Waiting returns the number of tasks queued for admission.
func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}
