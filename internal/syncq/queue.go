package syncq

import (
	"slices"
	"sync"
	"time"
)

// Queue is the thread-safe backlog of sync actions awaiting server
// acknowledgment.
//
// Actions are held in the stable total order (client timestamp, then
// action id). Draining picks by priority class first, order second.
// The queue is unbounded: offline play may accumulate arbitrarily
// many actions without blocking gameplay.
//
// A buffered signal channel (size 1) coalesces wakeups for the drain
// loop, the same pattern as a context-aware event queue: waiters
// select on Wait() and the context together.
type Queue struct {
	mu      sync.Mutex
	actions []Action // ordered by Action.Before
	applied map[string]bool
	closed  bool
	signal  chan struct{}

	// notBefore delays retries per action id (exponential backoff).
	notBefore map[string]time.Time
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		actions:   make([]Action, 0, 16),
		applied:   make(map[string]bool),
		notBefore: make(map[string]time.Time),
		signal:    make(chan struct{}, 1),
	}
}

// Enqueue inserts an action in order with status pending.
// Re-enqueueing an id that was already applied or is already queued is
// a no-op: actions are idempotent by id.
// Returns false if the queue is closed or the action was deduplicated.
func (q *Queue) Enqueue(a Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.applied[a.ID] {
		return false
	}
	for _, existing := range q.actions {
		if existing.ID == a.ID {
			return false
		}
	}

	a.Status = StatusPending
	idx, _ := slices.BinarySearchFunc(q.actions, a, func(x, target Action) int {
		if x.Before(target) {
			return -1
		}
		if target.Before(x) {
			return 1
		}
		return 0
	})
	q.actions = slices.Insert(q.actions, idx, a)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Withdraw removes a queued action, legal only while it is still
// pending. Once syncing has begun the action must run to completion;
// compensation happens with a follow-up action, not cancellation.
func (q *Queue) Withdraw(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.actions {
		if a.ID == id {
			if a.Status != StatusPending {
				return false
			}
			q.actions = slices.Delete(q.actions, i, i+1)
			delete(q.notBefore, id)
			return true
		}
	}
	return false
}

// NextSyncable atomically claims the best action to send: highest
// priority class first, queue order within a class, skipping actions
// still inside their backoff window. The claimed action is marked
// syncing. Returns false if nothing is ready.
func (q *Queue) NextSyncable(now time.Time) (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	best := -1
	for i, a := range q.actions {
		if a.Status != StatusPending {
			continue
		}
		if nb, ok := q.notBefore[a.ID]; ok && now.Before(nb) {
			continue
		}
		if best == -1 || a.Priority > q.actions[best].Priority {
			best = i
		}
	}
	if best == -1 {
		return Action{}, false
	}
	q.actions[best].Status = StatusSyncing
	return q.actions[best], true
}

// MarkApplied removes an acknowledged action from the backlog and
// records its id so a duplicate enqueue stays a no-op.
func (q *Queue) MarkApplied(id string) (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.actions {
		if a.ID == id {
			a.Status = StatusApplied
			q.actions = slices.Delete(q.actions, i, i+1)
			q.applied[id] = true
			delete(q.notBefore, id)
			return a, true
		}
	}
	return Action{}, false
}

// MarkFailed records a failed send attempt. retryAt is when the next
// attempt may run; permanent marks the action out of rotation so the
// caller can surface it.
func (q *Queue) MarkFailed(id string, retryAt time.Time, permanent bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.actions {
		if q.actions[i].ID == id {
			q.actions[i].Attempts++
			if permanent {
				q.actions[i].Status = StatusFailed
				delete(q.notBefore, id)
			} else {
				q.actions[i].Status = StatusPending
				q.notBefore[id] = retryAt
			}
			return
		}
	}
}

// Retry puts a permanently failed action back in rotation with a
// fresh attempt budget. Used by explicit "sync now" requests.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.actions {
		if q.actions[i].ID == id {
			if q.actions[i].Status != StatusFailed {
				return false
			}
			q.actions[i].Status = StatusPending
			q.actions[i].Attempts = 0
			delete(q.notBefore, id)
			return true
		}
	}
	return false
}

// Attempts reports the attempt count for an action still in the queue.
func (q *Queue) Attempts(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.actions {
		if a.ID == id {
			return a.Attempts
		}
	}
	return 0
}

// Snapshot returns a copy of the backlog in queue order.
func (q *Queue) Snapshot() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.actions)
}

// Stats summarizes the backlog for sync-status queries.
func (q *Queue) Stats() (pending, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.actions {
		switch a.Status {
		case StatusFailed:
			failed++
		default:
			pending++
		}
	}
	return pending, failed
}

// Len returns the backlog size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Wait returns the wakeup channel for context-aware waiting.
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Close stops accepting new actions and wakes all waiters.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether the queue has been closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
