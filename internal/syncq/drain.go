package syncq

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Transport ships one action to the server. A nil return is an
// acknowledgment; any error is a network-class failure and the action
// stays local. Implementations live at the edges (HTTP, SMS gateway);
// the queue treats them opaquely.
type Transport interface {
	Send(ctx context.Context, a Action) error
}

// ErrPermanentFailure wraps an action that exhausted its retry budget.
var ErrPermanentFailure = errors.New("sync action permanently failed")

// Backoff policy: 1s base, doubling per attempt, 60s ceiling.
const (
	backoffBase    = 1 * time.Second
	backoffCeiling = 60 * time.Second

	// DefaultMaxAttempts bounds retries before an action is surfaced
	// as a permanent failure instead of retried forever.
	DefaultMaxAttempts = 8
)

// backoffAfter returns the delay before retry number attempt (1-based).
func backoffAfter(attempt int) time.Duration {
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffCeiling {
			return backoffCeiling
		}
	}
	return d
}

// DrainerOption configures a Drainer.
type DrainerOption func(*Drainer)

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) DrainerOption {
	return func(d *Drainer) { d.maxAttempts = n }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) DrainerOption {
	return func(d *Drainer) { d.now = now }
}

// OnApplied registers a callback fired after the server acknowledges
// an action (used to archive it durably).
func OnApplied(fn func(Action)) DrainerOption {
	return func(d *Drainer) { d.onApplied = fn }
}

// OnPermanentFailure registers a callback fired when an action
// exhausts its retry budget.
func OnPermanentFailure(fn func(Action, error)) DrainerOption {
	return func(d *Drainer) { d.onPermanent = fn }
}

// Drainer sends pending actions in priority order with exponential
// backoff. It is the only component that touches the network; local
// gameplay never blocks on it.
type Drainer struct {
	queue       *Queue
	transport   Transport
	maxAttempts int
	now         func() time.Time
	onApplied   func(Action)
	onPermanent func(Action, error)
}

// NewDrainer wires a drainer to a queue and transport.
func NewDrainer(q *Queue, t Transport, opts ...DrainerOption) *Drainer {
	d := &Drainer{
		queue:       q,
		transport:   t,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drains the queue until the context is cancelled or the queue is
// closed and empty. Suspension happens only here, in the sync
// subsystem; user-facing operations never wait on it.
//
// Must be called from exactly one goroutine: claimed actions run to
// completion (success or failure) before the next is picked, which
// keeps send order deterministic.
func (d *Drainer) Run(ctx context.Context) error {
	slog.Info("sync drain loop starting")

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		a, ok := d.queue.NextSyncable(d.now())
		if ok {
			d.sendOne(ctx, a)
			continue
		}

		if d.queue.Closed() && d.queue.Len() == 0 {
			slog.Info("sync drain loop stopping: queue closed")
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("sync drain loop stopping: context cancelled")
			return ctx.Err()
		case <-d.queue.Wait():
			// New action enqueued, or queue closed.
		case <-ticker.C:
			// Re-check backoff windows.
		}
	}
}

// DrainOnce attempts to send everything currently syncable, without
// waiting on backoff windows. Returns the number of actions applied.
// Used for explicit "sync now" requests.
func (d *Drainer) DrainOnce(ctx context.Context) int {
	applied := 0
	for {
		a, ok := d.queue.NextSyncable(d.now())
		if !ok {
			return applied
		}
		if d.sendOne(ctx, a) {
			applied++
		}
	}
}

// sendOne runs one claimed action to completion. Reports whether the
// server acknowledged it.
func (d *Drainer) sendOne(ctx context.Context, a Action) bool {
	err := d.transport.Send(ctx, a)
	if err == nil {
		d.queue.MarkApplied(a.ID)
		slog.Info("sync action applied",
			"action_id", a.ID,
			"sim_id", a.SimID,
			"kind", a.Kind,
			"seq", a.Seq,
		)
		if d.onApplied != nil {
			d.onApplied(a)
		}
		return true
	}

	attempt := a.Attempts + 1
	if attempt >= d.maxAttempts {
		d.queue.MarkFailed(a.ID, time.Time{}, true)
		slog.Error("sync action permanently failed",
			"action_id", a.ID,
			"sim_id", a.SimID,
			"kind", a.Kind,
			"attempts", attempt,
			"error", err,
		)
		if d.onPermanent != nil {
			d.onPermanent(a, errors.Join(ErrPermanentFailure, err))
		}
		return false
	}

	delay := backoffAfter(attempt)
	d.queue.MarkFailed(a.ID, d.now().Add(delay), false)
	slog.Warn("sync action failed, will retry",
		"action_id", a.ID,
		"sim_id", a.SimID,
		"attempt", attempt,
		"retry_in", delay,
		"error", err,
	)
	return false
}
