package syncq

import "sync/atomic"

// Clock is a monotonic logical clock stamping sync actions with
// per-simulation sequence numbers. Ordering comes from here, never
// from wall time alone, so replay order is explicit and stable.
//
// Safe for concurrent use; the engine's per-simulation serialization
// means contention is rare in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known sequence number,
// used when reloading a simulation's action log from the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number. Each call returns a unique,
// strictly increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
