package syncq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport fails the first failures[id] sends of each action
// and acknowledges after that, recording send order.
type scriptedTransport struct {
	mu       sync.Mutex
	failures map[string]int
	sent     []string
}

func (s *scriptedTransport) Send(_ context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, a.ID)
	if s.failures[a.ID] > 0 {
		s.failures[a.ID]--
		return errors.New("connection reset")
	}
	return nil
}

// fakeClock is an adjustable time source for backoff tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestBackoffAfter_Schedule(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffAfter(1))
	assert.Equal(t, 2*time.Second, backoffAfter(2))
	assert.Equal(t, 4*time.Second, backoffAfter(3))
	assert.Equal(t, 32*time.Second, backoffAfter(6))
	assert.Equal(t, 60*time.Second, backoffAfter(7), "ceiling caps the doubling")
	assert.Equal(t, 60*time.Second, backoffAfter(20))
}

func TestDrainOnce_SendsInOrderAndArchives(t *testing.T) {
	q := NewQueue()
	tr := &scriptedTransport{failures: map[string]int{}}

	var archived []string
	d := NewDrainer(q, tr, OnApplied(func(a Action) {
		archived = append(archived, a.ID)
	}))

	q.Enqueue(action("b", 200, PriorityNormal))
	q.Enqueue(action("a", 100, PriorityNormal))

	applied := d.DrainOnce(context.Background())
	assert.Equal(t, 2, applied)
	assert.Equal(t, []string{"a", "b"}, tr.sent, "queue order preserved within a priority class")
	assert.Equal(t, []string{"a", "b"}, archived)
	assert.Equal(t, 0, q.Len())
}

func TestDrainOnce_RetriesAfterBackoffWindow(t *testing.T) {
	q := NewQueue()
	tr := &scriptedTransport{failures: map[string]int{"a": 2}}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	d := NewDrainer(q, tr, WithClock(clock.Now))
	q.Enqueue(action("a", 100, PriorityNormal))

	// First attempt fails and opens a 1s backoff window.
	assert.Equal(t, 0, d.DrainOnce(context.Background()))
	require.Len(t, tr.sent, 1)

	// Still inside the window: nothing to send.
	assert.Equal(t, 0, d.DrainOnce(context.Background()))
	require.Len(t, tr.sent, 1)

	// Second attempt fails, window doubles to 2s.
	clock.Advance(1100 * time.Millisecond)
	assert.Equal(t, 0, d.DrainOnce(context.Background()))
	require.Len(t, tr.sent, 2)

	clock.Advance(1 * time.Second)
	assert.Equal(t, 0, d.DrainOnce(context.Background()), "2s window not yet elapsed")
	require.Len(t, tr.sent, 2)

	// Third attempt succeeds.
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, d.DrainOnce(context.Background()))
	assert.Equal(t, 0, q.Len())
}

func TestDrainOnce_PermanentFailureSurfaced(t *testing.T) {
	q := NewQueue()
	tr := &scriptedTransport{failures: map[string]int{"a": 100}}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	var failedID string
	var failedErr error
	d := NewDrainer(q, tr,
		WithClock(clock.Now),
		WithMaxAttempts(3),
		OnPermanentFailure(func(a Action, err error) {
			failedID = a.ID
			failedErr = err
		}),
	)
	q.Enqueue(action("a", 100, PriorityNormal))

	for range 5 {
		d.DrainOnce(context.Background())
		clock.Advance(backoffCeiling)
	}

	assert.Equal(t, "a", failedID)
	require.Error(t, failedErr)
	assert.ErrorIs(t, failedErr, ErrPermanentFailure)
	assert.Len(t, tr.sent, 3, "no sends past the retry budget in the drain loop")

	_, failed := q.Stats()
	assert.Equal(t, 1, failed, "action stays queued for inspection")
}

func TestRun_DrainsThenStopsOnClose(t *testing.T) {
	q := NewQueue()
	tr := &scriptedTransport{failures: map[string]int{}}
	d := NewDrainer(q, tr)

	q.Enqueue(action("a", 100, PriorityNormal))
	q.Enqueue(action("b", 200, PriorityCritical))

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	require.Eventually(t, func() bool { return q.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not stop after close")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []string{"b", "a"}, tr.sent, "critical action drains first")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	q := NewQueue()
	d := NewDrainer(q, &scriptedTransport{failures: map[string]int{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not stop after cancel")
	}
}
