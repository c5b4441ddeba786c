package syncq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func action(id string, ts int64, prio Priority) Action {
	return Action{
		ID:       id,
		SimID:    "sim-1",
		Kind:     KindAdvance,
		Payload:  Payload{Advance: &AdvancePayload{Periods: 1}},
		ClientTS: ts,
		Priority: prio,
	}
}

func TestQueue_OrderedByTimestampThenID(t *testing.T) {
	q := NewQueue()

	require.True(t, q.Enqueue(action("b", 200, PriorityNormal)))
	require.True(t, q.Enqueue(action("c", 100, PriorityNormal)))
	require.True(t, q.Enqueue(action("a", 200, PriorityNormal)))

	got := q.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID, "earliest timestamp first")
	assert.Equal(t, "a", got[1].ID, "timestamp ties broken by id")
	assert.Equal(t, "b", got[2].ID)
}

func TestQueue_EnqueueIdempotentByID(t *testing.T) {
	q := NewQueue()

	require.True(t, q.Enqueue(action("a", 100, PriorityNormal)))
	assert.False(t, q.Enqueue(action("a", 100, PriorityNormal)), "duplicate id is a no-op")
	assert.Equal(t, 1, q.Len())

	// Applied ids stay deduplicated even after leaving the queue.
	_, ok := q.MarkApplied("a")
	require.True(t, ok)
	assert.False(t, q.Enqueue(action("a", 100, PriorityNormal)), "re-sending an applied action is a no-op")
	assert.Equal(t, 0, q.Len())
}

func TestQueue_NextSyncablePrefersPriority(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(action("low", 100, PriorityLow))
	q.Enqueue(action("critical", 300, PriorityCritical))
	q.Enqueue(action("normal", 200, PriorityNormal))

	a, ok := q.NextSyncable(now)
	require.True(t, ok)
	assert.Equal(t, "critical", a.ID, "critical drains before older normal actions")

	// The claimed action is syncing and not offered again.
	b, ok := q.NextSyncable(now)
	require.True(t, ok)
	assert.Equal(t, "normal", b.ID)
}

func TestQueue_Withdraw_OnlyWhilePending(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(action("a", 100, PriorityNormal))
	q.Enqueue(action("b", 200, PriorityNormal))

	// Claim "a" for sending: it can no longer be withdrawn.
	claimed, ok := q.NextSyncable(now)
	require.True(t, ok)
	require.Equal(t, "a", claimed.ID)
	assert.False(t, q.Withdraw("a"), "syncing action must run to completion")

	assert.True(t, q.Withdraw("b"), "pending action may be withdrawn")
	assert.Equal(t, 1, q.Len())
}

func TestQueue_BackoffWindowSkipped(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(action("a", 100, PriorityNormal))

	claimed, ok := q.NextSyncable(now)
	require.True(t, ok)
	q.MarkFailed(claimed.ID, now.Add(5*time.Second), false)

	_, ok = q.NextSyncable(now)
	assert.False(t, ok, "action inside its backoff window is not offered")

	a, ok := q.NextSyncable(now.Add(6 * time.Second))
	require.True(t, ok)
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, 1, a.Attempts)
}

func TestQueue_PermanentFailureLeavesRotation(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(action("a", 100, PriorityNormal))
	claimed, _ := q.NextSyncable(now)
	q.MarkFailed(claimed.ID, time.Time{}, true)

	_, ok := q.NextSyncable(now.Add(time.Hour))
	assert.False(t, ok, "failed actions never retry implicitly")

	require.True(t, q.Retry("a"))
	a, ok := q.NextSyncable(now.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, 0, a.Attempts, "explicit retry resets the budget")
}

func TestQueue_Stats(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(action("a", 100, PriorityNormal))
	q.Enqueue(action("b", 200, PriorityNormal))

	claimed, _ := q.NextSyncable(now)
	q.MarkFailed(claimed.ID, time.Time{}, true)

	pending, failed := q.Stats()
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, failed)
}

func TestQueue_CloseRejectsNewActions(t *testing.T) {
	q := NewQueue()
	q.Close()
	assert.False(t, q.Enqueue(action("a", 100, PriorityNormal)))
	assert.True(t, q.Closed())
}

func TestClock_MonotonicAndResumable(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}
