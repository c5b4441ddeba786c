package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWeights = map[string]int{
	"natural_disaster": 5,
	"pest_attack":      4,
	"market_crash":     2,
	"medical_emergency": 2,
}

func TestNewPlan_Deterministic(t *testing.T) {
	a, err := NewPlan(NewRNG(42), testWeights, 12)
	require.NoError(t, err)
	b, err := NewPlan(NewRNG(42), testWeights, 12)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must produce the same schedule")

	c, err := NewPlan(NewRNG(43), testWeights, 12)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should diverge")
}

func TestNewPlan_EventBudget(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		p, err := NewPlan(NewRNG(seed), testWeights, 12)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(p.Events), MinEventsPerYear, "seed %d", seed)
		assert.LessOrEqual(t, len(p.Events), MaxEventsPerYear, "seed %d", seed)
	}
}

func TestNewPlan_NoAdjacentPeriods(t *testing.T) {
	// 12 periods comfortably fit 5 non-adjacent events, so spacing
	// must hold for every seed.
	for seed := int64(0); seed < 200; seed++ {
		p, err := NewPlan(NewRNG(seed), testWeights, 12)
		require.NoError(t, err)
		for i := 1; i < len(p.Events); i++ {
			prev, cur := p.Events[i-1].Period, p.Events[i].Period
			assert.Greater(t, cur, prev, "seed %d: events ordered by period", seed)
			assert.GreaterOrEqual(t, cur-prev, 2, "seed %d: periods %d and %d adjacent", seed, prev, cur)
		}
	}
}

func TestNewPlan_ShortYearForcesAdjacency(t *testing.T) {
	// A 2-period year cannot space 2 events; the plan must still fit.
	p, err := NewPlan(NewRNG(7), testWeights, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, len(p.Events))
}

func TestNewPlan_FieldsWithinPolicy(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		p, err := NewPlan(NewRNG(seed), testWeights, 12)
		require.NoError(t, err)
		for _, e := range p.Events {
			assert.Contains(t, testWeights, e.Type, "seed %d", seed)
			band, ok := severityBands[e.Severity]
			require.True(t, ok, "seed %d: unknown severity %q", seed, e.Severity)
			assert.GreaterOrEqual(t, e.PctBps, band[0], "seed %d", seed)
			assert.LessOrEqual(t, e.PctBps, band[1], "seed %d", seed)
			assert.GreaterOrEqual(t, e.Period, 1)
			assert.LessOrEqual(t, e.Period, 12)
		}
	}
}

func TestNewPlan_Errors(t *testing.T) {
	_, err := NewPlan(NewRNG(1), testWeights, 1)
	assert.Error(t, err, "year shorter than the minimum event count")

	_, err = NewPlan(NewRNG(1), nil, 12)
	assert.Error(t, err, "no weights")
}

func TestSeverityBands_MonotonicAcrossTiers(t *testing.T) {
	low, med, high := severityBands[SeverityLow], severityBands[SeverityMedium], severityBands[SeverityHigh]
	assert.LessOrEqual(t, low[0], low[1])
	assert.LessOrEqual(t, low[1], med[0]+1)
	assert.LessOrEqual(t, med[1], high[0]+1)
	assert.Less(t, low[0], med[0])
	assert.Less(t, med[0], high[0])
	assert.Less(t, low[1], med[1])
	assert.Less(t, med[1], high[1])
}

func TestWeightedPick_RespectsZeroWeights(t *testing.T) {
	rng := NewRNG(9)
	weights := map[string]int{"a": 0, "b": 3}
	for i := 0; i < 50; i++ {
		assert.Equal(t, "b", weightedPick(rng, weights))
	}
}

func TestExtraEvent_Deterministic(t *testing.T) {
	a := ExtraEvent(NewRNG(5), testWeights, 7)
	b := ExtraEvent(NewRNG(5), testWeights, 7)
	assert.Equal(t, a, b)
	assert.Equal(t, 7, a.Period)
}

func TestDerive_IndependentStreams(t *testing.T) {
	root := NewRNG(42)
	a := root.Derive("events")
	b := root.Derive("expenses")

	drawsA := []int{a.Intn(1_000_000), a.Intn(1_000_000), a.Intn(1_000_000)}
	drawsB := []int{b.Intn(1_000_000), b.Intn(1_000_000), b.Intn(1_000_000)}
	assert.NotEqual(t, drawsA, drawsB,
		"sub-streams with different labels should diverge")

	// Deriving again from an untouched root reproduces the stream.
	c := NewRNG(42).Derive("events")
	drawsC := []int{c.Intn(1_000_000), c.Intn(1_000_000), c.Intn(1_000_000)}
	assert.Equal(t, drawsA, drawsC)
}
