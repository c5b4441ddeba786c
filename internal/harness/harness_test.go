package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

func runScenario(t *testing.T, s *Scenario) *Result {
	t.Helper()
	result, err := Run(context.Background(), s, filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	return result
}

func loadFixture(t *testing.T) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "frugal_wheat_year.yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_FrugalWheatYear(t *testing.T) {
	result := runScenario(t, loadFixture(t))

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 8)
	assert.Equal(t, "start", result.Trace[0].Op)
	assert.Equal(t, "rejected", result.Trace[4].Outcome)
	assert.Equal(t, sim.CodeInsufficientFunds, result.Trace[4].Code)
	assert.Equal(t, "complete", result.Trace[7].Op)

	assert.Equal(t, sim.StatusCompleted, result.Final.Status)
	assert.Equal(t, 12, result.Final.Processed)
	assert.Len(t, result.Final.Decisions, 1)
}

func TestRun_GoldenTrace(t *testing.T) {
	RunWithGolden(t, loadFixture(t))
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadFixture(t)
	first := runScenario(t, scenario)
	second := runScenario(t, scenario)

	assert.Equal(t, first.Trace, second.Trace)
	firstSum, err := first.Final.Checksum()
	require.NoError(t, err)
	secondSum, err := second.Final.Checksum()
	require.NoError(t, err)
	assert.Equal(t, firstSum, secondSum)
}

func baseScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline test scenario",
		Config: ScenarioConfig{
			Owner:  "farmer-1",
			Crop:   "wheat",
			Region: "punjab",
			Seed:   7,
		},
		Steps: steps,
	}
}

func TestRun_ExpectedRejectionThatSucceeds(t *testing.T) {
	s := baseScenario(Step{
		Op:      "advance",
		Periods: 1,
		Expect:  &ExpectClause{Outcome: "rejected", Code: sim.CodeInvalidPeriods},
	})

	result := runScenario(t, s)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected rejection")
}

func TestRun_UnexpectedRejectionStops(t *testing.T) {
	s := baseScenario(
		Step{Op: "undo"},
		Step{Op: "advance", Periods: 1},
	)

	result := runScenario(t, s)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], sim.CodeNothingToUndo)

	// The failing undo is traced, the following advance never ran.
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "undo", result.Trace[1].Op)
}

func TestRun_WrongRejectionCode(t *testing.T) {
	s := baseScenario(Step{
		Op:     "undo",
		Expect: &ExpectClause{Outcome: "rejected", Code: sim.CodeUndoWindowClosed},
	})

	result := runScenario(t, s)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], sim.CodeNothingToUndo)
}

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Op: "start", Outcome: "ok"},
		{Seq: 2, Op: "decide", Detail: "save", Outcome: "ok"},
		{Seq: 3, Op: "decide", Detail: "expense", Outcome: "rejected", Code: "INSUFFICIENT_FUNDS"},
		{Seq: 4, Op: "advance", Outcome: "ok"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: "decide", Decision: "save"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: "advance"}))

	err := assertTraceContains(trace, Assertion{Op: "complete"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op complete")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{"start", "decide", "advance"}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{"advance", "decide"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stalled at "decide"`)
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "decide", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "decide", Decision: "save", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "complete", Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: "decide", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 times")
}

func TestAssertFinalState(t *testing.T) {
	final := sim.Simulation{
		Status:    sim.StatusCompleted,
		Period:    12,
		Processed: 12,
		Points:    18,
	}

	assert.NoError(t, assertFinalState(final, Assertion{Expect: map[string]any{
		"status":    "completed",
		"processed": 12,
		"decisions": 0,
	}}))

	err := assertFinalState(final, Assertion{Expect: map[string]any{"points": 99}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points = 99")
	assert.Contains(t, err.Error(), "points = 18")
}
