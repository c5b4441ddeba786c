package harness

import (
	"fmt"
	"strings"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

// AssertionError describes one failed assertion with enough trace
// context to debug it without re-running the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual:   %s\n", e.Actual)
	fmt.Fprintf(&buf, "  trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "    [%d] %s %s %s %s\n", ev.Seq, ev.Op, ev.Detail, ev.Outcome, ev.Code)
	}
	return buf.String()
}

func evaluateAssertions(result *Result, assertions []Assertion, final sim.Simulation) {
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(final, a)
		}
		if err != nil {
			result.AddError(err.Error())
		}
	}
}

func matchesEvent(ev TraceEvent, a Assertion) bool {
	if ev.Op != a.Op {
		return false
	}
	if a.Decision != "" && ev.Detail != a.Decision {
		return false
	}
	return true
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matchesEvent(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeSelector(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks the ops appear in the given order. Other
// events in between are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order %v", a.Ops),
		Actual:   fmt.Sprintf("stalled at %q", a.Ops[next]),
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matchesEvent(ev, a) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s exactly %d times", describeSelector(a), a.Count),
		Actual:   fmt.Sprintf("found %d times", count),
		Trace:    trace,
	}
}

func describeSelector(a Assertion) string {
	if a.Decision != "" {
		return fmt.Sprintf("op %s (%s)", a.Op, a.Decision)
	}
	return fmt.Sprintf("op %s", a.Op)
}

func assertFinalState(final sim.Simulation, a Assertion) error {
	for key, want := range a.Expect {
		got := finalStateValue(final, key)
		if !looselyEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

func finalStateValue(final sim.Simulation, key string) any {
	switch key {
	case "status":
		return string(final.Status)
	case "period":
		return final.Period
	case "processed":
		return final.Processed
	case "points":
		return final.Points
	case "decisions":
		return len(final.Decisions)
	case "events":
		return len(final.Events)
	case "cash_paise":
		return int64(final.Snap.Cash)
	}
	return nil
}

// looselyEqual compares a state value against its YAML counterpart.
// YAML decodes numbers as int, so both sides are normalized to int64
// before comparison.
func looselyEqual(got, want any) bool {
	gi, gok := asInt64(got)
	wi, wok := asInt64(want)
	if gok && wok {
		return gi == wi
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
