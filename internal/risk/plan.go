package risk

import (
	"fmt"
	"sort"
)

// PlannedEvent is a scheduled adverse event whose financial impact is
// not yet realized: the percentage is fixed at planning time, the
// paise amount depends on cash at strike time.
type PlannedEvent struct {
	Period   int      `json:"period"`
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	PctBps   int      `json:"pct_bps"` // raw impact as basis points of cash at strike
}

// Plan is a full year's event schedule. Built once at simulation
// start from the seed and region weights; consumed lazily per period.
type Plan struct {
	YearLength int            `json:"year_length"`
	Events     []PlannedEvent `json:"events"` // ordered by period
}

// NewPlan builds the deterministic event schedule for one year.
//
// Policy:
//   - 2–5 events per year inclusive.
//   - No two consecutive periods both carry an event, unless the year
//     is too short to avoid it.
//   - Event type weighted by the region's event weights.
//   - Severity distribution: 50% low, 35% medium, 15% high.
//
// Same (seed, weights, yearLength) always yields the same plan.
func NewPlan(rng *RNG, eventWeights map[string]int, yearLength int) (Plan, error) {
	if yearLength < MinEventsPerYear {
		return Plan{}, fmt.Errorf("year length %d cannot carry %d events", yearLength, MinEventsPerYear)
	}
	if len(eventWeights) == 0 {
		return Plan{}, fmt.Errorf("no event weights")
	}

	count := MinEventsPerYear + rng.Intn(MaxEventsPerYear-MinEventsPerYear+1)
	if count > yearLength {
		count = yearLength
	}

	periods := schedulePeriods(rng, count, yearLength)

	events := make([]PlannedEvent, 0, count)
	for _, p := range periods {
		sev := rollSeverity(rng)
		band := severityBands[sev]
		events = append(events, PlannedEvent{
			Period:   p,
			Type:     weightedPick(rng, eventWeights),
			Severity: sev,
			PctBps:   rng.Between(band[0], band[1]),
		})
	}
	return Plan{YearLength: yearLength, Events: events}, nil
}

// EventsAt returns the planned events striking in the given period.
func (p Plan) EventsAt(period int) []PlannedEvent {
	var out []PlannedEvent
	for _, e := range p.Events {
		if e.Period == period {
			out = append(out, e)
		}
	}
	return out
}

// ExtraEvent draws an out-of-schedule event for an explicit trigger.
// The caller enforces the per-year budget.
func ExtraEvent(rng *RNG, eventWeights map[string]int, period int) PlannedEvent {
	sev := rollSeverity(rng)
	band := severityBands[sev]
	return PlannedEvent{
		Period:   period,
		Type:     weightedPick(rng, eventWeights),
		Severity: sev,
		PctBps:   rng.Between(band[0], band[1]),
	}
}

// schedulePeriods picks count strike periods in [1, yearLength],
// avoiding adjacent pairs whenever the calendar allows it.
//
// Spacing count periods needs 2*count-1 slots. When they exist, a
// sorted pick from the compressed range [1, yearLength-count+1]
// re-expanded by its index is exactly a non-adjacent combination, so
// spacing never fails by construction.
func schedulePeriods(rng *RNG, count, yearLength int) []int {
	width := yearLength
	if yearLength >= 2*count-1 {
		width = yearLength - count + 1
	}

	candidates := make([]int, width)
	for i := range candidates {
		candidates[i] = i + 1
	}
	rng.Shuffle(candidates)

	chosen := candidates[:count]
	sort.Ints(chosen)
	if width < yearLength {
		for i := range chosen {
			chosen[i] += i
		}
	}
	return chosen
}

func rollSeverity(rng *RNG) Severity {
	switch roll := rng.Intn(100); {
	case roll < 50:
		return SeverityLow
	case roll < 85:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// weightedPick selects a key with probability proportional to its
// weight. Keys are visited in sorted order so the draw consumes the
// stream identically regardless of map iteration order.
func weightedPick(rng *RNG, weights map[string]int) string {
	keys := make([]string, 0, len(weights))
	total := 0
	for k, w := range weights {
		if w > 0 {
			keys = append(keys, k)
			total += w
		}
	}
	sort.Strings(keys)

	roll := rng.Intn(total)
	for _, k := range keys {
		roll -= weights[k]
		if roll < 0 {
			return k
		}
	}
	return keys[len(keys)-1]
}
