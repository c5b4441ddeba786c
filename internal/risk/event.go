package risk

import (
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// Event budget per financial year. A completed year always realizes
// between MinEventsPerYear and MaxEventsPerYear events inclusive.
const (
	MinEventsPerYear = 2
	MaxEventsPerYear = 5
)

// Severity tiers a realized event's base impact as a share of the
// farmer's current cash at strike time.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Impact bands per severity, basis points of current cash. Monotonic
// across tiers by construction.
var severityBands = map[Severity][2]int{
	SeverityLow:    {500, 1500},  // 5–15%
	SeverityMedium: {1500, 3500}, // 15–35%
	SeverityHigh:   {3500, 7000}, // 35–70%
}

// Event is one realized adverse occurrence. Never mutated after
// creation; the impact figures are what actually hit the ledger.
type Event struct {
	ID              string      `json:"id"`
	Period          int         `json:"period"`
	Type            string      `json:"type"`
	Severity        Severity    `json:"severity"`
	RawImpact       money.Paise `json:"raw_impact"`
	MitigatedImpact money.Paise `json:"mitigated_impact"`
}

// Mitigation returns how much damage protection absorbed.
func (e Event) Mitigation() money.Paise {
	return e.RawImpact - e.MitigatedImpact
}
