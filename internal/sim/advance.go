package sim

import (
	"fmt"
	"sort"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/risk"
)

// AdvanceTime accrues the given number of periods, in order. For each
// period: seasonal income (if a harvest period), scheduled expenses
// across every required category, allocation compounding, and any
// risk events due. Advancing past year end clamps to year end instead
// of overflowing.
func (s *Simulation) AdvanceTime(periods int) error {
	if s.Status != StatusActive {
		return stateErr(CodeSimulationCompleted, "simulation is completed")
	}
	if periods < 1 {
		return validationErr(CodeInvalidPeriods, fmt.Sprintf("periods must be >= 1, got %d", periods), nil)
	}

	for i := 0; i < periods && s.Processed < s.YearLength; i++ {
		if err := s.accruePeriod(s.Processed + 1); err != nil {
			return err
		}
	}
	return nil
}

// accruePeriod runs one period's mechanical flows. On any invariant
// violation the simulation rolls back to the snapshot it entered the
// period with.
func (s *Simulation) accruePeriod(p int) error {
	rollback := s.Snap

	if err := s.runPeriod(p); err != nil {
		s.Snap = rollback
		return err
	}

	if err := s.Snap.CheckInvariant(); err != nil {
		s.Snap = rollback
		return consistencyErr(CodeBalanceInvariant,
			fmt.Sprintf("period %d accrual broke the balance invariant", p), err)
	}

	s.Processed = p
	s.Period = p + 1
	if s.Period > s.YearLength {
		s.Period = s.YearLength
	}
	return nil
}

func (s *Simulation) runPeriod(p int) error {
	// Harvest income first: the lump lands at the period boundary.
	for _, hp := range s.Profile.HarvestPeriods {
		if hp == p {
			next, _, err := money.ApplyIncome(s.Snap, s.Econ.SeasonalIncome, "harvest")
			if err != nil {
				return consistencyErr(CodeBalanceInvariant, "harvest income", err)
			}
			s.Snap = next
		}
	}

	// Scheduled expenses across all required categories.
	for _, d := range s.expenseDraws(p) {
		next, _, err := money.ApplyExpense(s.Snap, d.amount, d.category)
		if err != nil {
			return consistencyErr(CodeBalanceInvariant, "expense accrual", err)
		}
		s.Snap = next
		s.Expenses[d.category] += d.amount
	}

	// Compound every allocation one period.
	for _, id := range s.allocationIDs() {
		next, _, err := money.Compound(s.Snap, id, 1)
		if err != nil {
			return consistencyErr(CodeBalanceInvariant, "compounding", err)
		}
		s.Snap = next
	}

	// Realize scheduled risk events, capped by the yearly budget.
	for _, planned := range s.Plan.EventsAt(p) {
		if len(s.Events) >= risk.MaxEventsPerYear {
			break
		}
		if _, err := s.realizeEvent(planned); err != nil {
			return err
		}
	}
	return nil
}

type expenseDraw struct {
	category string
	amount   money.Paise
}

// expenseDraws computes the period's spending per category. The total
// is drawn from the crop's monthly range on a sub-stream derived from
// (seed, period), then split by the region's expense shares with the
// rounding remainder going to the first category. Every category
// draws a non-zero amount each period as long as its share is
// positive, which the content schema enforces.
func (s *Simulation) expenseDraws(p int) []expenseDraw {
	rng := risk.NewRNG(s.Seed).Derive(fmt.Sprintf("expenses-%d", p))

	lo, hi := int(s.Econ.MonthlyExpenseMin), int(s.Econ.MonthlyExpenseMax)
	total := money.Paise(rng.Between(lo, hi))

	cats := make([]string, 0, len(s.Profile.ExpenseShares))
	shareSum := 0
	for cat, share := range s.Profile.ExpenseShares {
		cats = append(cats, cat)
		shareSum += share
	}
	sort.Strings(cats)

	draws := make([]expenseDraw, 0, len(cats))
	var assigned money.Paise
	for _, cat := range cats {
		amt := total * money.Paise(s.Profile.ExpenseShares[cat]) / money.Paise(shareSum)
		draws = append(draws, expenseDraw{category: cat, amount: amt})
		assigned += amt
	}
	if len(draws) > 0 {
		draws[0].amount += total - assigned
	}
	return draws
}

// allocationIDs returns allocation ids in stable order.
func (s *Simulation) allocationIDs() []string {
	ids := make([]string, len(s.Snap.Allocations))
	for i, a := range s.Snap.Allocations {
		ids[i] = a.ID
	}
	return ids
}

// realizeEvent sizes a planned event against current cash and
// protection, applies the mitigated impact, and appends to history.
func (s *Simulation) realizeEvent(planned risk.PlannedEvent) (risk.Event, error) {
	raw := risk.RawImpact(s.Snap.Cash, planned.PctBps)
	protection := risk.Protection{
		Cover:         s.Snap.InsuranceCover,
		SavingsBuffer: s.Snap.Savings,
	}
	raw, mitigated := risk.ResolveImpact(raw, protection)

	next, _, err := money.ApplyImpact(s.Snap, mitigated, planned.Type)
	if err != nil {
		return risk.Event{}, consistencyErr(CodeBalanceInvariant, "event impact", err)
	}
	s.Snap = next

	ev := risk.Event{
		ID:              fmt.Sprintf("evt-%d", len(s.Events)+1),
		Period:          planned.Period,
		Type:            planned.Type,
		Severity:        planned.Severity,
		RawImpact:       raw,
		MitigatedImpact: mitigated,
	}
	s.Events = append(s.Events, ev)
	return ev, nil
}
