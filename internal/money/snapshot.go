package money

import (
	"fmt"
	"slices"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/canon"
)

// Snapshot is the financial state of one simulation at a point in
// time. It is a value type: ledger operations copy it, never mutate in
// place.
type Snapshot struct {
	Cash            Paise
	Savings         Paise
	InsuranceCover  Paise // active cover, not an asset
	LoanOutstanding Paise // informational; proceeds are booked as income
	Overdrawn       bool  // Cash < 0

	// Allocations ordered by ID for deterministic serialization.
	Allocations []Allocation

	// Running totals backing the balance invariant.
	OpeningCapital Paise
	IncomeTotal    Paise // includes seasonal income, loan proceeds, interest
	ExpenseTotal   Paise // includes insurance premiums
	ImpactTotal    Paise // mitigated (realized) risk-event damage
}

// NewSnapshot returns a snapshot opened with the given capital.
func NewSnapshot(openingCapital Paise) Snapshot {
	return Snapshot{
		Cash:           openingCapital,
		OpeningCapital: openingCapital,
	}
}

// AllocationsTotal sums the current value of all allocations.
func (s Snapshot) AllocationsTotal() Paise {
	var total Paise
	for _, a := range s.Allocations {
		total += a.Value
	}
	return total
}

// LiquidCash is the cash available for new spending decisions.
// Savings and allocations are not liquid for decision validation.
func (s Snapshot) LiquidCash() Paise {
	if s.Cash < 0 {
		return 0
	}
	return s.Cash
}

// Allocation returns the allocation with the given ID, if present.
func (s Snapshot) Allocation(id string) (Allocation, bool) {
	for _, a := range s.Allocations {
		if a.ID == id {
			return a, true
		}
	}
	return Allocation{}, false
}

// CheckInvariant verifies the primary balance equation:
//
//	cash + savings + Σallocations.value ==
//	    openingCapital + Σincome − Σexpenses − Σrealized_impact
//
// A non-nil return means state corruption; callers roll back to the
// last validated snapshot.
func (s Snapshot) CheckInvariant() error {
	left := s.Cash + s.Savings + s.AllocationsTotal()
	right := s.OpeningCapital + s.IncomeTotal - s.ExpenseTotal - s.ImpactTotal
	if left != right {
		return fmt.Errorf("balance invariant violated: assets=%d, ledger=%d (diff %d)", left, right, left-right)
	}
	return nil
}

// clone returns a deep copy; Allocations is the only reference field.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Allocations = slices.Clone(s.Allocations)
	return out
}

// setAlloc replaces or inserts an allocation, keeping ID order.
func (s *Snapshot) setAlloc(a Allocation) {
	for i := range s.Allocations {
		if s.Allocations[i].ID == a.ID {
			s.Allocations[i] = a
			return
		}
	}
	s.Allocations = append(s.Allocations, a)
	slices.SortFunc(s.Allocations, func(x, y Allocation) int {
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		default:
			return 0
		}
	})
}

// removeAlloc deletes the allocation with the given ID, if present.
// An emptied slice becomes nil so reversing an investment restores a
// snapshot structurally equal to the one it was applied to.
func (s *Snapshot) removeAlloc(id string) {
	s.Allocations = slices.DeleteFunc(s.Allocations, func(a Allocation) bool {
		return a.ID == id
	})
	if len(s.Allocations) == 0 {
		s.Allocations = nil
	}
}

// refreshOverdrawn recomputes the debt flag from cash.
func (s *Snapshot) refreshOverdrawn() {
	s.Overdrawn = s.Cash < 0
}

// Canonical returns the snapshot as a canon.Object for checksumming.
// Allocations are emitted in ID order, so structurally equal snapshots
// always produce identical bytes.
func (s Snapshot) Canonical() canon.Object {
	allocs := make(canon.Array, len(s.Allocations))
	for i, a := range s.Allocations {
		allocs[i] = canon.Object{
			"id":        canon.String(a.ID),
			"category":  canon.String(a.Category),
			"class":     canon.String(string(a.Class)),
			"rate_bps":  canon.Int(a.RateBps),
			"principal": canon.Int(a.Principal),
			"periods":   canon.Int(a.Periods),
			"value":     canon.Int(a.Value),
		}
	}
	return canon.Object{
		"cash":             canon.Int(s.Cash),
		"savings":          canon.Int(s.Savings),
		"insurance_cover":  canon.Int(s.InsuranceCover),
		"loan_outstanding": canon.Int(s.LoanOutstanding),
		"overdrawn":        canon.Bool(s.Overdrawn),
		"allocations":      allocs,
		"opening_capital":  canon.Int(s.OpeningCapital),
		"income_total":     canon.Int(s.IncomeTotal),
		"expense_total":    canon.Int(s.ExpenseTotal),
		"impact_total":     canon.Int(s.ImpactTotal),
	}
}

// Checksum returns the content-addressed checksum of the snapshot.
func (s Snapshot) Checksum() string {
	return canon.MustStateChecksum(s.Canonical())
}
