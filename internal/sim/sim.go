// Package sim owns the lifecycle of one simulated financial year:
// period ticking, expense accrual, seasonal income, event realization,
// decision history with same-period undo, and completion.
//
// A Simulation is a plain value with no goroutines and no I/O. All
// mutations are driven by its methods; the engine layer serializes
// calls per simulation id. Given the same configuration and seed,
// every method sequence reproduces the identical state — randomness
// comes only from the seeded generator in the risk package.
package sim

import (
	"errors"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/content"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/risk"
)

// DefaultYearLength is one financial year in periods. A period is one
// simulated month; the year runs harvest to harvest over 12 of them.
const DefaultYearLength = 12

// Status is the lifecycle state. No transition leaves completed.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Config describes a new simulated year.
type Config struct {
	OwnerID    string `json:"owner_id"`
	Crop       string `json:"crop"`
	Region     string `json:"region"`
	YearLength int    `json:"year_length"` // 0 means DefaultYearLength
	Seed       int64  `json:"seed"`
}

// Simulation is the authoritative snapshot of one user's run.
// Exported fields make the whole value JSON-serializable for the
// persistence layer; nothing outside this package mutates them.
type Simulation struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Crop    string `json:"crop"`
	Region  string `json:"region"` // profile actually used, after fallback
	Seed    int64  `json:"seed"`

	YearLength int    `json:"year_length"`
	Period     int    `json:"period"`    // period the farmer currently lives in
	Processed  int    `json:"processed"` // periods fully accrued, 0..YearLength
	Status     Status `json:"status"`

	Snap      money.Snapshot         `json:"snapshot"`
	Decisions []decision.Applied     `json:"decisions"`
	Events    []risk.Event           `json:"events"`
	Plan      risk.Plan              `json:"plan"`
	Points    int                    `json:"points"`
	Expenses  map[string]money.Paise `json:"expenses_by_category"`

	Profile content.RegionProfile `json:"profile"`
	Econ    cropEconJSON          `json:"economics"`

	Summary *YearSummary `json:"summary,omitempty"`
}

// cropEconJSON mirrors content.CropEconomics with JSON tags so a
// simulation round-trips through the store without the content tables.
type cropEconJSON struct {
	OpeningCapital    money.Paise `json:"opening_capital"`
	SeasonalIncome    money.Paise `json:"seasonal_income"`
	MonthlyExpenseMin money.Paise `json:"monthly_expense_min"`
	MonthlyExpenseMax money.Paise `json:"monthly_expense_max"`
}

// StartNewYear creates an active simulation at period 1.
//
// An unknown region falls back to the default national profile rather
// than blocking the start; an unrecognized crop/region combination is
// an InvalidConfig error.
func StartNewYear(id string, cfg Config, provider content.Provider) (*Simulation, error) {
	if cfg.YearLength == 0 {
		cfg.YearLength = DefaultYearLength
	}
	if cfg.YearLength < risk.MinEventsPerYear {
		return nil, configErr(CodeInvalidConfig, fmt.Sprintf("year length %d too short", cfg.YearLength), nil)
	}

	region := cfg.Region
	profile, err := provider.RegionProfile(region)
	if errors.Is(err, content.ErrUnknownRegion) {
		region = content.DefaultRegion
		profile, err = provider.RegionProfile(region)
	}
	if err != nil {
		return nil, configErr(CodeInvalidConfig, "region profile unavailable", err)
	}
	// The profile's own name, not the caller's casing, is what the
	// simulation used and what replay must reproduce.
	region = profile.Name

	econ, err := provider.CropEconomics(cfg.Crop, region)
	if err != nil {
		return nil, configErr(CodeInvalidConfig,
			fmt.Sprintf("crop %q is not recognized for region %q", cfg.Crop, region), err)
	}

	plan, err := risk.NewPlan(risk.NewRNG(cfg.Seed).Derive("events"), profile.EventWeights, cfg.YearLength)
	if err != nil {
		return nil, configErr(CodeInvalidConfig, "event plan", err)
	}

	s := &Simulation{
		ID:         id,
		OwnerID:    cfg.OwnerID,
		Crop:       cfg.Crop,
		Region:     region,
		Seed:       cfg.Seed,
		YearLength: cfg.YearLength,
		Period:     1,
		Status:     StatusActive,
		Snap:       money.NewSnapshot(econ.OpeningCapital),
		Plan:       plan,
		Expenses:   make(map[string]money.Paise),
		Profile:    profile,
		Econ: cropEconJSON{
			OpeningCapital:    econ.OpeningCapital,
			SeasonalIncome:    econ.SeasonalIncome,
			MonthlyExpenseMin: econ.MonthlyExpenseMin,
			MonthlyExpenseMax: econ.MonthlyExpenseMax,
		},
	}
	return s, nil
}

// Catalog returns the recognized category universe for this
// simulation's region.
func (s *Simulation) Catalog() decision.Catalog {
	expenses := make(map[string]bool, len(s.Profile.ExpenseShares))
	for cat := range s.Profile.ExpenseShares {
		expenses[cat] = true
	}
	return decision.Catalog{
		ExpenseCategories: expenses,
		ProductRates:      s.Profile.Rates,
	}
}

// seasonalIncomeSoFar is the harvest income credited through the
// periods processed so far. Scoring compares savings against this,
// not against loans or interest.
func (s *Simulation) seasonalIncomeSoFar() money.Paise {
	var total money.Paise
	for _, p := range s.Profile.HarvestPeriods {
		if p <= s.Processed {
			total += s.Econ.SeasonalIncome
		}
	}
	return total
}

// savedSoFar is what the farmer has put aside: liquid savings plus
// invested principal.
func (s *Simulation) savedSoFar() money.Paise {
	total := s.Snap.Savings
	for _, a := range s.Snap.Allocations {
		total += a.Principal
	}
	return total
}

// MakeDecision validates and applies a decision in the current
// period. The decision id must be unique within the simulation; the
// caller (engine) assigns it.
func (s *Simulation) MakeDecision(decisionID string, d decision.Decision, clientTS int64) (decision.Outcome, error) {
	if s.Status != StatusActive {
		return decision.Outcome{}, stateErr(CodeSimulationCompleted, "simulation is completed")
	}

	cctx := decision.Context{
		DecisionID:  decisionID,
		Period:      s.Period,
		ClientTS:    clientTS,
		Catalog:     s.Catalog(),
		IncomeSoFar: s.seasonalIncomeSoFar(),
		SavedSoFar:  s.savedSoFar(),
	}

	next, applied, outcome, err := decision.Apply(s.Snap, d, cctx)
	if err != nil {
		return decision.Outcome{}, classifyDecisionErr(err)
	}

	if err := next.CheckInvariant(); err != nil {
		// State untouched: next is discarded, s.Snap still valid.
		return decision.Outcome{}, consistencyErr(CodeBalanceInvariant, "decision broke the balance invariant", err)
	}

	s.Snap = next
	s.Decisions = append(s.Decisions, applied)
	s.Points += applied.Points
	switch applied.Kind {
	case decision.KindExpense, decision.KindInsurance:
		s.Expenses[applied.Category] += applied.Amount
	}
	return outcome, nil
}

// UndoDecision pops the most recent decision if it was made in the
// current period and restores the prior snapshot exactly.
func (s *Simulation) UndoDecision() (decision.Applied, error) {
	if s.Status != StatusActive {
		return decision.Applied{}, stateErr(CodeSimulationCompleted, "simulation is completed")
	}
	if len(s.Decisions) == 0 {
		return decision.Applied{}, stateErr(CodeNothingToUndo, "decision history is empty")
	}

	last := s.Decisions[len(s.Decisions)-1]
	// Period alone cannot close the window at year end: the clamp
	// holds Period at YearLength after the final accrual. Once the
	// decision's period has been accrued, undo would erase that
	// accrual too, so the window is closed.
	if s.Processed >= last.Period {
		return decision.Applied{}, stateErr(CodeUndoWindowClosed,
			fmt.Sprintf("period %d has already been accrued", last.Period))
	}
	restored, err := decision.Undo(s.Snap, last, s.Period)
	if err != nil {
		switch {
		case errors.Is(err, decision.ErrNothingToUndo):
			return decision.Applied{}, stateErr(CodeNothingToUndo, err.Error())
		case errors.Is(err, decision.ErrUndoWindowClosed):
			return decision.Applied{}, stateErr(CodeUndoWindowClosed, err.Error())
		case errors.Is(err, decision.ErrChecksumMismatch):
			return decision.Applied{}, consistencyErr(CodeChecksumMismatch, "undo verification failed", err)
		default:
			return decision.Applied{}, consistencyErr(CodeBalanceInvariant, "undo failed", err)
		}
	}

	s.Snap = restored
	s.Decisions = s.Decisions[:len(s.Decisions)-1]
	s.Points -= last.Points
	switch last.Kind {
	case decision.KindExpense, decision.KindInsurance:
		s.Expenses[last.Category] -= last.Amount
		if s.Expenses[last.Category] == 0 {
			delete(s.Expenses, last.Category)
		}
	}
	return last, nil
}

// TriggerRiskEvent realizes one out-of-schedule event immediately,
// still bounded by the per-year budget.
func (s *Simulation) TriggerRiskEvent() (risk.Event, error) {
	if s.Status != StatusActive {
		return risk.Event{}, stateErr(CodeSimulationCompleted, "simulation is completed")
	}
	if len(s.Events) >= risk.MaxEventsPerYear {
		return risk.Event{}, stateErr(CodeEventBudgetExhausted,
			fmt.Sprintf("year already carries %d events", len(s.Events)))
	}

	// Derived per event index: the draw is a pure function of
	// (seed, index), so replay after undo or reload is identical.
	rng := risk.NewRNG(s.Seed).Derive(fmt.Sprintf("extra-%d", len(s.Events)))
	planned := risk.ExtraEvent(rng, s.Profile.EventWeights, s.Period)
	return s.realizeEvent(planned)
}

// GetState returns the simulation for read-only use. Callers must not
// mutate the returned value's reference fields.
func (s *Simulation) GetState() Simulation {
	return *s
}

func classifyDecisionErr(err error) error {
	switch {
	case errors.Is(err, decision.ErrInsufficientFunds):
		return validationErr(CodeInsufficientFunds, "amount exceeds available liquid cash", err)
	case errors.Is(err, decision.ErrUnknownCategory):
		return validationErr(CodeUnknownCategory, "category not recognized", err)
	case errors.Is(err, decision.ErrInvalidAmount), errors.Is(err, money.ErrInvalidAmount):
		return validationErr(CodeInvalidAmount, "amount must be positive", err)
	default:
		return validationErr(CodeInvalidAmount, "decision rejected", err)
	}
}
