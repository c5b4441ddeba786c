package sim

import (
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// YearSummary aggregates a completed year. All fields are plain data
// for the presentation adapter; identifiers and integers only.
type YearSummary struct {
	SimulationID string `json:"simulation_id"`
	OwnerID      string `json:"owner_id"`
	Crop         string `json:"crop"`
	Region       string `json:"region"`

	TotalIncome        money.Paise            `json:"total_income"`
	TotalExpenses      money.Paise            `json:"total_expenses"`
	ExpensesByCategory map[string]money.Paise `json:"expenses_by_category"`

	NetSavings     money.Paise `json:"net_savings"` // savings + allocation value
	SavingsRateBps int64       `json:"savings_rate_bps"`

	EventCount  int         `json:"event_count"`
	EventImpact money.Paise `json:"event_impact"`

	DecisionCount int         `json:"decision_count"`
	Points        int         `json:"points"`
	FinalCash     money.Paise `json:"final_cash"`
	Overdrawn     bool        `json:"overdrawn"`
}

// CompleteYear aggregates totals and transitions the simulation to
// completed. Only legal once every period has been processed; calling
// again on a completed simulation returns the stored summary.
func (s *Simulation) CompleteYear() (YearSummary, error) {
	if s.Status == StatusCompleted {
		if s.Summary != nil {
			return *s.Summary, nil
		}
		return YearSummary{}, stateErr(CodeSimulationCompleted, "simulation is completed")
	}
	if s.Processed < s.YearLength {
		return YearSummary{}, stateErr(CodeYearNotComplete,
			fmt.Sprintf("processed %d of %d periods", s.Processed, s.YearLength))
	}

	byCat := make(map[string]money.Paise, len(s.Expenses))
	for cat, amt := range s.Expenses {
		byCat[cat] = amt
	}

	net := s.Snap.Savings + s.Snap.AllocationsTotal()
	var rateBps int64
	if seasonal := s.seasonalIncomeSoFar(); seasonal > 0 {
		rateBps = int64(net) * 10000 / int64(seasonal)
	}

	var impact money.Paise
	for _, ev := range s.Events {
		impact += ev.MitigatedImpact
	}

	summary := YearSummary{
		SimulationID:       s.ID,
		OwnerID:            s.OwnerID,
		Crop:               s.Crop,
		Region:             s.Region,
		TotalIncome:        s.Snap.IncomeTotal,
		TotalExpenses:      s.Snap.ExpenseTotal,
		ExpensesByCategory: byCat,
		NetSavings:         net,
		SavingsRateBps:     rateBps,
		EventCount:         len(s.Events),
		EventImpact:        impact,
		DecisionCount:      len(s.Decisions),
		Points:             s.Points,
		FinalCash:          s.Snap.Cash,
		Overdrawn:          s.Snap.Overdrawn,
	}

	s.Status = StatusCompleted
	s.Summary = &summary
	return summary, nil
}
