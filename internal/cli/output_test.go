package cli

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/engine"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/risk"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "₹0.00", formatPaise(0))
	assert.Equal(t, "₹1.50", formatPaise(150))
	assert.Equal(t, "₹45,000.00", formatPaise(money.FromRupees(45000)))
	assert.Equal(t, "₹9,500.07", formatPaise(950007))
	assert.Equal(t, "-₹250.25", formatPaise(-25025))
}

func TestBuildDecision(t *testing.T) {
	opts := &DecideOptions{Amount: 500, Category: "healthcare"}
	d, err := buildDecision(opts, "expense")
	require.NoError(t, err)
	assert.Equal(t, decision.Expense{Amount: money.FromRupees(500), Category: "healthcare"}, d)

	d, err = buildDecision(&DecideOptions{Amount: 1000}, "save")
	require.NoError(t, err)
	assert.Equal(t, decision.Saving{Amount: money.FromRupees(1000)}, d)

	d, err = buildDecision(&DecideOptions{Amount: 300, Cover: 20000}, "insure")
	require.NoError(t, err)
	assert.Equal(t, decision.Insurance{
		Premium: money.FromRupees(300),
		Cover:   money.FromRupees(20000),
	}, d)

	_, err = buildDecision(&DecideOptions{Amount: 100}, "expense")
	assert.Error(t, err, "expense without category")
	_, err = buildDecision(&DecideOptions{Amount: 100}, "invest")
	assert.Error(t, err, "invest without product")
	_, err = buildDecision(&DecideOptions{Amount: 100}, "gamble")
	assert.Error(t, err, "unknown kind")
}

func TestRenderSummary_Golden(t *testing.T) {
	y := sim.YearSummary{
		SimulationID:  "sim-0001",
		OwnerID:       "farmer-1",
		Crop:          "wheat",
		Region:        "punjab",
		TotalIncome:   4_500_000,
		TotalExpenses: 9_876_543,
		ExpensesByCategory: map[string]money.Paise{
			"household":      1_200_000,
			"farming_inputs": 950_050,
		},
		NetSavings:     800_000,
		SavingsRateBps: 1777,
		EventCount:     3,
		EventImpact:    432_109,
		DecisionCount:  5,
		Points:         64,
		FinalCash:      678_900,
	}

	var buf bytes.Buffer
	renderSummary(&buf, y)

	g := goldie.New(t)
	g.Assert(t, "summary_text", buf.Bytes())
}

func TestRenderStatus_CoverAbsorption(t *testing.T) {
	state := sim.Simulation{
		ID:         "sim-0001",
		Crop:       "wheat",
		Region:     "punjab",
		Status:     sim.StatusActive,
		Period:     5,
		YearLength: 12,
		Processed:  4,
		Events: []risk.Event{
			{RawImpact: 500_000, MitigatedImpact: 300_000},
			{RawImpact: 200_000, MitigatedImpact: 200_000},
		},
	}

	var buf bytes.Buffer
	renderStatus(&buf, state, engine.SyncStatus{QueuedActions: 1})

	assert.Contains(t, buf.String(), "2 realized, ₹2,000.00 absorbed by cover")
}

func TestExitCodes(t *testing.T) {
	plain := assert.AnError
	assert.Equal(t, ExitFailure, GetExitCode(plain))

	cmdErr := NewExitError(ExitCommandError, "bad flag")
	assert.Equal(t, ExitCommandError, GetExitCode(cmdErr))

	wrapped := WrapExitError(ExitFailure, "rejected", assert.AnError)
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, assert.AnError)
}
