package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

func TestLoadDefault(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err, "embedded tables must validate against the schema")

	r, err := p.RegionProfile("punjab")
	require.NoError(t, err)
	assert.Equal(t, "punjab", r.Name)
	assert.Greater(t, r.EventWeights["natural_disaster"], r.EventWeights["market_crash"],
		"flood-prone region weights natural disasters higher")
	assert.NotEmpty(t, r.HarvestPeriods)

	// Every required expense category must have a share
	for _, cat := range ExpenseCategories {
		assert.Greater(t, r.ExpenseShares[cat], 0, "category %s", cat)
	}
}

func TestRegionProfile_Unknown(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err)

	_, err = p.RegionProfile("atlantis")
	assert.ErrorIs(t, err, ErrUnknownRegion)

	// The fallback profile always exists
	_, err = p.RegionProfile(DefaultRegion)
	assert.NoError(t, err)
}

func TestCropEconomics(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err)

	c, err := p.CropEconomics("wheat", "punjab")
	require.NoError(t, err)
	assert.Equal(t, money.FromRupees(20000), c.OpeningCapital)
	assert.Equal(t, money.FromRupees(45000), c.SeasonalIncome)
	assert.Greater(t, c.MonthlyExpenseMax, c.MonthlyExpenseMin)
}

func TestCropEconomics_UnknownPairs(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err)

	_, err = p.CropEconomics("saffron", "punjab")
	assert.ErrorIs(t, err, ErrUnknownCrop)

	// Wheat is not grown in vidarbha in the default tables
	_, err = p.CropEconomics("wheat", "vidarbha")
	assert.ErrorIs(t, err, ErrUnknownCrop)
}

func TestValidate_RejectsMalformedTables(t *testing.T) {
	cases := map[string]string{
		"negative income": `
regions:
  national:
    event_weights: {pest_attack: 1}
    harvest_periods: [4]
    rates: {fixed_deposit: 55}
    expense_shares: {household: 40, farming_inputs: 35, education: 15, healthcare: 10}
crops:
  wheat:
    regions: [national]
    opening_capital: 20000
    seasonal_income: -5
    monthly_expense_min: 100
    monthly_expense_max: 200
`,
		"missing expense share": `
regions:
  national:
    event_weights: {pest_attack: 1}
    harvest_periods: [4]
    rates: {fixed_deposit: 55}
    expense_shares: {household: 40}
crops:
  wheat:
    regions: [national]
    opening_capital: 20000
    seasonal_income: 45000
    monthly_expense_min: 100
    monthly_expense_max: 200
`,
		"harvest period out of range": `
regions:
  national:
    event_weights: {pest_attack: 1}
    harvest_periods: [13]
    rates: {fixed_deposit: 55}
    expense_shares: {household: 40, farming_inputs: 35, education: 15, healthcare: 10}
crops:
  wheat:
    regions: [national]
    opening_capital: 20000
    seasonal_income: 45000
    monthly_expense_min: 100
    monthly_expense_max: 200
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_RequiresFallbackRegion(t *testing.T) {
	doc := `
regions:
  punjab:
    event_weights: {pest_attack: 1}
    harvest_periods: [4]
    rates: {fixed_deposit: 55}
    expense_shares: {household: 40, farming_inputs: 35, education: 15, healthcare: 10}
crops:
  wheat:
    regions: [punjab]
    opening_capital: 20000
    seasonal_income: 45000
    monthly_expense_min: 100
    monthly_expense_max: 200
`
	_, err := load([]byte(doc))
	assert.ErrorContains(t, err, "fallback region")
}
