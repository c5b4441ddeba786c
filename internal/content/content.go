// Package content loads the read-only region and crop tables the
// simulation runs against: event weights, harvest calendars,
// allocation product rates, expense shares, and crop economics.
//
// Tables are YAML documents validated against an embedded CUE schema
// before use. A malformed table is a configuration error fatal to
// simulation start only; it never affects already-running simulations,
// which hold their own immutable copy of the profile.
package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// DefaultRegion is the national fallback profile used when a requested
// region is unknown. Simulation start falls back to it rather than
// blocking.
const DefaultRegion = "national"

var (
	// ErrUnknownRegion is returned when a region has no profile.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrUnknownCrop is returned when a crop/region pair has no
	// economics entry.
	ErrUnknownCrop = errors.New("unknown crop for region")
)

// ExpenseCategories are the required spending categories. Every one of
// them draws a non-zero amount at least once per simulated year.
var ExpenseCategories = []string{"household", "farming_inputs", "education", "healthcare"}

// RegionProfile describes a region's risk and economic character.
// Immutable for the lifetime of any simulation that holds it.
type RegionProfile struct {
	Name           string           `yaml:"-"`
	EventWeights   map[string]int   `yaml:"event_weights"`
	HarvestPeriods []int            `yaml:"harvest_periods"`
	Rates          map[string]int64 `yaml:"rates"` // product category → bps per period
	ExpenseShares  map[string]int   `yaml:"expense_shares"`
}

// CropEconomics holds per-crop income and expense figures. Monetary
// fields are rupees in YAML and converted to paise on load.
type CropEconomics struct {
	OpeningCapital    money.Paise
	SeasonalIncome    money.Paise // per harvest period
	MonthlyExpenseMin money.Paise
	MonthlyExpenseMax money.Paise
}

type cropEntry struct {
	Regions           []string `yaml:"regions"`
	OpeningCapital    int64    `yaml:"opening_capital"`
	SeasonalIncome    int64    `yaml:"seasonal_income"`
	MonthlyExpenseMin int64    `yaml:"monthly_expense_min"`
	MonthlyExpenseMax int64    `yaml:"monthly_expense_max"`
}

type tables struct {
	Regions map[string]RegionProfile `yaml:"regions"`
	Crops   map[string]cropEntry     `yaml:"crops"`
}

// Provider is the contract the simulation consumes. The static
// implementation below serves embedded tables; a remote content
// service would satisfy the same interface.
type Provider interface {
	RegionProfile(region string) (RegionProfile, error)
	CropEconomics(crop, region string) (CropEconomics, error)
}

// StaticProvider serves validated, in-memory tables.
type StaticProvider struct {
	t tables
}

// LoadDefault parses and validates the embedded tables.
func LoadDefault() (*StaticProvider, error) {
	return load(defaultTablesYAML)
}

// LoadFile parses and validates tables from a YAML file on disk.
func LoadFile(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content tables: %w", err)
	}
	return load(data)
}

func load(data []byte) (*StaticProvider, error) {
	if err := validateTables(data); err != nil {
		return nil, err
	}

	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse content tables: %w", err)
	}
	for name, r := range t.Regions {
		r.Name = name
		t.Regions[name] = r
	}
	if _, ok := t.Regions[DefaultRegion]; !ok {
		return nil, fmt.Errorf("content tables: missing %q fallback region", DefaultRegion)
	}
	return &StaticProvider{t: t}, nil
}

// RegionProfile returns the profile for a region (case-insensitive).
// Unknown regions return ErrUnknownRegion; callers fall back to
// DefaultRegion rather than refusing to start.
func (p *StaticProvider) RegionProfile(region string) (RegionProfile, error) {
	r, ok := p.t.Regions[strings.ToLower(region)]
	if !ok {
		return RegionProfile{}, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return r, nil
}

// CropEconomics returns the economics for a crop grown in a region.
func (p *StaticProvider) CropEconomics(crop, region string) (CropEconomics, error) {
	c, ok := p.t.Crops[strings.ToLower(crop)]
	if !ok {
		return CropEconomics{}, fmt.Errorf("%w: crop %q", ErrUnknownCrop, crop)
	}
	region = strings.ToLower(region)
	grown := false
	for _, r := range c.Regions {
		if r == region {
			grown = true
			break
		}
	}
	if !grown {
		return CropEconomics{}, fmt.Errorf("%w: %q in %q", ErrUnknownCrop, crop, region)
	}
	return CropEconomics{
		OpeningCapital:    money.FromRupees(c.OpeningCapital),
		SeasonalIncome:    money.FromRupees(c.SeasonalIncome),
		MonthlyExpenseMin: money.FromRupees(c.MonthlyExpenseMin),
		MonthlyExpenseMax: money.FromRupees(c.MonthlyExpenseMax),
	}, nil
}
