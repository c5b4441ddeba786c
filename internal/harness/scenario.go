package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML-defined run of a simulated year.
type Scenario struct {
	// Name uniquely identifies the scenario. It doubles as the golden
	// file name for trace comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config describes the year to start. The start itself becomes
	// the first trace event.
	Config ScenarioConfig `yaml:"config"`

	// Steps drive the year after the start, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig mirrors sim.Config in scenario-friendly form.
type ScenarioConfig struct {
	Owner      string `yaml:"owner"`
	Crop       string `yaml:"crop"`
	Region     string `yaml:"region"`
	Seed       int64  `yaml:"seed"`
	YearLength int    `yaml:"year_length,omitempty"`
}

// Step is a single engine operation.
type Step struct {
	// Op is one of decide, advance, trigger, undo, complete.
	Op string `yaml:"op"`

	// Decision fields, used when Op is "decide". Amount and Cover are
	// rupees; Amount is the premium for insurance decisions.
	Decision string `yaml:"decision,omitempty"`
	Amount   int64  `yaml:"amount,omitempty"`
	Category string `yaml:"category,omitempty"`
	Product  string `yaml:"product,omitempty"`
	Cover    int64  `yaml:"cover,omitempty"`

	// Periods to advance, used when Op is "advance". Defaults to 1.
	Periods int `yaml:"periods,omitempty"`

	// Expect specifies the required outcome. Nil means the step must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is the required outcome of a step.
type ExpectClause struct {
	// Outcome is "ok" or "rejected".
	Outcome string `yaml:"outcome"`

	// Code is the required reason code for a rejection, e.g.
	// "INSUFFICIENT_FUNDS". Empty accepts any rejection.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates the trace or the final simulation state.
type Assertion struct {
	Type string `yaml:"type"`

	// Op and Decision select trace events (trace_contains, trace_count).
	Op       string `yaml:"op,omitempty"`
	Decision string `yaml:"decision,omitempty"`

	// Count is the required number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the required order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Expect maps final-state field names to required values
	// (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type names.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

var stepOps = map[string]bool{
	"decide":   true,
	"advance":  true,
	"trigger":  true,
	"undo":     true,
	"complete": true,
}

var finalStateKeys = map[string]bool{
	"status":     true,
	"period":     true,
	"processed":  true,
	"points":     true,
	"decisions":  true,
	"events":     true,
	"cash_paise": true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo fails loudly instead of silently skipping
// an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.Owner == "" || s.Config.Crop == "" {
		return fmt.Errorf("config.owner and config.crop are required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(&a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	if !stepOps[step.Op] {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Op == "decide" && step.Decision == "" {
		return fmt.Errorf("decide needs a decision kind")
	}
	if step.Op != "decide" && step.Decision != "" {
		return fmt.Errorf("decision is only valid on decide steps")
	}
	if step.Expect != nil {
		switch step.Expect.Outcome {
		case "ok", "rejected":
		default:
			return fmt.Errorf("expect.outcome must be ok or rejected, got %q", step.Expect.Outcome)
		}
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("trace_contains needs op")
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("trace_order needs ops")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("trace_count needs op")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count count must be non-negative")
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("final_state needs expect")
		}
		for key := range a.Expect {
			if !finalStateKeys[key] {
				return fmt.Errorf("final_state key %q is not supported", key)
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
