package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/content"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/engine"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/store"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/testutil"
)

// TraceEvent is one executed operation as it appears in the trace.
// Fields are limited to what is stable across runs: sequence, the op,
// the decision kind for decide steps, and how the engine answered.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Detail  string `json:"detail,omitempty"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step met its expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists executed operations in order, the start included.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the simulation state after the last step.
	Final sim.Simulation `json:"-"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

func (r *Result) addTrace(op, detail, outcome, code string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     len(r.Trace) + 1,
		Op:      op,
		Detail:  detail,
		Outcome: outcome,
		Code:    code,
	})
}

// Run executes a scenario against a fresh engine and evaluates its
// assertions. The database at dbPath is created on the fly; callers
// pass a path inside a temp directory.
//
// Ids come from a sequential generator and timestamps from a counter,
// so a scenario's trace and final state depend only on the file and
// the configured seed.
func Run(ctx context.Context, scenario *Scenario, dbPath string) (*Result, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, err := content.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	var ts int64
	eng, err := engine.New(ctx, st, provider,
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		engine.WithNow(func() int64 { ts++; return ts }),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	result := NewResult()

	state, err := eng.StartNewYear(ctx, sim.Config{
		OwnerID:    scenario.Config.Owner,
		Crop:       scenario.Config.Crop,
		Region:     scenario.Config.Region,
		Seed:       scenario.Config.Seed,
		YearLength: scenario.Config.YearLength,
	})
	if err != nil {
		result.AddError(fmt.Sprintf("start: %v", err))
		return result, nil
	}
	result.addTrace("start", "", "ok", "")
	simID := state.ID

	for i, step := range scenario.Steps {
		if !executeStep(ctx, eng, simID, i, step, result) {
			break
		}
	}

	final, err := eng.GetState(ctx, simID)
	if err != nil {
		result.AddError(fmt.Sprintf("final state: %v", err))
		return result, nil
	}
	result.Final = final

	evaluateAssertions(result, scenario.Assertions, final)
	return result, nil
}

// executeStep runs one step and records its trace event. It returns
// false when the scenario cannot meaningfully continue.
func executeStep(ctx context.Context, eng *engine.Engine, simID string, index int, step Step, result *Result) bool {
	var err error
	detail := ""

	switch step.Op {
	case "decide":
		detail = step.Decision
		var d decision.Decision
		d, err = buildDecision(step)
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", index, err))
			return false
		}
		_, err = eng.MakeDecision(ctx, simID, d)
	case "advance":
		periods := step.Periods
		if periods == 0 {
			periods = 1
		}
		_, err = eng.AdvanceTime(ctx, simID, periods)
	case "trigger":
		_, err = eng.TriggerRiskEvent(ctx, simID)
	case "undo":
		_, err = eng.UndoDecision(ctx, simID)
	case "complete":
		_, err = eng.CompleteYear(ctx, simID)
	}

	if err == nil {
		result.addTrace(step.Op, detail, "ok", "")
		if step.Expect != nil && step.Expect.Outcome != "ok" {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected rejection %s, but it succeeded",
				index, step.Op, step.Expect.Code))
		}
		return true
	}

	var se *sim.Error
	if !errors.As(err, &se) || se.Class == sim.ClassConsistency {
		result.AddError(fmt.Sprintf("steps[%d] %s: %v", index, step.Op, err))
		return false
	}

	// A classified rejection. Legal when the scenario expected it.
	result.addTrace(step.Op, detail, "rejected", se.Code)
	if step.Expect == nil || step.Expect.Outcome != "rejected" {
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected rejection %s: %s",
			index, step.Op, se.Code, se.Message))
		return false
	}
	if step.Expect.Code != "" && step.Expect.Code != se.Code {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected rejection %s, got %s",
			index, step.Op, step.Expect.Code, se.Code))
	}
	return true
}

func buildDecision(step Step) (decision.Decision, error) {
	amount := money.FromRupees(step.Amount)
	switch step.Decision {
	case "expense":
		return decision.Expense{Amount: amount, Category: step.Category}, nil
	case "save":
		return decision.Saving{Amount: amount}, nil
	case "invest":
		return decision.Investment{Amount: amount, Product: step.Product}, nil
	case "insure":
		return decision.Insurance{Premium: amount, Cover: money.FromRupees(step.Cover)}, nil
	case "loan":
		return decision.Loan{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown decision kind %q", step.Decision)
	}
}
