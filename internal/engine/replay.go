package engine

import (
	"context"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/syncq"
)

// Replay is structural: the same simulation methods that ran the
// first time run again, in log order, from the same seed. Determinism
// of the core (seeded sub-streams, integer money, closed-form
// compounding) guarantees the same states fall out; the per-action
// state checksums prove it did.

// Rebuild reconstructs a simulation purely from its durable action
// log, verifying the recorded checksum after every step. A mismatch
// means the log and the code disagree about history and is returned
// as a consistency failure without touching the loaded simulation.
func (e *Engine) Rebuild(ctx context.Context, simID string) (sim.Simulation, error) {
	actions, err := e.store.ActionsForSim(ctx, simID)
	if err != nil {
		return sim.Simulation{}, err
	}
	if len(actions) == 0 {
		return sim.Simulation{}, fmt.Errorf("%w: %s", ErrSimulationNotFound, simID)
	}

	first := actions[0]
	if first.Payload.Start == nil {
		return sim.Simulation{}, fmt.Errorf("rebuild %s: log does not begin with a start action", simID)
	}
	p := first.Payload.Start
	state, err := sim.StartNewYear(simID, sim.Config{
		OwnerID:    p.OwnerID,
		Crop:       p.Crop,
		Region:     p.Region,
		YearLength: p.YearLength,
		Seed:       p.Seed,
	}, e.provider)
	if err != nil {
		return sim.Simulation{}, fmt.Errorf("rebuild %s: %w", simID, err)
	}
	if err := verifyStep(state, first); err != nil {
		return sim.Simulation{}, err
	}

	for _, a := range actions[1:] {
		if err := replayAction(state, a); err != nil {
			return sim.Simulation{}, fmt.Errorf("rebuild %s at seq %d: %w", simID, a.Seq, err)
		}
		if err := verifyStep(state, a); err != nil {
			return sim.Simulation{}, err
		}
	}

	return state.GetState(), nil
}

// VerifyAgainstLog rebuilds from the log and compares the result with
// the simulation's current checksum. Used at load time to prove the
// snapshot cache and the log describe the same history.
func (e *Engine) VerifyAgainstLog(ctx context.Context, simID string) error {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	current, err := entry.state.Checksum()
	entry.mu.Unlock()
	if err != nil {
		return err
	}

	rebuilt, err := e.Rebuild(ctx, simID)
	if err != nil {
		return err
	}
	replayed, err := rebuilt.Checksum()
	if err != nil {
		return err
	}
	if replayed != current {
		return fmt.Errorf("simulation %s diverged from its log: snapshot %s, replay %s",
			simID, current, replayed)
	}
	return nil
}

func replayAction(state *sim.Simulation, a syncq.Action) error {
	switch {
	case a.Payload.Decision != nil:
		p := a.Payload.Decision
		d, err := decisionFromPayload(p)
		if err != nil {
			return err
		}
		_, err = state.MakeDecision(p.DecisionID, d, p.ClientTS)
		return err
	case a.Payload.Advance != nil:
		return state.AdvanceTime(a.Payload.Advance.Periods)
	case a.Payload.Undo != nil:
		_, err := state.UndoDecision()
		return err
	case a.Payload.Trigger != nil:
		_, err := state.TriggerRiskEvent()
		return err
	case a.Payload.Complete != nil:
		_, err := state.CompleteYear()
		return err
	case a.Payload.Start != nil:
		return fmt.Errorf("second start action %s", a.ID)
	default:
		return fmt.Errorf("action %s has an empty payload", a.ID)
	}
}

// decisionFromPayload inverts the flattening done when the decision
// was recorded.
func decisionFromPayload(p *syncq.DecisionPayload) (decision.Decision, error) {
	switch p.Kind {
	case decision.KindExpense:
		return decision.Expense{Amount: p.Amount, Category: p.Category}, nil
	case decision.KindSaving:
		return decision.Saving{Amount: p.Amount}, nil
	case decision.KindInvestment:
		return decision.Investment{Amount: p.Amount, Product: p.Category}, nil
	case decision.KindInsurance:
		return decision.Insurance{Premium: p.Amount, Cover: p.Cover}, nil
	case decision.KindLoan:
		return decision.Loan{Amount: p.Amount}, nil
	default:
		return nil, fmt.Errorf("unknown decision kind %q", p.Kind)
	}
}

func verifyStep(state *sim.Simulation, a syncq.Action) error {
	if a.StateChecksum == "" {
		return nil
	}
	got, err := state.Checksum()
	if err != nil {
		return err
	}
	if got != a.StateChecksum {
		return fmt.Errorf("replay of action %s (seq %d) produced checksum %s, log recorded %s",
			a.ID, a.Seq, got, a.StateChecksum)
	}
	return nil
}
