package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/content"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/risk"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/store"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/syncq"
)

// ErrSimulationNotFound is returned for an unknown simulation id.
var ErrSimulationNotFound = errors.New("simulation not found")

// ConflictRetention is how long resolved conflicts stay queryable
// before Reconcile purges them.
const ConflictRetention = 30 * 24 * time.Hour

// Engine coordinates simulations, durable storage, and the sync
// queue. Safe for concurrent use; see the package comment for the
// per-simulation serialization model.
type Engine struct {
	store    *store.Store
	provider content.Provider
	queue    *syncq.Queue
	ids      IDGenerator
	nowMS    func() int64

	mu   sync.Mutex
	sims map[string]*simEntry
}

// simEntry is one loaded simulation with its writer lock and logical
// clock. The clock resumes from the durable log's highest seq.
type simEntry struct {
	mu    sync.Mutex
	state *sim.Simulation
	clock *syncq.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator injects the id source (tests use FixedGenerator).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithNow injects the wall-clock source for client timestamps.
func WithNow(now func() int64) Option {
	return func(e *Engine) { e.nowMS = now }
}

// New creates an engine over a store and content provider, refilling
// the sync queue with every action the server has not yet
// acknowledged.
func New(ctx context.Context, s *store.Store, provider content.Provider, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    s,
		provider: provider,
		queue:    syncq.NewQueue(),
		ids:      UUIDv7Generator{},
		nowMS:    func() int64 { return time.Now().UnixMilli() },
		sims:     make(map[string]*simEntry),
	}
	for _, opt := range opts {
		opt(e)
	}

	pending, err := s.PendingActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("refill sync queue: %w", err)
	}
	for _, a := range pending {
		e.queue.Enqueue(a)
	}
	if len(pending) > 0 {
		slog.Info("sync queue refilled from log", "actions", len(pending))
	}

	return e, nil
}

// Queue exposes the sync queue for the background drainer.
func (e *Engine) Queue() *syncq.Queue { return e.queue }

// HandleApplied archives a server-acknowledged action durably. Wire
// it as the drainer's OnApplied callback.
func (e *Engine) HandleApplied(a syncq.Action) {
	ctx := context.Background()
	if err := e.store.MarkActionApplied(ctx, a, e.nowMS()); err != nil {
		slog.Error("failed to archive applied action", "action_id", a.ID, "error", err)
	}
}

// StartNewYear creates and persists a fresh simulation, recording the
// start as the first sync action.
func (e *Engine) StartNewYear(ctx context.Context, cfg sim.Config) (sim.Simulation, error) {
	id := e.ids.Generate()
	state, err := sim.StartNewYear(id, cfg, e.provider)
	if err != nil {
		return sim.Simulation{}, err
	}

	entry := &simEntry{state: state, clock: syncq.NewClock()}
	e.mu.Lock()
	e.sims[id] = entry
	e.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	err = e.record(ctx, entry, syncq.KindStart, syncq.PriorityHigh, syncq.Payload{
		Start: &syncq.StartPayload{
			OwnerID:    cfg.OwnerID,
			Crop:       cfg.Crop,
			Region:     cfg.Region,
			YearLength: state.YearLength,
			Seed:       cfg.Seed,
		},
	})
	if err != nil {
		return sim.Simulation{}, err
	}

	slog.Info("simulation started",
		"sim_id", id,
		"crop", state.Crop,
		"region", state.Region,
		"seed", state.Seed,
	)
	return state.GetState(), nil
}

// MakeDecision validates and applies a financial decision, recording
// it for sync on success. Rejections leave no trace in the log.
func (e *Engine) MakeDecision(ctx context.Context, simID string, d decision.Decision) (decision.Outcome, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return decision.Outcome{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	decisionID := e.ids.Generate()
	outcome, err := entry.state.MakeDecision(decisionID, d, e.nowMS())
	if err != nil {
		return decision.Outcome{}, err
	}

	applied := entry.state.Decisions[len(entry.state.Decisions)-1]
	err = e.record(ctx, entry, syncq.KindDecision, syncq.PriorityHigh, syncq.Payload{
		Decision: &syncq.DecisionPayload{
			DecisionID: applied.ID,
			Kind:       applied.Kind,
			Amount:     applied.Amount,
			Category:   applied.Category,
			Cover:      applied.Cover,
			ClientTS:   applied.ClientTS,
		},
	})
	if err != nil {
		return decision.Outcome{}, err
	}
	return outcome, nil
}

// UndoDecision reverses the most recent decision of the current
// period. If the decision's sync action is still pending it is
// withdrawn outright; once it has synced, a compensating undo action
// is recorded instead.
func (e *Engine) UndoDecision(ctx context.Context, simID string) (decision.Applied, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return decision.Applied{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	undone, err := entry.state.UndoDecision()
	if err != nil {
		return decision.Applied{}, err
	}

	if actionID, ok := e.pendingDecisionAction(undone.ID); ok && e.queue.Withdraw(actionID) {
		if err := e.store.DeleteAction(ctx, actionID); err != nil {
			return decision.Applied{}, fmt.Errorf("withdraw synced action: %w", err)
		}
		if err := e.persist(ctx, entry); err != nil {
			return decision.Applied{}, err
		}
		slog.Info("decision undone, pending action withdrawn",
			"sim_id", simID, "decision_id", undone.ID, "action_id", actionID)
		return undone, nil
	}

	err = e.record(ctx, entry, syncq.KindUndo, syncq.PriorityHigh, syncq.Payload{
		Undo: &syncq.UndoPayload{DecisionID: undone.ID},
	})
	if err != nil {
		return decision.Applied{}, err
	}
	slog.Info("decision undone, compensating action queued",
		"sim_id", simID, "decision_id", undone.ID)
	return undone, nil
}

// AdvanceTime processes the given number of periods, clamped at year
// end, and records the advance for sync.
func (e *Engine) AdvanceTime(ctx context.Context, simID string, periods int) (sim.Simulation, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return sim.Simulation{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.state.AdvanceTime(periods); err != nil {
		return sim.Simulation{}, err
	}

	err = e.record(ctx, entry, syncq.KindAdvance, syncq.PriorityNormal, syncq.Payload{
		Advance: &syncq.AdvancePayload{Periods: periods},
	})
	if err != nil {
		return sim.Simulation{}, err
	}
	return entry.state.GetState(), nil
}

// TriggerRiskEvent realizes one extra event from the year's remaining
// budget.
func (e *Engine) TriggerRiskEvent(ctx context.Context, simID string) (risk.Event, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return risk.Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	event, err := entry.state.TriggerRiskEvent()
	if err != nil {
		return risk.Event{}, err
	}

	err = e.record(ctx, entry, syncq.KindTrigger, syncq.PriorityNormal, syncq.Payload{
		Trigger: &syncq.TriggerPayload{},
	})
	if err != nil {
		return risk.Event{}, err
	}
	return event, nil
}

// CompleteYear transitions a fully processed simulation to completed
// and persists the summary. Idempotent: completing a completed year
// returns the stored summary without recording anything new.
func (e *Engine) CompleteYear(ctx context.Context, simID string) (sim.YearSummary, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return sim.YearSummary{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	alreadyDone := entry.state.Status == sim.StatusCompleted
	summary, err := entry.state.CompleteYear()
	if err != nil {
		return sim.YearSummary{}, err
	}
	if alreadyDone {
		return summary, nil
	}

	if err := e.store.SaveSummary(ctx, simID, &summary, e.nowMS()); err != nil {
		return sim.YearSummary{}, err
	}
	err = e.record(ctx, entry, syncq.KindComplete, syncq.PriorityCritical, syncq.Payload{
		Complete: &syncq.CompletePayload{},
	})
	if err != nil {
		return sim.YearSummary{}, err
	}

	slog.Info("year completed",
		"sim_id", simID,
		"points", summary.Points,
		"net_savings", int64(summary.NetSavings),
	)
	return summary, nil
}

// GetState returns a deep copy of the simulation state.
func (e *Engine) GetState(ctx context.Context, simID string) (sim.Simulation, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return sim.Simulation{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.GetState(), nil
}

// SyncStatus describes the sync backlog for status queries.
type SyncStatus struct {
	QueuedActions int    `json:"queued_actions"`
	FailedActions int    `json:"failed_actions"`
	LastSeq       int64  `json:"last_seq"`
	StateChecksum string `json:"state_checksum"`
}

// GetSyncStatus reports the backlog and the simulation's current
// logical position.
func (e *Engine) GetSyncStatus(ctx context.Context, simID string) (SyncStatus, error) {
	entry, err := e.entry(ctx, simID)
	if err != nil {
		return SyncStatus{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	checksum, err := entry.state.Checksum()
	if err != nil {
		return SyncStatus{}, err
	}
	pending, failed := e.queue.Stats()
	return SyncStatus{
		QueuedActions: pending,
		FailedActions: failed,
		LastSeq:       entry.clock.Current(),
		StateChecksum: checksum,
	}, nil
}

// Reconcile merges server field changes into the local view under the
// field-class policy, persisting every conflict for the audit window
// and purging records older than ConflictRetention.
func (e *Engine) Reconcile(ctx context.Context, simID string, local, server []syncq.FieldChange, ancestorTS int64) (syncq.Resolution, error) {
	if _, err := e.entry(ctx, simID); err != nil {
		return syncq.Resolution{}, err
	}

	now := e.nowMS()
	res, err := syncq.Reconcile(simID, local, server, ancestorTS, now)
	if err != nil {
		return syncq.Resolution{}, err
	}

	for _, c := range res.Conflicts {
		if err := e.store.SaveConflict(ctx, c); err != nil {
			return syncq.Resolution{}, err
		}
		slog.Warn("sync conflict resolved",
			"sim_id", simID,
			"path", c.Path,
			"policy", string(c.Policy),
		)
	}

	cutoff := now - ConflictRetention.Milliseconds()
	if _, err := e.store.PurgeConflictsBefore(ctx, cutoff); err != nil {
		return syncq.Resolution{}, err
	}
	return res, nil
}

// entry returns the loaded simulation, fetching it from the store on
// first access. The clock resumes from the log's highest seq.
func (e *Engine) entry(ctx context.Context, simID string) (*simEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.sims[simID]; ok {
		return entry, nil
	}

	state, _, _, err := e.store.LoadSimulation(ctx, simID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSimulationNotFound, simID)
	}
	if err != nil {
		return nil, err
	}
	seq, err := e.store.LastSeq(ctx, simID)
	if err != nil {
		return nil, err
	}

	entry := &simEntry{state: state, clock: syncq.NewClockAt(seq)}
	e.sims[simID] = entry
	return entry, nil
}

// record stamps, persists, and enqueues the sync action for a
// mutation that already succeeded, then saves the snapshot cache.
// Caller holds the entry lock.
func (e *Engine) record(ctx context.Context, entry *simEntry, kind syncq.Kind, priority syncq.Priority, payload syncq.Payload) error {
	checksum, err := entry.state.Checksum()
	if err != nil {
		return err
	}

	a := syncq.Action{
		ID:            e.ids.Generate(),
		SimID:         entry.state.ID,
		Seq:           entry.clock.Next(),
		Kind:          kind,
		Payload:       payload,
		ClientTS:      e.nowMS(),
		Priority:      priority,
		Status:        syncq.StatusPending,
		StateChecksum: checksum,
	}

	if _, err := e.store.AppendAction(ctx, a); err != nil {
		return err
	}
	e.queue.Enqueue(a)

	return e.persistWithChecksum(ctx, entry, checksum)
}

// persist saves the snapshot cache for the entry's current state.
func (e *Engine) persist(ctx context.Context, entry *simEntry) error {
	checksum, err := entry.state.Checksum()
	if err != nil {
		return err
	}
	return e.persistWithChecksum(ctx, entry, checksum)
}

func (e *Engine) persistWithChecksum(ctx context.Context, entry *simEntry, checksum string) error {
	return e.store.SaveSimulation(ctx, entry.state, entry.clock.Current(), checksum, e.nowMS())
}

// pendingDecisionAction finds the queued, still-pending sync action
// that recorded the given decision.
func (e *Engine) pendingDecisionAction(decisionID string) (string, bool) {
	for _, a := range e.queue.Snapshot() {
		if a.Status != syncq.StatusPending {
			continue
		}
		if a.Payload.Decision != nil && a.Payload.Decision.DecisionID == decisionID {
			return a.ID, true
		}
	}
	return "", false
}
