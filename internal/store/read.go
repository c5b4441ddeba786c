package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/syncq"
)

// LoadSimulation retrieves a simulation snapshot with its stored seq
// and checksum. Returns sql.ErrNoRows if the id is unknown.
func (s *Store) LoadSimulation(ctx context.Context, id string) (*sim.Simulation, int64, string, error) {
	var (
		stateJSON string
		seq       int64
		checksum  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT state, seq, checksum FROM simulations WHERE id = ?
	`, id).Scan(&stateJSON, &seq, &checksum)
	if err != nil {
		return nil, 0, "", fmt.Errorf("load simulation: %w", err)
	}

	state, err := unmarshalState(stateJSON)
	if err != nil {
		return nil, 0, "", fmt.Errorf("load simulation: %w", err)
	}
	return state, seq, checksum, nil
}

// ListSimulationIDs returns ids for an owner, newest first by
// updated_at with id as the deterministic tiebreak.
func (s *Store) ListSimulationIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM simulations
		WHERE owner_id = ?
		ORDER BY updated_at DESC, id COLLATE BINARY ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan simulation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulations: %w", err)
	}
	return ids, nil
}

// ActionsForSim returns the full action log for a simulation in
// replay order: seq ASC, id ASC COLLATE BINARY. Every replay sees the
// identical sequence.
//
// Returns an empty slice (not nil) if no actions exist.
func (s *Store) ActionsForSim(ctx context.Context, simID string) ([]syncq.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sim_id, seq, kind, payload, client_ts, priority, status, attempts, state_checksum
		FROM sync_log
		WHERE sim_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, simID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// PendingActions returns every action not yet acknowledged by the
// server, across all simulations, in replay order. Used to refill the
// in-memory queue on startup.
func (s *Store) PendingActions(ctx context.Context) ([]syncq.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sim_id, seq, kind, payload, client_ts, priority, status, attempts, state_checksum
		FROM sync_log
		WHERE status != ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, string(syncq.StatusApplied))
	if err != nil {
		return nil, fmt.Errorf("query pending actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

func scanActions(rows *sql.Rows) ([]syncq.Action, error) {
	actions := []syncq.Action{}
	for rows.Next() {
		var (
			a           syncq.Action
			kind        string
			payloadJSON string
			priority    int
			status      string
		)
		err := rows.Scan(
			&a.ID,
			&a.SimID,
			&a.Seq,
			&kind,
			&payloadJSON,
			&a.ClientTS,
			&priority,
			&status,
			&a.Attempts,
			&a.StateChecksum,
		)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}

		a.Kind = syncq.Kind(kind)
		a.Priority = syncq.Priority(priority)
		a.Status = syncq.Status(status)
		a.Payload, err = unmarshalPayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("scan action %s: %w", a.ID, err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

// AppliedIDs returns the set of acknowledged action ids for a
// simulation, used to keep re-enqueues idempotent across restarts.
func (s *Store) AppliedIDs(ctx context.Context, simID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM applied_actions WHERE sim_id = ?
	`, simID)
	if err != nil {
		return nil, fmt.Errorf("query applied ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan applied id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied ids: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest logged sequence number for a simulation,
// 0 if none. The logical clock resumes from here on reload.
func (s *Store) LastSeq(ctx context.Context, simID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM sync_log WHERE sim_id = ?
	`, simID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// ConflictsForSim returns retained conflict records for a simulation,
// oldest first with id as the deterministic tiebreak.
func (s *Store) ConflictsForSim(ctx context.Context, simID string) ([]syncq.ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sim_id, path, local_value, local_ts, server_value, server_ts, policy, resolved, created_at
		FROM conflicts
		WHERE sim_id = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, simID)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	records := []syncq.ConflictRecord{}
	for rows.Next() {
		var (
			c      syncq.ConflictRecord
			policy string
		)
		err := rows.Scan(
			&c.ID,
			&c.SimID,
			&c.Path,
			&c.Local.Value,
			&c.Local.TS,
			&c.Server.Value,
			&c.Server.TS,
			&policy,
			&c.Resolved,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.Policy = syncq.Policy(policy)
		c.Local.Path = c.Path
		c.Server.Path = c.Path
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicts: %w", err)
	}
	return records, nil
}

// LoadSummary retrieves the stored year-end summary for a simulation.
// Returns sql.ErrNoRows if the year has not been completed.
func (s *Store) LoadSummary(ctx context.Context, simID string) (*sim.YearSummary, error) {
	var summaryJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT summary FROM year_summaries WHERE sim_id = ?
	`, simID).Scan(&summaryJSON)
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return unmarshalSummary(summaryJSON)
}
