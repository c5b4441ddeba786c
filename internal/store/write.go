package store

import (
	"context"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/syncq"
)

// SaveSimulation upserts the snapshot cache row for a simulation.
// The row is derivable from the sync log, so overwriting is safe; the
// checksum lets a reload verify the cache against a log replay.
func (s *Store) SaveSimulation(ctx context.Context, simState *sim.Simulation, seq int64, checksum string, now int64) error {
	stateJSON, err := marshalState(simState)
	if err != nil {
		return fmt.Errorf("save simulation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulations
		(id, owner_id, crop, region, status, seed, seq, state, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			seq = excluded.seq,
			state = excluded.state,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`,
		simState.ID,
		simState.OwnerID,
		simState.Crop,
		simState.Region,
		string(simState.Status),
		simState.Seed,
		seq,
		stateJSON,
		checksum,
		now,
	)
	if err != nil {
		return fmt.Errorf("save simulation: %w", err)
	}

	return nil
}

// AppendAction inserts a sync action into the append-only log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the
// same action twice after a crash is silently ignored. Reports
// whether a new row was inserted.
func (s *Store) AppendAction(ctx context.Context, a syncq.Action) (bool, error) {
	payloadJSON, err := marshalPayload(a.Payload)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_log
		(id, sim_id, seq, kind, payload, client_ts, priority, status, attempts, state_checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		a.ID,
		a.SimID,
		a.Seq,
		string(a.Kind),
		payloadJSON,
		a.ClientTS,
		int(a.Priority),
		string(a.Status),
		a.Attempts,
		a.StateChecksum,
	)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append action: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// UpdateActionStatus records a status change for a logged action
// (pending → syncing → failed, and attempt counts).
func (s *Store) UpdateActionStatus(ctx context.Context, id string, status syncq.Status, attempts int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_log SET status = ?, attempts = ? WHERE id = ?
	`, string(status), attempts, id)
	if err != nil {
		return fmt.Errorf("update action status: %w", err)
	}
	return nil
}

// MarkActionApplied archives a server-acknowledged action: the log
// row flips to applied and the id lands in applied_actions so a
// duplicate enqueue stays a no-op across restarts. Atomic.
func (s *Store) MarkActionApplied(ctx context.Context, a syncq.Action, now int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mark applied: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE sync_log SET status = ? WHERE id = ?
	`, string(syncq.StatusApplied), a.ID); err != nil {
		return fmt.Errorf("mark applied: update log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO applied_actions (id, sim_id, applied_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, a.SimID, now); err != nil {
		return fmt.Errorf("mark applied: archive: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mark applied: commit: %w", err)
	}
	return nil
}

// DeleteAction removes a withdrawn action from the log. Legal only
// for actions that never synced; the engine enforces that.
func (s *Store) DeleteAction(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_log WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	return nil
}

// SaveConflict records a resolved conflict for the audit window.
// Content-addressed ids make duplicate writes no-ops.
func (s *Store) SaveConflict(ctx context.Context, c syncq.ConflictRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conflicts
		(id, sim_id, path, local_value, local_ts, server_value, server_ts, policy, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.SimID,
		c.Path,
		c.Local.Value,
		c.Local.TS,
		c.Server.Value,
		c.Server.TS,
		string(c.Policy),
		c.Resolved,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save conflict: %w", err)
	}
	return nil
}

// PurgeConflictsBefore deletes conflict records older than the cutoff
// (unix milliseconds). Returns the number purged.
func (s *Store) PurgeConflictsBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM conflicts WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge conflicts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge conflicts: rows affected: %w", err)
	}
	return n, nil
}

// SaveSummary stores the year-end summary for a completed simulation.
// Completion is idempotent so the write is too.
func (s *Store) SaveSummary(ctx context.Context, simID string, summary *sim.YearSummary, now int64) error {
	summaryJSON, err := marshalSummary(summary)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO year_summaries (sim_id, summary, completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(sim_id) DO NOTHING
	`, simID, summaryJSON, now)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}
