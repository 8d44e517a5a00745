package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LookRain/betabreak/internal/plan"
)

// InsertLog persists a new execution log (without steps).
// Uses ON CONFLICT(id) DO NOTHING for idempotency. The partial unique index
// on execution_logs(session_id) WHERE status='active' enforces the
// one-active-log-per-session invariant at the storage layer.
func (s *Store) InsertLog(ctx context.Context, log *plan.ExecutionLog) error {
	plannedJSON, err := json.Marshal(log.Planned)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_logs
		(id, session_id, owner_id, status, planned, notes, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		log.ID,
		log.SessionID,
		log.OwnerID,
		string(log.Status),
		string(plannedJSON),
		log.Notes,
		encodeTime(log.StartedAt),
		encodeTimePtr(log.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// GetLog returns a log with its full ordered step sequence, or a NOT_FOUND
// planner error.
func (s *Store) GetLog(ctx context.Context, id string) (*plan.ExecutionLog, error) {
	row := s.db.QueryRowContext(ctx, logSelect+` WHERE id = ?`, id)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plan.EntityErrorf(plan.ErrCodeNotFound, id, "execution log not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	if log.Steps, err = s.readSteps(ctx, id); err != nil {
		return nil, err
	}
	return log, nil
}

// FindActiveLog returns the session's active log with steps, or nil when the
// session has no execution in flight.
func (s *Store) FindActiveLog(ctx context.Context, sessionID string) (*plan.ExecutionLog, error) {
	row := s.db.QueryRowContext(ctx, logSelect+`
		WHERE session_id = ? AND status = 'active'
	`, sessionID)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active log: %w", err)
	}
	if log.Steps, err = s.readSteps(ctx, log.ID); err != nil {
		return nil, err
	}
	return log, nil
}

// AppendStep appends one step to an active log. The append is transactional:
// the next index is read and the row inserted under the same transaction, so
// concurrent appends to one log serialize cleanly. Appending to a sealed log
// is an IMMUTABLE_STATE error.
func (s *Store) AppendStep(ctx context.Context, logID string, step plan.Step) (idx int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append step: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM execution_logs WHERE id = ?`, logID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, plan.EntityErrorf(plan.ErrCodeNotFound, logID, "execution log not found")
	}
	if err != nil {
		return 0, fmt.Errorf("append step: %w", err)
	}
	if plan.LogStatus(status) != plan.LogActive {
		return 0, plan.EntityErrorf(plan.ErrCodeImmutableState, logID, "log is %s, steps may only be appended while active", status)
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(idx), -1) + 1 FROM execution_steps WHERE log_id = ?
	`, logID).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("append step: next idx: %w", err)
	}

	var repNumber sql.NullInt64
	if step.RepNumber > 0 {
		repNumber = sql.NullInt64{Int64: int64(step.RepNumber), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO execution_steps
		(log_id, idx, kind, set_number, rep_number, planned_seconds, actual_ms, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		logID, idx, string(step.Kind), step.SetNumber, repNumber,
		step.PlannedSeconds, step.ActualMs, step.Note, encodeTime(step.RecordedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append step: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append step: commit: %w", err)
	}
	return idx, nil
}

// SealLog transitions an active log to a terminal status. Sealing an already
// sealed log is a no-op and reports sealed=false, so double-finish is safe.
func (s *Store) SealLog(ctx context.Context, logID string, status plan.LogStatus, notes string, finishedAt string) (sealed bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE execution_logs
		SET status = ?, notes = CASE WHEN ? != '' THEN ? ELSE notes END, finished_at = ?
		WHERE id = ? AND status = 'active'
	`, string(status), notes, notes, finishedAt, logID)
	if err != nil {
		return false, fmt.Errorf("seal log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seal log: %w", err)
	}
	return n > 0, nil
}

const logSelect = `
	SELECT id, session_id, owner_id, status, planned, notes, started_at, finished_at
	FROM execution_logs
`

func scanLog(row rowScanner) (*plan.ExecutionLog, error) {
	var (
		log         plan.ExecutionLog
		status      string
		plannedJSON string
		startedAt   string
		finishedAt  sql.NullString
	)
	err := row.Scan(&log.ID, &log.SessionID, &log.OwnerID, &status, &plannedJSON, &log.Notes, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	log.Status = plan.LogStatus(status)
	if err := json.Unmarshal([]byte(plannedJSON), &log.Planned); err != nil {
		return nil, fmt.Errorf("unmarshal planned: %w", err)
	}
	if log.StartedAt, err = decodeTime(startedAt); err != nil {
		return nil, err
	}
	if log.FinishedAt, err = decodeTimePtr(finishedAt); err != nil {
		return nil, err
	}
	return &log, nil
}

// readSteps returns the log's steps in append order.
func (s *Store) readSteps(ctx context.Context, logID string) ([]plan.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, set_number, rep_number, planned_seconds, actual_ms, note, recorded_at
		FROM execution_steps
		WHERE log_id = ?
		ORDER BY idx ASC
	`, logID)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	defer rows.Close()

	steps := []plan.Step{}
	for rows.Next() {
		var (
			step       plan.Step
			kind       string
			repNumber  sql.NullInt64
			recordedAt string
		)
		if err := rows.Scan(&kind, &step.SetNumber, &repNumber, &step.PlannedSeconds, &step.ActualMs, &step.Note, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Kind = plan.StepKind(kind)
		if repNumber.Valid {
			step.RepNumber = int(repNumber.Int64)
		}
		if step.RecordedAt, err = decodeTime(recordedAt); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}
