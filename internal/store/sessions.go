package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LookRain/betabreak/internal/plan"
)

// InsertSession persists a concrete scheduled session.
// Uses ON CONFLICT(id) DO NOTHING for idempotency. The partial unique index
// on (rule_id, scheduled_for) additionally rejects a second concrete row for
// the same occurrence of a rule; callers that race on materialization should
// re-read after a constraint failure.
func (s *Store) InsertSession(ctx context.Context, sess *plan.ScheduledSession) error {
	snapJSON, err := marshalSnapshot(sess.Snapshot)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	overridesJSON, err := marshalVariables(sess.Overrides)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	var ruleID sql.NullString
	if sess.RuleID != "" {
		ruleID = sql.NullString{String: sess.RuleID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scheduled_sessions
		(id, owner_id, exercise_id, scheduled_for, rule_id, snapshot, overrides,
		 notes, completed_at, canceled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.OwnerID,
		sess.ExerciseID,
		sess.ScheduledFor.String(),
		ruleID,
		snapJSON,
		overridesJSON,
		sess.Notes,
		encodeTimePtr(sess.CompletedAt),
		encodeTimePtr(sess.CanceledAt),
		encodeTime(sess.CreatedAt),
		encodeTime(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given id, or a NOT_FOUND planner error.
func (s *Store) GetSession(ctx context.Context, id string) (*plan.ScheduledSession, error) {
	row := s.db.QueryRowContext(ctx, sessionSelect+` WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plan.EntityErrorf(plan.ErrCodeNotFound, id, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// FindRuleSession returns the concrete session for a (rule, date) pair, or
// nil if the occurrence has never been materialized or canceled.
func (s *Store) FindRuleSession(ctx context.Context, ruleID string, date plan.Date) (*plan.ScheduledSession, error) {
	row := s.db.QueryRowContext(ctx, sessionSelect+`
		WHERE rule_id = ? AND scheduled_for = ?
	`, ruleID, date.String())
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rule session: %w", err)
	}
	return sess, nil
}

// ListSessionsInRange returns the owner's concrete sessions with
// scheduled_for in [from, to], ordered by day then id.
func (s *Store) ListSessionsInRange(ctx context.Context, ownerID string, from, to plan.Date) ([]*plan.ScheduledSession, error) {
	rows, err := s.db.QueryContext(ctx, sessionSelect+`
		WHERE owner_id = ? AND scheduled_for >= ? AND scheduled_for <= ?
		ORDER BY scheduled_for ASC, id COLLATE BINARY ASC
	`, ownerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

// ListRuleSessionsFrom returns every concrete session belonging to a rule
// with scheduled_for on or after from, ordered by day then id. Cascading
// edits and deletes walk this set.
func (s *Store) ListRuleSessionsFrom(ctx context.Context, ruleID string, from plan.Date) ([]*plan.ScheduledSession, error) {
	rows, err := s.db.QueryContext(ctx, sessionSelect+`
		WHERE rule_id = ? AND scheduled_for >= ?
		ORDER BY scheduled_for ASC, id COLLATE BINARY ASC
	`, ruleID, from.String())
	if err != nil {
		return nil, fmt.Errorf("list rule sessions: %w", err)
	}
	return collectSessions(rows)
}

// UpdateSession persists the mutable fields of a session: day, overrides,
// notes and the completed/canceled markers.
func (s *Store) UpdateSession(ctx context.Context, sess *plan.ScheduledSession) error {
	overridesJSON, err := marshalVariables(sess.Overrides)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_sessions
		SET scheduled_for = ?, overrides = ?, notes = ?,
		    completed_at = ?, canceled_at = ?, updated_at = ?
		WHERE id = ?
	`,
		sess.ScheduledFor.String(),
		overridesJSON,
		sess.Notes,
		encodeTimePtr(sess.CompletedAt),
		encodeTimePtr(sess.CanceledAt),
		encodeTime(sess.UpdatedAt),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return plan.EntityErrorf(plan.ErrCodeNotFound, sess.ID, "session not found")
	}
	return nil
}

// DeleteSession removes a session row outright. Only one-off sessions are
// ever hard-deleted; rule-bound rows become exceptions instead.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

const sessionSelect = `
	SELECT id, owner_id, exercise_id, scheduled_for, rule_id, snapshot,
	       overrides, notes, completed_at, canceled_at, created_at, updated_at
	FROM scheduled_sessions
`

func collectSessions(rows *sql.Rows) ([]*plan.ScheduledSession, error) {
	defer rows.Close()

	sessions := []*plan.ScheduledSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (*plan.ScheduledSession, error) {
	var (
		sess          plan.ScheduledSession
		scheduledFor  string
		ruleID        sql.NullString
		snapJSON      string
		overridesJSON string
		completedAt   sql.NullString
		canceledAt    sql.NullString
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(
		&sess.ID, &sess.OwnerID, &sess.ExerciseID, &scheduledFor, &ruleID,
		&snapJSON, &overridesJSON, &sess.Notes, &completedAt, &canceledAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sess.ScheduledFor, err = plan.ParseDate(scheduledFor); err != nil {
		return nil, err
	}
	if ruleID.Valid {
		sess.RuleID = ruleID.String
	}
	if sess.Snapshot, err = unmarshalSnapshot(snapJSON); err != nil {
		return nil, err
	}
	if sess.Overrides, err = unmarshalVariables(overridesJSON); err != nil {
		return nil, err
	}
	if sess.CompletedAt, err = decodeTimePtr(completedAt); err != nil {
		return nil, err
	}
	if sess.CanceledAt, err = decodeTimePtr(canceledAt); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if sess.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &sess, nil
}
