package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LookRain/betabreak/internal/plan"
)

// InsertRule persists a new recurrence rule.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - inserting the same rule
// twice is a no-op.
func (s *Store) InsertRule(ctx context.Context, rule *plan.RecurrenceRule) error {
	snapJSON, err := marshalSnapshot(rule.Snapshot)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	overridesJSON, err := marshalVariables(rule.DefaultOverrides)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recurrence_rules
		(id, owner_id, exercise_id, start_date, frequency, interval, by_weekdays,
		 until_date, snapshot, default_overrides, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rule.ID,
		rule.OwnerID,
		rule.ExerciseID,
		rule.StartDate.String(),
		string(rule.Recurrence.Frequency),
		rule.Recurrence.Interval,
		marshalWeekdays(rule.Recurrence.ByWeekdays),
		encodeDatePtr(rule.Recurrence.Until),
		snapJSON,
		overridesJSON,
		rule.Active,
		encodeTime(rule.CreatedAt),
		encodeTime(rule.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// GetRule returns the rule with the given id, or a NOT_FOUND planner error.
func (s *Store) GetRule(ctx context.Context, id string) (*plan.RecurrenceRule, error) {
	row := s.db.QueryRowContext(ctx, ruleSelect+` WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plan.EntityErrorf(plan.ErrCodeNotFound, id, "recurrence rule not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return rule, nil
}

// ListActiveRules returns every active rule for the owner whose start date is
// on or before latestStart, ordered deterministically by start date then id.
func (s *Store) ListActiveRules(ctx context.Context, ownerID string, latestStart plan.Date) ([]*plan.RecurrenceRule, error) {
	rows, err := s.db.QueryContext(ctx, ruleSelect+`
		WHERE owner_id = ? AND active = 1 AND start_date <= ?
		ORDER BY start_date ASC, id COLLATE BINARY ASC
	`, ownerID, latestStart.String())
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	rules := []*plan.RecurrenceRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("list active rules: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// UpdateRuleLifetime persists the mutable slice of a rule: active flag, until
// boundary and default overrides. Everything else on a rule is immutable
// after creation.
func (s *Store) UpdateRuleLifetime(ctx context.Context, rule *plan.RecurrenceRule) error {
	overridesJSON, err := marshalVariables(rule.DefaultOverrides)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE recurrence_rules
		SET active = ?, until_date = ?, default_overrides = ?, updated_at = ?
		WHERE id = ?
	`,
		rule.Active,
		encodeDatePtr(rule.Recurrence.Until),
		overridesJSON,
		encodeTime(rule.UpdatedAt),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n == 0 {
		return plan.EntityErrorf(plan.ErrCodeNotFound, rule.ID, "recurrence rule not found")
	}
	return nil
}

const ruleSelect = `
	SELECT id, owner_id, exercise_id, start_date, frequency, interval,
	       by_weekdays, until_date, snapshot, default_overrides, active,
	       created_at, updated_at
	FROM recurrence_rules
`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*plan.RecurrenceRule, error) {
	var (
		rule          plan.RecurrenceRule
		startDate     string
		frequency     string
		weekdaysCSV   string
		untilRaw      sql.NullString
		snapJSON      string
		overridesJSON string
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(
		&rule.ID, &rule.OwnerID, &rule.ExerciseID, &startDate, &frequency,
		&rule.Recurrence.Interval, &weekdaysCSV, &untilRaw, &snapJSON,
		&overridesJSON, &rule.Active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rule.StartDate, err = plan.ParseDate(startDate); err != nil {
		return nil, err
	}
	rule.Recurrence.Frequency = plan.Frequency(frequency)
	if rule.Recurrence.ByWeekdays, err = unmarshalWeekdays(weekdaysCSV); err != nil {
		return nil, err
	}
	if rule.Recurrence.Until, err = decodeDatePtr(untilRaw); err != nil {
		return nil, err
	}
	if rule.Snapshot, err = unmarshalSnapshot(snapJSON); err != nil {
		return nil, err
	}
	if rule.DefaultOverrides, err = unmarshalVariables(overridesJSON); err != nil {
		return nil, err
	}
	if rule.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if rule.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &rule, nil
}
