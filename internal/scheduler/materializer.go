package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/recur"
)

// Materialize converts a virtual occurrence of a rule into a concrete,
// individually mutable session row. Idempotent: if a non-canceled concrete
// session already exists for the (rule, date) pair it is returned unchanged.
// A canceled row for the date means the occurrence was deliberately removed,
// so materializing it again is rejected.
//
// Invoked lazily - starting, editing or completing a virtual occurrence all
// funnel through here.
func (s *Service) Materialize(ctx context.Context, ruleID string, date plan.Date) (*plan.ScheduledSession, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := s.ownedRule(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, ruleID, "rule is no longer active")
	}
	if !recur.OccursOn(rule, date) {
		return nil, plan.EntityErrorf(plan.ErrCodeInvalidRecurrence, ruleID, "rule does not fire on %s", date)
	}

	existing, err := s.store.FindRuleSession(ctx, ruleID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Canceled() {
			return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, existing.ID, "occurrence on %s was canceled", date)
		}
		return existing, nil
	}

	now := s.clock.Now()
	sess := &plan.ScheduledSession{
		ID:           uuid.NewString(),
		OwnerID:      rule.OwnerID,
		ExerciseID:   rule.ExerciseID,
		ScheduledFor: date,
		RuleID:       rule.ID,
		Snapshot:     rule.Snapshot,
		Overrides:    rule.DefaultOverrides.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, err
	}
	// A racing materialization may have won the (rule, date) unique index;
	// re-read so both callers observe the same row.
	winner, err := s.store.FindRuleSession(ctx, ruleID, date)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		return winner, nil
	}
	return sess, nil
}

// CancelOccurrence removes one occurrence of a rule. Only future (or today's)
// non-completed occurrences may be canceled. If a concrete row exists it is
// stamped canceled; otherwise an exception row is inserted pre-stamped, so
// the virtual generator skips the date from now on.
func (s *Service) CancelOccurrence(ctx context.Context, ruleID string, date plan.Date) error {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	rule, err := s.ownedRule(ctx, ownerID, ruleID)
	if err != nil {
		return err
	}

	now, today := s.stamp()
	if date.Before(today) {
		return plan.EntityErrorf(plan.ErrCodeImmutableState, ruleID, "cannot cancel a past occurrence (%s)", date)
	}

	existing, err := s.store.FindRuleSession(ctx, ruleID, date)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Canceled() {
			return nil
		}
		if existing.Completed() {
			return plan.EntityErrorf(plan.ErrCodeImmutableState, existing.ID, "cannot cancel a completed session")
		}
		existing.CanceledAt = &now
		existing.UpdatedAt = now
		return s.store.UpdateSession(ctx, existing)
	}

	exception := &plan.ScheduledSession{
		ID:           uuid.NewString(),
		OwnerID:      rule.OwnerID,
		ExerciseID:   rule.ExerciseID,
		ScheduledFor: date,
		RuleID:       rule.ID,
		Snapshot:     rule.Snapshot,
		Overrides:    rule.DefaultOverrides.Clone(),
		CanceledAt:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.store.InsertSession(ctx, exception)
}
