package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/LookRain/betabreak/internal/plan"
)

// SessionPatch carries the editable fields of an upcoming session. Nil/empty
// fields are left untouched.
type SessionPatch struct {
	Date      *plan.Date
	Overrides plan.Variables
}

// RemovalResult reports the bulk side effect of a cascading delete, for UI
// feedback.
type RemovalResult struct {
	RemovedCount int
	Active       bool
}

// UpdateOccurrence edits a single upcoming session: its day and/or its
// overrides. Canceled, completed and past sessions are immutable. When a
// rule-bound session moves to a different day, an exception is recorded for
// the old day so the rule does not regenerate a duplicate there.
func (s *Service) UpdateOccurrence(ctx context.Context, sessionID string, patch SessionPatch) (*plan.ScheduledSession, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	now, today := s.stamp()
	if sess.Canceled() || sess.Completed() {
		return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "session is no longer editable")
	}
	if sess.ScheduledFor.Before(today) {
		return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "session is in the past")
	}

	oldDate := sess.ScheduledFor
	if patch.Date != nil {
		sess.ScheduledFor = *patch.Date
	}
	if patch.Overrides != nil {
		sess.Overrides = patch.Overrides.Clone()
	}
	sess.UpdatedAt = now

	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	// Moving a rule occurrence frees its old day; suppress regeneration
	// there with an exception row.
	if sess.RuleID != "" && !sess.ScheduledFor.Equal(oldDate) {
		exception := &plan.ScheduledSession{
			ID:           uuid.NewString(),
			OwnerID:      sess.OwnerID,
			ExerciseID:   sess.ExerciseID,
			ScheduledFor: oldDate,
			RuleID:       sess.RuleID,
			Snapshot:     sess.Snapshot,
			Overrides:    sess.Overrides.Clone(),
			CanceledAt:   &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.InsertSession(ctx, exception); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// RemoveUpcomingSession removes a single upcoming session. One-off sessions
// are deleted outright; rule occurrences become exception rows so the rule
// does not regenerate them. Completed and past sessions cannot be removed.
func (s *Service) RemoveUpcomingSession(ctx context.Context, sessionID string) error {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	sess, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}

	now, today := s.stamp()
	if sess.Canceled() {
		return nil
	}
	if sess.Completed() {
		return plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "cannot remove a completed session")
	}
	if sess.ScheduledFor.Before(today) {
		return plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "cannot remove a past session")
	}

	if sess.RuleID == "" {
		return s.store.DeleteSession(ctx, sessionID)
	}
	sess.CanceledAt = &now
	sess.UpdatedAt = now
	return s.store.UpdateSession(ctx, sess)
}

// UpdateRuleFromDate applies new overrides to a rule's future: they become
// the rule's default overrides (reaching every future virtual occurrence)
// and are patched onto every already-materialized concrete session from
// effectiveFrom forward that is still editable, so materialized rows stay
// consistent with virtual ones.
func (s *Service) UpdateRuleFromDate(ctx context.Context, ruleID string, effectiveFrom plan.Date, overrides plan.Variables) (*plan.RecurrenceRule, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := s.ownedRule(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}

	now, today := s.stamp()
	rule.DefaultOverrides = overrides.Clone()
	rule.UpdatedAt = now
	if err := s.store.UpdateRuleLifetime(ctx, rule); err != nil {
		return nil, err
	}

	sessions, err := s.store.ListRuleSessionsFrom(ctx, ruleID, effectiveFrom)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		// Each row is independently guarded, so a repeat call after a
		// mid-batch failure is still correct.
		if sess.Completed() || sess.Canceled() || sess.ScheduledFor.Before(today) {
			continue
		}
		sess.Overrides = overrides.Clone()
		sess.UpdatedAt = now
		if err := s.store.UpdateSession(ctx, sess); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

// RemoveRuleFromDate removes "this and all future occurrences": it deletes
// the rule's editable concrete sessions from effectiveFrom forward, then
// shrinks the rule's lifetime. A cut at or before the start date deactivates
// the rule entirely; otherwise until tightens to effectiveFrom-1, never
// loosening an earlier cut.
func (s *Service) RemoveRuleFromDate(ctx context.Context, ruleID string, effectiveFrom plan.Date) (*RemovalResult, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := s.ownedRule(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}

	now, today := s.stamp()
	sessions, err := s.store.ListRuleSessionsFrom(ctx, ruleID, effectiveFrom)
	if err != nil {
		return nil, err
	}

	removed := 0
	for _, sess := range sessions {
		if sess.Completed() || sess.ScheduledFor.Before(today) {
			continue
		}
		if err := s.store.DeleteSession(ctx, sess.ID); err != nil {
			return nil, err
		}
		if !sess.Canceled() {
			removed++
		}
	}

	if !effectiveFrom.After(rule.StartDate) {
		rule.Active = false
	} else {
		cut := effectiveFrom.AddDays(-1)
		if rule.Recurrence.Until == nil || cut.Before(*rule.Recurrence.Until) {
			rule.Recurrence.Until = &cut
		}
	}
	rule.UpdatedAt = now
	if err := s.store.UpdateRuleLifetime(ctx, rule); err != nil {
		return nil, err
	}

	return &RemovalResult{RemovedCount: removed, Active: rule.Active}, nil
}
