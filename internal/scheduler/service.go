package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/recur"
	"github.com/LookRain/betabreak/internal/store"
)

// Catalog is the exercise-library collaborator. The scheduler only ever
// needs a frozen snapshot of an exercise and a scheduling-policy answer;
// catalog CRUD and search live outside the core.
type Catalog interface {
	// Lookup returns the exercise definition to freeze into a snapshot.
	Lookup(ctx context.Context, exerciseID string) (plan.Snapshot, error)

	// CanSchedule reports whether the owner may schedule the exercise
	// (owns it or has saved it).
	CanSchedule(ctx context.Context, ownerID, exerciseID string) (bool, error)
}

// Identity resolves the authenticated owner for the current call. Supplied
// by the excluded auth collaborator.
type Identity interface {
	CurrentOwner(ctx context.Context) (string, error)
}

// Service is the scheduling half of the planner's operation surface.
type Service struct {
	store    *store.Store
	clock    plan.Clock
	catalog  Catalog
	identity Identity
}

// New creates a scheduler service.
func New(st *store.Store, clock plan.Clock, catalog Catalog, identity Identity) *Service {
	return &Service{store: st, clock: clock, catalog: catalog, identity: identity}
}

// owner resolves the caller's identity or fails UNAUTHORIZED.
func (s *Service) owner(ctx context.Context) (string, error) {
	ownerID, err := s.identity.CurrentOwner(ctx)
	if err != nil || ownerID == "" {
		return "", plan.Errorf(plan.ErrCodeUnauthorized, "no owner identity")
	}
	return ownerID, nil
}

// snapshotFor fetches the exercise definition and enforces the scheduling
// policy: the caller must own or have saved the exercise.
func (s *Service) snapshotFor(ctx context.Context, ownerID, exerciseID string) (plan.Snapshot, error) {
	ok, err := s.catalog.CanSchedule(ctx, ownerID, exerciseID)
	if err != nil {
		return plan.Snapshot{}, err
	}
	if !ok {
		return plan.Snapshot{}, plan.EntityErrorf(plan.ErrCodePolicyViolation, exerciseID, "exercise is neither owned nor saved")
	}
	return s.catalog.Lookup(ctx, exerciseID)
}

// AddSession schedules a one-off session of an exercise on a given day.
func (s *Service) AddSession(ctx context.Context, exerciseID string, date plan.Date, overrides plan.Variables) (*plan.ScheduledSession, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshotFor(ctx, ownerID, exerciseID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess := &plan.ScheduledSession{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		ExerciseID:   exerciseID,
		ScheduledFor: date,
		Snapshot:     snap,
		Overrides:    overrides.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// StartImpromptuSession schedules a session for today, for workouts begun
// without prior planning. The caller is expected to start execution on it
// immediately.
func (s *Service) StartImpromptuSession(ctx context.Context, exerciseID string, overrides plan.Variables) (*plan.ScheduledSession, error) {
	return s.AddSession(ctx, exerciseID, plan.TodayOf(s.clock), overrides)
}

// AddRecurringSeries creates a recurrence rule with a frozen exercise
// snapshot. Occurrences stay virtual until interacted with.
func (s *Service) AddRecurringSeries(ctx context.Context, exerciseID string, startDate plan.Date, recurrence plan.Recurrence, overrides plan.Variables) (*plan.RecurrenceRule, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := recur.Validate(recurrence); err != nil {
		return nil, err
	}
	snap, err := s.snapshotFor(ctx, ownerID, exerciseID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rule := &plan.RecurrenceRule{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		ExerciseID:       exerciseID,
		StartDate:        startDate,
		Recurrence:       recurrence,
		Snapshot:         snap,
		DefaultOverrides: overrides.Clone(),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// CompleteSession stamps a session completed. Completing an already
// completed session returns it unchanged; completing a canceled session is
// an IMMUTABLE_STATE error.
func (s *Service) CompleteSession(ctx context.Context, sessionID string) (*plan.ScheduledSession, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Completed() {
		return sess, nil
	}
	if sess.Canceled() {
		return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "cannot complete a canceled session")
	}

	now := s.clock.Now()
	sess.CompletedAt = &now
	sess.UpdatedAt = now
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// BackfillNotes sets the notes on a session. The one mutation still allowed
// after a session is completed.
func (s *Service) BackfillNotes(ctx context.Context, sessionID, notes string) (*plan.ScheduledSession, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Notes = notes
	sess.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ownedSession loads a session and verifies ownership.
func (s *Service) ownedSession(ctx context.Context, ownerID, sessionID string) (*plan.ScheduledSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, plan.EntityErrorf(plan.ErrCodeForbidden, sessionID, "session belongs to another owner")
	}
	return sess, nil
}

// ownedRule loads a rule and verifies ownership.
func (s *Service) ownedRule(ctx context.Context, ownerID, ruleID string) (*plan.RecurrenceRule, error) {
	rule, err := s.store.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.OwnerID != ownerID {
		return nil, plan.EntityErrorf(plan.ErrCodeForbidden, ruleID, "rule belongs to another owner")
	}
	return rule, nil
}

// stamp returns (now, today) from the injected clock.
func (s *Service) stamp() (time.Time, plan.Date) {
	now := s.clock.Now()
	return now, plan.DateOf(now)
}
