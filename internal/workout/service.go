package workout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/store"
)

// Service is the execution half of the planner's operation surface: opening
// (or resuming) execution logs, appending steps, and sealing finished logs.
type Service struct {
	store *store.Store
	clock plan.Clock
}

// NewService creates a workout execution service.
func NewService(st *store.Store, clock plan.Clock) *Service {
	return &Service{store: st, clock: clock}
}

// StartSessionExecution opens an execution log for a concrete session, or
// returns the session's still-active log so an interrupted workout resumes
// where its last completed phase left it. The resolved plan - snapshot
// variables merged with the session's overrides, overrides winning - is
// frozen onto the log at start time.
func (s *Service) StartSessionExecution(ctx context.Context, sessionID string) (*plan.ExecutionLog, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Canceled() {
		return nil, plan.EntityErrorf(plan.ErrCodeImmutableState, sessionID, "cannot execute a canceled session")
	}

	if active, err := s.store.FindActiveLog(ctx, sessionID); err != nil {
		return nil, err
	} else if active != nil {
		return active, nil
	}

	log := &plan.ExecutionLog{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		OwnerID:   sess.OwnerID,
		Status:    plan.LogActive,
		Planned:   plan.ResolvePlan(sess.Resolved()),
		StartedAt: s.clock.Now(),
	}
	if err := s.store.InsertLog(ctx, log); err != nil {
		return nil, err
	}
	log.Steps = []plan.Step{}
	return log, nil
}

// AppendStep appends one completed phase to an active log and returns the
// updated log. Appending to a sealed log is an IMMUTABLE_STATE error.
func (s *Service) AppendStep(ctx context.Context, logID string, step plan.Step) (*plan.ExecutionLog, error) {
	if step.RecordedAt.IsZero() {
		step.RecordedAt = s.clock.Now()
	}
	if _, err := s.store.AppendStep(ctx, logID, step); err != nil {
		return nil, err
	}
	return s.store.GetLog(ctx, logID)
}

// FinishExecution seals a log with the given outcome and marks the
// originating session completed if it is not already. Calling it twice on
// the same log is a no-op returning the sealed log unchanged.
func (s *Service) FinishExecution(ctx context.Context, logID string, outcome plan.LogStatus, notes string) (*plan.ExecutionLog, error) {
	if outcome != plan.LogCompleted && outcome != plan.LogStoppedEarly {
		return nil, plan.Errorf(plan.ErrCodeImmutableState, "invalid terminal status %q", outcome)
	}

	log, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if !log.Active() {
		return log, nil
	}

	now := s.clock.Now()
	sealed, err := s.store.SealLog(ctx, logID, outcome, notes, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	if sealed {
		sess, err := s.store.GetSession(ctx, log.SessionID)
		if err != nil {
			return nil, err
		}
		if !sess.Completed() {
			sess.CompletedAt = &now
			sess.UpdatedAt = now
			if err := s.store.UpdateSession(ctx, sess); err != nil {
				return nil, err
			}
		}
	}
	return s.store.GetLog(ctx, logID)
}

// Resume rebuilds a machine over a session's active log, positioned by
// replaying the log's steps.
func (s *Service) Resume(ctx context.Context, sessionID string) (*Machine, error) {
	log, err := s.StartSessionExecution(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewMachine(s.clock, s, log), nil
}
