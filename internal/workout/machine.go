package workout

import (
	"context"
	"time"

	"github.com/LookRain/betabreak/internal/plan"
)

// Recorder persists the machine's progress: step appends while a phase
// completes, and the final seal. Satisfied by *Service.
type Recorder interface {
	AppendStep(ctx context.Context, logID string, step plan.Step) (*plan.ExecutionLog, error)
	FinishExecution(ctx context.Context, logID string, outcome plan.LogStatus, notes string) (*plan.ExecutionLog, error)
}

// Machine drives a single session through prep/rep/rest phases against the
// wall clock. It is single-threaded and cooperatively scheduled: the caller
// samples Poll periodically and the machine detects phase expiry by
// comparing now against the phase-end timestamp, so missed ticks (the host
// process suspended or killed) are tolerated - elapsed time always comes
// from real timestamps, never a tick counter.
//
// Not safe for concurrent use; one machine belongs to one UI loop.
type Machine struct {
	clock    plan.Clock
	recorder Recorder
	log      *plan.ExecutionLog
	plan     plan.PlanParams

	set      int
	rep      int
	phase    Phase
	restKind string

	phaseSeconds int
	phaseEndsAt  time.Time
	paused       bool
	frozen       time.Duration

	// inFlight guards against re-entrant phase completion: a Poll that
	// arrives while the previous step append is still being written must
	// not append again.
	inFlight bool

	summary plan.Summary
}

// NewMachine builds a machine over an execution log, resuming from the log's
// replayed position. The log's steps are the source of truth; the machine
// trusts them entirely.
func NewMachine(clock plan.Clock, recorder Recorder, log *plan.ExecutionLog) *Machine {
	pos := Replay(log.Planned, log.Steps)
	return &Machine{
		clock:    clock,
		recorder: recorder,
		log:      log,
		plan:     log.Planned,
		set:      pos.Set,
		rep:      pos.Rep,
		phase:    pos.Phase,
		restKind: pos.RestKind,
		summary:  log.Summary(),
	}
}

// Begin confirms readiness. From awaiting_start it enters prep; on a resumed
// log it re-enters the reconstructed phase directly with a full countdown.
// Begin on a completed workout is a no-op.
func (m *Machine) Begin() {
	switch m.phase {
	case PhaseAwaitingStart:
		m.enter(PhasePrep, m.plan.PrepSeconds)
	case PhaseRep:
		m.enter(PhaseRep, m.plan.RepSeconds)
	case PhaseRest:
		m.enter(PhaseRest, m.plan.RestSeconds)
	}
}

// enter arms the countdown for a phase.
func (m *Machine) enter(phase Phase, seconds int) {
	m.phase = phase
	m.phaseSeconds = seconds
	m.phaseEndsAt = m.clock.Now().Add(time.Duration(seconds) * time.Second)
	m.paused = false
	m.frozen = 0
}

// Phase returns the machine's current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Position returns the machine's current coordinates.
func (m *Machine) Position() Position {
	return Position{Set: m.set, Rep: m.rep, Phase: m.phase, RestKind: m.restKind}
}

// Summary returns the running tally.
func (m *Machine) Summary() plan.Summary { return m.summary }

// Remaining is the countdown left in the current phase. Frozen while paused;
// clamped to zero once the phase has expired.
func (m *Machine) Remaining() time.Duration {
	if m.paused {
		return m.frozen
	}
	switch m.phase {
	case PhasePrep, PhaseRep, PhaseRest:
		r := m.phaseEndsAt.Sub(m.clock.Now())
		if r < 0 {
			return 0
		}
		return r
	}
	return 0
}

// Poll samples the wall clock and completes the current phase if its
// countdown has expired. Returns true when a phase transition happened.
func (m *Machine) Poll(ctx context.Context) (bool, error) {
	switch m.phase {
	case PhasePrep, PhaseRep, PhaseRest:
	default:
		return false, nil
	}
	if m.paused || m.inFlight {
		return false, nil
	}
	if m.clock.Now().Before(m.phaseEndsAt) {
		return false, nil
	}
	return true, m.CompletePhase(ctx)
}

// CompletePhase ends the current phase - by natural expiry or user skip -
// appends the corresponding step, and transitions. Prep completion is not a
// recorded execution unit, so it transitions without logging.
func (m *Machine) CompletePhase(ctx context.Context) error {
	if m.inFlight {
		return nil
	}
	switch m.phase {
	case PhasePrep:
		m.enter(PhaseRep, m.plan.RepSeconds)
		return nil

	case PhaseRep:
		return m.completeRep(ctx)

	case PhaseRest:
		return m.completeRest(ctx)
	}
	return nil
}

func (m *Machine) completeRep(ctx context.Context) error {
	step := plan.Step{
		Kind:           plan.StepRep,
		SetNumber:      m.set,
		RepNumber:      m.rep,
		PlannedSeconds: m.phaseSeconds,
		ActualMs:       m.elapsedMs(),
		RecordedAt:     m.clock.Now(),
	}
	lastRep := m.rep >= m.plan.Reps
	lastSet := m.set >= m.plan.Sets

	if err := m.append(ctx, step, lastRep); err != nil {
		return err
	}

	switch {
	case lastRep && lastSet:
		return m.finish(ctx, plan.LogCompleted)
	case lastRep:
		m.restKind = plan.RestBetweenSets
		m.enter(PhaseRest, m.plan.RestSeconds)
	default:
		m.restKind = plan.RestBetweenReps
		m.enter(PhaseRest, m.plan.RestSeconds)
	}
	return nil
}

func (m *Machine) completeRest(ctx context.Context) error {
	step := plan.Step{
		Kind:           plan.StepRest,
		SetNumber:      m.set,
		RepNumber:      m.rep,
		PlannedSeconds: m.phaseSeconds,
		ActualMs:       m.elapsedMs(),
		Note:           m.restKind,
		RecordedAt:     m.clock.Now(),
	}
	if err := m.append(ctx, step, false); err != nil {
		return err
	}

	if m.restKind == plan.RestBetweenSets {
		m.set++
		m.rep = 1
	} else {
		m.rep++
	}
	m.restKind = ""
	m.enter(PhaseRep, m.plan.RepSeconds)
	return nil
}

// SkipSet abandons the current set, records it as skipped, and jumps to the
// next set's first rep - or finishes the workout if this was the last set.
// Unlike manual navigation, a skip is a recorded event.
func (m *Machine) SkipSet(ctx context.Context) error {
	if m.phase != PhaseRep && m.phase != PhaseRest {
		return nil
	}
	step := plan.Step{
		Kind:           plan.StepSetSkipped,
		SetNumber:      m.set,
		PlannedSeconds: m.phaseSeconds,
		ActualMs:       m.elapsedMs(),
		RecordedAt:     m.clock.Now(),
	}
	if err := m.append(ctx, step, false); err != nil {
		return err
	}

	if m.set >= m.plan.Sets {
		return m.finish(ctx, plan.LogCompleted)
	}
	m.set++
	m.rep = 1
	m.restKind = ""
	m.enter(PhaseRep, m.plan.RepSeconds)
	return nil
}

// GoTo is manual navigation: re-enter the rep phase at the target set/rep
// with a full countdown. It is a UI correction, not a recorded execution -
// no step is written. Allowed only while in rep or rest.
func (m *Machine) GoTo(set, rep int) {
	if m.phase != PhaseRep && m.phase != PhaseRest {
		return
	}
	if set < 1 || set > m.plan.Sets || rep < 1 || rep > m.plan.Reps {
		return
	}
	m.set = set
	m.rep = rep
	m.restKind = ""
	m.enter(PhaseRep, m.plan.RepSeconds)
}

// Pause freezes the remaining countdown.
func (m *Machine) Pause() {
	if m.paused {
		return
	}
	switch m.phase {
	case PhasePrep, PhaseRep, PhaseRest:
		m.frozen = m.Remaining()
		m.paused = true
	}
}

// Resume re-anchors the phase end to now + the frozen remainder.
func (m *Machine) Resume() {
	if !m.paused {
		return
	}
	m.paused = false
	m.phaseEndsAt = m.clock.Now().Add(m.frozen)
	m.frozen = 0
}

// Stop ends the workout early, sealing the log as stopped_early. The
// originating session is still marked completed - an abandoned session was
// still trained.
func (m *Machine) Stop(ctx context.Context) error {
	if m.phase == PhaseCompleted {
		return nil
	}
	return m.finish(ctx, plan.LogStoppedEarly)
}

// elapsedMs is the wall-clock time spent in the current phase, from the
// phase's armed duration and what remains of it. Overruns (phase expired in
// the background) yield more than the planned duration.
func (m *Machine) elapsedMs() int64 {
	planned := time.Duration(m.phaseSeconds) * time.Second
	var remaining time.Duration
	if m.paused {
		remaining = m.frozen
	} else {
		remaining = m.phaseEndsAt.Sub(m.clock.Now())
	}
	return (planned - remaining).Milliseconds()
}

// append writes a step through the recorder. Appends are serialized: the
// in-flight flag stays set until the write returns, so a re-entrant Poll
// cannot double-log a phase.
func (m *Machine) append(ctx context.Context, step plan.Step, lastRepOfSet bool) error {
	m.inFlight = true
	defer func() { m.inFlight = false }()

	updated, err := m.recorder.AppendStep(ctx, m.log.ID, step)
	if err != nil {
		return err
	}
	m.log = updated
	m.summary.Apply(step, lastRepOfSet)
	return nil
}

func (m *Machine) finish(ctx context.Context, outcome plan.LogStatus) error {
	m.inFlight = true
	defer func() { m.inFlight = false }()

	updated, err := m.recorder.FinishExecution(ctx, m.log.ID, outcome, "")
	if err != nil {
		return err
	}
	m.log = updated
	m.phase = PhaseCompleted
	return nil
}
