package plan

import "time"

// LogStatus is the lifecycle state of an execution log. Steps may be appended
// only while the log is active; sealing it (completed or stopped_early) makes
// it immutable apart from a notes backfill.
type LogStatus string

const (
	LogActive       LogStatus = "active"
	LogCompleted    LogStatus = "completed"
	LogStoppedEarly LogStatus = "stopped_early"
)

// StepKind identifies one recorded unit of workout execution.
type StepKind string

const (
	StepRep        StepKind = "rep"
	StepRest       StepKind = "rest"
	StepSetSkipped StepKind = "set_skipped"
)

// Rest step notes disambiguate the rest sub-kind during replay.
const (
	RestBetweenReps = "between_reps"
	RestBetweenSets = "between_sets"
)

// Step is one appended record in an execution log: a completed rep, a
// completed rest, or a skipped set. Planned duration is what the countdown
// was set to; actual is wall-clock elapsed (shorter when the user skipped
// ahead, longer when the phase overran in the background).
type Step struct {
	Kind           StepKind  `json:"kind"`
	SetNumber      int       `json:"setNumber"`
	RepNumber      int       `json:"repNumber,omitempty"`
	PlannedSeconds int       `json:"plannedDurationSeconds"`
	ActualMs       int64     `json:"actualDurationMs"`
	Note           string    `json:"note,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// PlanParams are the resolved execution parameters of a session: snapshot
// variables merged with per-occurrence overrides at start time, frozen on the
// log so later edits cannot shift a running workout.
type PlanParams struct {
	Sets        int `json:"sets"`
	Reps        int `json:"reps"`
	RepSeconds  int `json:"repSeconds"`
	RestSeconds int `json:"restSeconds"`
	PrepSeconds int `json:"prepSeconds"`
}

// Variable names recognized when resolving PlanParams, with their fallbacks.
const (
	VarSets        = "sets"
	VarReps        = "reps"
	VarRepDuration = "repDuration"
	VarRest        = "rest"
	VarPrep        = "prep"

	defaultSets        = 1
	defaultReps        = 1
	defaultRepSeconds  = 30
	defaultRestSeconds = 60
	defaultPrepSeconds = 10
)

// ResolvePlan turns a merged variable map into execution parameters,
// defaulting anything the exercise definition left out.
func ResolvePlan(vars Variables) PlanParams {
	pick := func(key string, fallback int) int {
		if v, ok := vars[key]; ok && v > 0 {
			return v
		}
		return fallback
	}
	return PlanParams{
		Sets:        pick(VarSets, defaultSets),
		Reps:        pick(VarReps, defaultReps),
		RepSeconds:  pick(VarRepDuration, defaultRepSeconds),
		RestSeconds: pick(VarRest, defaultRestSeconds),
		PrepSeconds: pick(VarPrep, defaultPrepSeconds),
	}
}

// Summary is the running tally of an execution log, derived entirely from
// its steps. It is recomputed on read rather than stored, so a crash between
// an append and a summary write can never leave the two disagreeing.
type Summary struct {
	CompletedReps int   `json:"completedReps"`
	CompletedSets int   `json:"completedSets"`
	SkippedSets   int   `json:"skippedSets"`
	WorkMs        int64 `json:"workMs"`
	RestMs        int64 `json:"restMs"`
}

// Apply folds one step into the summary. A set counts as completed when its
// last rep completes, which the machine signals by lastRepOfSet.
func (s *Summary) Apply(step Step, lastRepOfSet bool) {
	switch step.Kind {
	case StepRep:
		s.CompletedReps++
		s.WorkMs += step.ActualMs
		if lastRepOfSet {
			s.CompletedSets++
		}
	case StepRest:
		s.RestMs += step.ActualMs
	case StepSetSkipped:
		s.SkippedSets++
	}
}

// SummaryOf recomputes a summary from an ordered step sequence against the
// plan that produced it.
func SummaryOf(p PlanParams, steps []Step) Summary {
	var sum Summary
	for _, step := range steps {
		sum.Apply(step, step.Kind == StepRep && step.RepNumber == p.Reps)
	}
	return sum
}

// ExecutionLog is one execution attempt of a concrete session: the frozen
// plan, the ordered append-only step sequence, and lifecycle timestamps.
type ExecutionLog struct {
	ID         string
	SessionID  string
	OwnerID    string
	Status     LogStatus
	Planned    PlanParams
	Steps      []Step
	Notes      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Active reports whether the log still accepts steps.
func (l *ExecutionLog) Active() bool { return l.Status == LogActive }

// Summary recomputes the running tally from the log's steps.
func (l *ExecutionLog) Summary() Summary { return SummaryOf(l.Planned, l.Steps) }
