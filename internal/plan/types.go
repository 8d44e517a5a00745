package plan

import (
	"time"
)

// Frequency is the recurrence cadence of a rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Recurrence describes when a rule fires. Interval is in units of the
// frequency (every N days/weeks/months). ByWeekdays narrows weekly rules to
// specific weekdays; empty means "the start date's weekday". Until, when set,
// is the last day the rule may fire (inclusive).
type Recurrence struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	ByWeekdays []time.Weekday `json:"byWeekdays,omitempty"`
	Until      *Date          `json:"until,omitempty"`
}

// FiresOnWeekday reports whether the weekday set admits w.
// An empty set defaults to the rule's start-date weekday, which the caller
// supplies as fallback.
func (r Recurrence) FiresOnWeekday(w, fallback time.Weekday) bool {
	if len(r.ByWeekdays) == 0 {
		return w == fallback
	}
	for _, d := range r.ByWeekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Variables are the numeric parameters of an exercise: set/rep counts and
// durations in seconds. Overrides are the same shape — a sparse delta merged
// over a snapshot's variables.
type Variables map[string]int

// Merge returns a copy of v with overrides applied on top (overrides win).
// Neither input is mutated. Merging nil onto nil returns an empty map.
func (v Variables) Merge(overrides Variables) Variables {
	merged := make(Variables, len(v)+len(overrides))
	for k, val := range v {
		merged[k] = val
	}
	for k, val := range overrides {
		merged[k] = val
	}
	return merged
}

// Clone returns a shallow copy of v.
func (v Variables) Clone() Variables {
	if v == nil {
		return nil
	}
	c := make(Variables, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// Snapshot is a frozen copy of an exercise definition, taken at schedule
// time. Later edits to the exercise library never reach existing rules or
// sessions.
type Snapshot struct {
	ExerciseID  string    `json:"exerciseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variables   Variables `json:"variables"`
}

// RecurrenceRule is a persisted recurring series. After creation only Active,
// Recurrence.Until and DefaultOverrides are ever mutated (by cascading edits);
// rules are never hard-deleted while sessions still reference them.
type RecurrenceRule struct {
	ID               string
	OwnerID          string
	ExerciseID       string
	StartDate        Date
	Recurrence       Recurrence
	Snapshot         Snapshot
	DefaultOverrides Variables
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EndsBefore reports whether the rule can no longer fire on or after d.
func (r *RecurrenceRule) EndsBefore(d Date) bool {
	return r.Recurrence.Until != nil && r.Recurrence.Until.Before(d)
}

// ScheduledSession is a concrete, individually mutable session row. A session
// with RuleID set and CanceledAt set is an exception: a deliberately removed
// occurrence that suppresses regeneration for its date.
type ScheduledSession struct {
	ID           string
	OwnerID      string
	ExerciseID   string
	ScheduledFor Date
	RuleID       string // empty for one-off and impromptu sessions
	Snapshot     Snapshot
	Overrides    Variables
	Notes        string
	CompletedAt  *time.Time
	CanceledAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Completed reports whether the session has been executed to completion.
func (s *ScheduledSession) Completed() bool { return s.CompletedAt != nil }

// Canceled reports whether the session is an exception row.
func (s *ScheduledSession) Canceled() bool { return s.CanceledAt != nil }

// Resolved returns the session's effective parameters: snapshot variables
// with the per-occurrence overrides applied.
func (s *ScheduledSession) Resolved() Variables {
	return s.Snapshot.Variables.Merge(s.Overrides)
}
