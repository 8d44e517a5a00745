package plan

import "fmt"

// Session is a calendar entry: either a Concrete persisted row or a Virtual
// occurrence computed on read from an active rule. Materialization is the
// single conversion path from Virtual to Concrete.
type Session interface {
	// When is the day the session is scheduled on.
	When() Date
	// SessionID is the row id for concrete sessions and a synthetic
	// "(ruleID, date)" identity for virtual ones.
	SessionID() string

	sealed()
}

// Concrete wraps a persisted ScheduledSession as a calendar entry.
type Concrete struct {
	*ScheduledSession
}

func (c Concrete) When() Date        { return c.ScheduledFor }
func (c Concrete) SessionID() string { return c.ID }
func (c Concrete) sealed()           {}

// VirtualOccurrence is a computed occurrence of a recurrence rule. It is
// never persisted; it exists only in query results, carrying the rule's
// snapshot and default overrides so the UI can render it like a real session.
type VirtualOccurrence struct {
	RuleID     string
	ExerciseID string
	Date       Date
	Snapshot   Snapshot
	Overrides  Variables
}

func (v VirtualOccurrence) When() Date { return v.Date }

// SessionID returns the synthetic identity for a virtual occurrence.
func (v VirtualOccurrence) SessionID() string {
	return fmt.Sprintf("virtual:%s:%s", v.RuleID, v.Date)
}

func (v VirtualOccurrence) sealed() {}
