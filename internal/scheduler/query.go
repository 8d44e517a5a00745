package scheduler

import (
	"context"
	"sort"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/recur"
)

// CalendarView is the result of a range query: concrete sessions and virtual
// occurrences merged into one day-ordered list, plus the clock's idea of
// today so the UI and the core agree on the past/future boundary.
type CalendarView struct {
	Sessions []plan.Session
	Today    plan.Date
}

// ListSessions returns the owner's calendar for a date range.
//
// The query window is widened to the full calendar months containing the
// range so month-view UIs always see whole-month data. Concrete sessions are
// loaded in one read; each active rule then walks the days of its live slice
// of the window emitting a virtual occurrence wherever it fires and no
// concrete row (materialized or exception) exists for that date. No row is
// ever written here - unbounded rules stay cheap to display.
func (s *Service) ListSessions(ctx context.Context, rangeStart, rangeEnd plan.Date) (*CalendarView, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	if rangeEnd.Before(rangeStart) {
		rangeStart, rangeEnd = rangeEnd, rangeStart
	}

	windowStart := rangeStart.MonthStart()
	windowEnd := rangeEnd.MonthEnd()

	concrete, err := s.store.ListSessionsInRange(ctx, ownerID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	// Concrete rows for rule occurrences, keyed by (rule, day). Both live
	// rows and exceptions suppress the virtual occurrence for their date.
	taken := make(map[string]map[string]bool)
	sessions := make([]plan.Session, 0, len(concrete))
	for _, c := range concrete {
		if c.RuleID != "" {
			days := taken[c.RuleID]
			if days == nil {
				days = make(map[string]bool)
				taken[c.RuleID] = days
			}
			days[c.ScheduledFor.String()] = true
		}
		if c.Canceled() {
			continue
		}
		sessions = append(sessions, plan.Concrete{ScheduledSession: c})
	}

	rules, err := s.store.ListActiveRules(ctx, ownerID, windowEnd)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		from := plan.MaxDate(rule.StartDate, windowStart)
		to := windowEnd
		if rule.Recurrence.Until != nil {
			to = plan.MinDate(*rule.Recurrence.Until, windowEnd)
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if !recur.OccursOn(rule, d) {
				continue
			}
			if taken[rule.ID][d.String()] {
				continue
			}
			sessions = append(sessions, plan.VirtualOccurrence{
				RuleID:     rule.ID,
				ExerciseID: rule.ExerciseID,
				Date:       d,
				Snapshot:   rule.Snapshot,
				Overrides:  rule.DefaultOverrides.Clone(),
			})
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].When(), sessions[j].When()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return sessions[i].SessionID() < sessions[j].SessionID()
	})

	return &CalendarView{Sessions: sessions, Today: plan.TodayOf(s.clock)}, nil
}
