// Package recur evaluates recurrence rules against calendar dates.
//
// The predicate is pure: given a rule and a day it answers "does this rule
// fire on this day" with no store access and no clock. Everything else in the
// scheduler (virtual occurrence generation, materialization preconditions,
// cascade boundaries) is built on top of it.
package recur

import (
	"time"

	"github.com/LookRain/betabreak/internal/plan"
)

// OccursOn reports whether rule fires on date.
//
// A rule never fires before its start date or after its until date. Beyond
// that the decision is pure calendar arithmetic per frequency:
//
//   - daily: day distance from start divisible by interval
//   - weekly: Sunday-anchored week distance divisible by interval, and the
//     date's weekday in the rule's weekday set (start weekday when empty)
//   - monthly: month distance divisible by interval and day-of-month equal to
//     the start's day-of-month; months without that day simply never fire
func OccursOn(rule *plan.RecurrenceRule, date plan.Date) bool {
	if date.Before(rule.StartDate) {
		return false
	}
	if rule.Recurrence.Until != nil && date.After(*rule.Recurrence.Until) {
		return false
	}
	interval := rule.Recurrence.Interval
	if interval < 1 {
		return false
	}

	switch rule.Recurrence.Frequency {
	case plan.Daily:
		return date.DaysSince(rule.StartDate)%interval == 0

	case plan.Weekly:
		weeks := weekIndex(date, rule.StartDate)
		if weeks%interval != 0 {
			return false
		}
		return rule.Recurrence.FiresOnWeekday(date.Weekday(), rule.StartDate.Weekday())

	case plan.Monthly:
		if date.MonthsSince(rule.StartDate)%interval != 0 {
			return false
		}
		return date.Day() == rule.StartDate.Day()
	}
	return false
}

// weekIndex returns the Sunday-anchored week distance from the week
// containing anchor to the week containing date. Both dates are first pulled
// back to their week's Sunday so a Friday start and the following Monday land
// in adjacent weeks, not the same one.
func weekIndex(date, anchor plan.Date) int {
	return date.AddDays(-int(date.Weekday())).DaysSince(anchor.AddDays(-int(anchor.Weekday()))) / 7
}

// Validate checks a recurrence for structural problems: unknown frequency,
// interval below 1, out-of-range weekdays, or an until date that can never
// admit an occurrence.
func Validate(r plan.Recurrence) error {
	if !r.Frequency.Valid() {
		return plan.Errorf(plan.ErrCodeInvalidRecurrence, "unknown frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return plan.Errorf(plan.ErrCodeInvalidRecurrence, "interval must be >= 1, got %d", r.Interval)
	}
	for _, w := range r.ByWeekdays {
		if w < time.Sunday || w > time.Saturday {
			return plan.Errorf(plan.ErrCodeInvalidRecurrence, "weekday out of range: %d", w)
		}
	}
	if len(r.ByWeekdays) > 0 && r.Frequency != plan.Weekly {
		return plan.Errorf(plan.ErrCodeInvalidRecurrence, "byWeekdays is only valid for weekly rules")
	}
	return nil
}
