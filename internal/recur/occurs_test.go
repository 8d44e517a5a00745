package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LookRain/betabreak/internal/plan"
)

func dailyRule(start plan.Date, interval int) *plan.RecurrenceRule {
	return &plan.RecurrenceRule{
		StartDate:  start,
		Recurrence: plan.Recurrence{Frequency: plan.Daily, Interval: interval},
		Active:     true,
	}
}

func TestOccursOn_Daily_IntervalDivisibility(t *testing.T) {
	start := plan.NewDate(2027, 2, 1)
	rule := dailyRule(start, 3)

	// Fires exactly where (date - start) mod 3 == 0.
	for offset := 0; offset < 30; offset++ {
		d := start.AddDays(offset)
		assert.Equal(t, offset%3 == 0, OccursOn(rule, d), "offset %d", offset)
	}
}

func TestOccursOn_BeforeStart(t *testing.T) {
	rule := dailyRule(plan.NewDate(2027, 2, 10), 1)
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 9)))
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 10)))
}

func TestOccursOn_AfterUntil(t *testing.T) {
	until := plan.NewDate(2027, 2, 14)
	rule := dailyRule(plan.NewDate(2027, 2, 10), 1)
	rule.Recurrence.Until = &until

	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 14)))
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 15)))
}

func TestOccursOn_Weekly_ByWeekdays(t *testing.T) {
	// 2027-02-01 is a Monday.
	rule := &plan.RecurrenceRule{
		StartDate: plan.NewDate(2027, 2, 1),
		Recurrence: plan.Recurrence{
			Frequency:  plan.Weekly,
			Interval:   1,
			ByWeekdays: []time.Weekday{time.Monday, time.Wednesday},
		},
		Active: true,
	}

	fires := map[string]bool{}
	for offset := 0; offset < 28; offset++ {
		d := rule.StartDate.AddDays(offset)
		if OccursOn(rule, d) {
			fires[d.String()] = true
			assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, d.Weekday())
		}
	}
	// Mondays and Wednesdays of four February 2027 weeks.
	assert.Len(t, fires, 8)
	assert.True(t, fires["2027-02-01"])
	assert.True(t, fires["2027-02-03"])
	assert.True(t, fires["2027-02-24"])
}

func TestOccursOn_Weekly_EmptyWeekdaysDefaultsToStartWeekday(t *testing.T) {
	rule := &plan.RecurrenceRule{
		StartDate:  plan.NewDate(2027, 2, 3), // Wednesday
		Recurrence: plan.Recurrence{Frequency: plan.Weekly, Interval: 1},
		Active:     true,
	}
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 3)))
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 10)))
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 4)))
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 9)))
}

func TestOccursOn_Weekly_IntervalIsSundayAnchored(t *testing.T) {
	// Start Friday 2027-02-05; biweekly. The anchor week is the Sunday
	// week containing the start, so Monday 2027-02-08 is already week 1,
	// not week 0.
	rule := &plan.RecurrenceRule{
		StartDate: plan.NewDate(2027, 2, 5),
		Recurrence: plan.Recurrence{
			Frequency:  plan.Weekly,
			Interval:   2,
			ByWeekdays: []time.Weekday{time.Monday, time.Friday},
		},
		Active: true,
	}

	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 5)))   // Friday, week 0
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 8)))  // Monday, week 1
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 12))) // Friday, week 1
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 15)))  // Monday, week 2
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 19)))  // Friday, week 2
}

func TestOccursOn_Weekly_NeverBeforeStartWithinAnchorWeek(t *testing.T) {
	rule := &plan.RecurrenceRule{
		StartDate: plan.NewDate(2027, 2, 5), // Friday
		Recurrence: plan.Recurrence{
			Frequency:  plan.Weekly,
			Interval:   1,
			ByWeekdays: []time.Weekday{time.Monday, time.Friday},
		},
		Active: true,
	}
	// Monday of the anchor week is before the start date.
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 1)))
}

func TestOccursOn_Monthly_DayOfMonth(t *testing.T) {
	rule := &plan.RecurrenceRule{
		StartDate:  plan.NewDate(2027, 1, 15),
		Recurrence: plan.Recurrence{Frequency: plan.Monthly, Interval: 1},
		Active:     true,
	}
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 2, 15)))
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 7, 15)))
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 2, 14)))
}

func TestOccursOn_Monthly_Interval(t *testing.T) {
	rule := &plan.RecurrenceRule{
		StartDate:  plan.NewDate(2027, 1, 10),
		Recurrence: plan.Recurrence{Frequency: plan.Monthly, Interval: 3},
		Active:     true,
	}
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 4, 10)))
	assert.False(t, OccursOn(rule, plan.NewDate(2027, 3, 10)))
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 10, 10)))
}

func TestOccursOn_Monthly_MissingDayNeverFires(t *testing.T) {
	// A rule anchored on the 31st skips months without a 31st; there is
	// no roll-forward.
	rule := &plan.RecurrenceRule{
		StartDate:  plan.NewDate(2027, 1, 31),
		Recurrence: plan.Recurrence{Frequency: plan.Monthly, Interval: 1},
		Active:     true,
	}
	for d := plan.NewDate(2027, 2, 1); !d.After(plan.NewDate(2027, 2, 28)); d = d.AddDays(1) {
		assert.False(t, OccursOn(rule, d), "february has no 31st, got firing on %s", d)
	}
	assert.True(t, OccursOn(rule, plan.NewDate(2027, 3, 31)))
}

func TestValidate(t *testing.T) {
	ok := plan.Recurrence{Frequency: plan.Weekly, Interval: 1, ByWeekdays: []time.Weekday{time.Monday}}
	assert.NoError(t, Validate(ok))

	badInterval := plan.Recurrence{Frequency: plan.Daily, Interval: 0}
	err := Validate(badInterval)
	assert.True(t, plan.IsInvalidRecurrence(err))

	badFreq := plan.Recurrence{Frequency: "yearly", Interval: 1}
	assert.True(t, plan.IsInvalidRecurrence(Validate(badFreq)))

	weekdaysOnDaily := plan.Recurrence{Frequency: plan.Daily, Interval: 1, ByWeekdays: []time.Weekday{time.Monday}}
	assert.True(t, plan.IsInvalidRecurrence(Validate(weekdaysOnDaily)))
}
