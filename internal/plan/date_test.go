package plan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("2027-02-01")
	require.NoError(t, err)
	assert.Equal(t, "2027-02-01", d.String())
	assert.Equal(t, time.Monday, d.Weekday())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("01/02/2027")
	assert.Error(t, err)
}

func TestDateOf_StripsTimeOfDay(t *testing.T) {
	d := DateOf(time.Date(2027, 2, 1, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, NewDate(2027, 2, 1), d)
}

func TestAddDays_CrossesMonthBoundary(t *testing.T) {
	d := NewDate(2027, 1, 31).AddDays(1)
	assert.Equal(t, NewDate(2027, 2, 1), d)

	back := NewDate(2027, 3, 1).AddDays(-1)
	assert.Equal(t, NewDate(2027, 2, 28), back)
}

func TestDaysSince(t *testing.T) {
	a := NewDate(2027, 2, 1)
	b := NewDate(2027, 2, 15)
	assert.Equal(t, 14, b.DaysSince(a))
	assert.Equal(t, -14, a.DaysSince(b))
}

func TestMonthsSince_IgnoresDayOfMonth(t *testing.T) {
	assert.Equal(t, 1, NewDate(2027, 3, 1).MonthsSince(NewDate(2027, 2, 28)))
	assert.Equal(t, 13, NewDate(2028, 3, 15).MonthsSince(NewDate(2027, 2, 1)))
}

func TestMonthBounds(t *testing.T) {
	d := NewDate(2027, 2, 15)
	assert.Equal(t, NewDate(2027, 2, 1), d.MonthStart())
	assert.Equal(t, NewDate(2027, 2, 28), d.MonthEnd())

	// Leap February.
	assert.Equal(t, NewDate(2028, 2, 29), NewDate(2028, 2, 10).MonthEnd())
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2027, 2, 1)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2027-02-01"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, d.Equal(back))
}

func TestVariables_Merge(t *testing.T) {
	base := Variables{"sets": 3, "reps": 5, "rest": 120}
	merged := base.Merge(Variables{"rest": 60, "repDuration": 7})

	assert.Equal(t, Variables{"sets": 3, "reps": 5, "rest": 60, "repDuration": 7}, merged)
	// Inputs untouched.
	assert.Equal(t, Variables{"sets": 3, "reps": 5, "rest": 120}, base)
}

func TestResolvePlan_Defaults(t *testing.T) {
	p := ResolvePlan(Variables{"sets": 2, "reps": 4})
	assert.Equal(t, 2, p.Sets)
	assert.Equal(t, 4, p.Reps)
	assert.Equal(t, defaultRepSeconds, p.RepSeconds)
	assert.Equal(t, defaultRestSeconds, p.RestSeconds)
	assert.Equal(t, defaultPrepSeconds, p.PrepSeconds)
}

func TestSummaryOf(t *testing.T) {
	p := PlanParams{Sets: 2, Reps: 2, RepSeconds: 5, RestSeconds: 5}
	steps := []Step{
		{Kind: StepRep, SetNumber: 1, RepNumber: 1, ActualMs: 5000},
		{Kind: StepRest, SetNumber: 1, RepNumber: 1, Note: RestBetweenReps, ActualMs: 5000},
		{Kind: StepRep, SetNumber: 1, RepNumber: 2, ActualMs: 5100},
		{Kind: StepRest, SetNumber: 1, RepNumber: 2, Note: RestBetweenSets, ActualMs: 4900},
		{Kind: StepSetSkipped, SetNumber: 2},
	}
	sum := SummaryOf(p, steps)
	assert.Equal(t, 2, sum.CompletedReps)
	assert.Equal(t, 1, sum.CompletedSets)
	assert.Equal(t, 1, sum.SkippedSets)
	assert.Equal(t, int64(10100), sum.WorkMs)
	assert.Equal(t, int64(9900), sum.RestMs)
}
