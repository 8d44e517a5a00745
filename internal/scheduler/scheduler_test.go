package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LookRain/betabreak/internal/catalog"
	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/store"
	"github.com/LookRain/betabreak/internal/testutil"
)

// newTestService builds a scheduler over a temp SQLite store with a frozen
// clock at noon on today. Owner is "mats" throughout.
func newTestService(t *testing.T, today plan.Date) (*Service, *store.Store, *testutil.FixedClock) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFixedClock(today.Time().Add(12 * time.Hour))

	lib := catalog.NewLibrary(
		catalog.Entry{
			ID:        "hangboard",
			Title:     "Hangboard repeaters",
			Owner:     "mats",
			Variables: plan.Variables{"sets": 6, "reps": 6, "repDuration": 7, "rest": 180},
		},
		catalog.Entry{
			ID:    "campus",
			Title: "Campus board ladders",
			Owner: "lena",
			Saved: []string{"mats"},
		},
		catalog.Entry{
			ID:    "moonboard",
			Title: "Moonboard benchmarks",
			Owner: "lena",
		},
	)

	svc := New(st, clock, lib, StaticIdentity{OwnerID: "mats"})
	return svc, st, clock
}

// weeklyMonThu is the workhorse recurrence of these tests: every Monday and
// Thursday. Over February 2027 (starts on a Monday, exactly four weeks) it
// fires eight times.
func weeklyMonThu() plan.Recurrence {
	return plan.Recurrence{
		Frequency:  plan.Weekly,
		Interval:   1,
		ByWeekdays: []time.Weekday{time.Monday, time.Thursday},
	}
}

func countKinds(t *testing.T, view *CalendarView) (virtual, concrete int) {
	t.Helper()
	for _, sess := range view.Sessions {
		switch sess.(type) {
		case plan.VirtualOccurrence:
			virtual++
		case plan.Concrete:
			concrete++
		default:
			t.Fatalf("unexpected session type %T", sess)
		}
	}
	return virtual, concrete
}

func TestAddSession_FreezesSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 10), plan.Variables{"sets": 4})
	require.NoError(t, err)
	assert.Equal(t, "mats", sess.OwnerID)
	assert.Equal(t, "Hangboard repeaters", sess.Snapshot.Title)
	assert.Equal(t, 6, sess.Snapshot.Variables["sets"])
	assert.Equal(t, plan.Variables{"sets": 4}, sess.Overrides)

	got, err := st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot, got.Snapshot)
	assert.Empty(t, got.RuleID)
}

func TestAddSession_SchedulingPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	// Saved exercises are schedulable.
	_, err := svc.AddSession(ctx, "campus", plan.NewDate(2027, 2, 10), nil)
	require.NoError(t, err)

	// Neither owned nor saved.
	_, err = svc.AddSession(ctx, "moonboard", plan.NewDate(2027, 2, 10), nil)
	assert.True(t, plan.IsPolicyViolation(err), "got %v", err)

	_, err = svc.AddSession(ctx, "no-such-exercise", plan.NewDate(2027, 2, 10), nil)
	assert.True(t, plan.IsNotFound(err), "got %v", err)
}

func TestStartImpromptuSession_LandsOnToday(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.StartImpromptuSession(ctx, "hangboard", nil)
	require.NoError(t, err)
	assert.Equal(t, "2027-02-01", sess.ScheduledFor.String())
}

func TestAddRecurringSeries_ValidatesRecurrence(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	_, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), plan.Recurrence{
		Frequency: plan.Daily,
		Interval:  0,
	}, nil)
	assert.True(t, plan.IsInvalidRecurrence(err), "got %v", err)

	_, err = svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), plan.Recurrence{
		Frequency:  plan.Daily,
		Interval:   1,
		ByWeekdays: []time.Weekday{time.Monday},
	}, nil)
	assert.True(t, plan.IsInvalidRecurrence(err), "got %v", err)
}

func TestMaterialize_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), plan.Variables{"rest": 120})
	require.NoError(t, err)

	first, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	assert.Equal(t, rule.ID, first.RuleID)
	assert.Equal(t, plan.Variables{"rest": 120}, first.Overrides)

	second, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat materialization must return the same row")
}

func TestMaterialize_RejectsNonFiringDate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)

	// 2027-02-03 is a Wednesday.
	_, err = svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 3))
	assert.True(t, plan.IsInvalidRecurrence(err), "got %v", err)
}

func TestCancelOccurrence_VirtualBecomesException(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)

	day := plan.NewDate(2027, 2, 8)
	require.NoError(t, svc.CancelOccurrence(ctx, rule.ID, day))

	row, err := st.FindRuleSession(ctx, rule.ID, day)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.Canceled())

	// Canceling again is a no-op.
	require.NoError(t, svc.CancelOccurrence(ctx, rule.ID, day))

	// The canceled date cannot be rematerialized.
	_, err = svc.Materialize(ctx, rule.ID, day)
	assert.True(t, plan.IsImmutableState(err), "got %v", err)

	// The calendar skips the canceled day: 8 firings minus 1.
	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 1), plan.NewDate(2027, 2, 28))
	require.NoError(t, err)
	virtual, concrete := countKinds(t, view)
	assert.Equal(t, 7, virtual)
	assert.Equal(t, 0, concrete)
}

func TestCancelOccurrence_PastIsImmutable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 10))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)

	err = svc.CancelOccurrence(ctx, rule.ID, plan.NewDate(2027, 2, 8))
	assert.True(t, plan.IsImmutableState(err), "got %v", err)
}

func TestListSessions_MergesConcreteAndVirtual(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)
	_, err = svc.AddSession(ctx, "campus", plan.NewDate(2027, 2, 10), nil)
	require.NoError(t, err)
	_, err = svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)

	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 1), plan.NewDate(2027, 2, 28))
	require.NoError(t, err)
	assert.Equal(t, "2027-02-01", view.Today.String())

	virtual, concrete := countKinds(t, view)
	assert.Equal(t, 7, virtual, "materialized occurrence must not double-count")
	assert.Equal(t, 2, concrete)

	// Day-ordered output.
	for i := 1; i < len(view.Sessions); i++ {
		assert.False(t, view.Sessions[i].When().Before(view.Sessions[i-1].When()))
	}
}

func TestListSessions_ReversedRangeAndUntil(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	until := plan.NewDate(2027, 2, 14)
	rec := weeklyMonThu()
	rec.Until = &until
	_, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), rec, nil)
	require.NoError(t, err)

	// Swapped endpoints behave like the sorted range.
	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 28), plan.NewDate(2027, 2, 1))
	require.NoError(t, err)
	virtual, _ := countKinds(t, view)
	assert.Equal(t, 4, virtual, "until caps the series at Feb 11")
}

func TestCompleteSession(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 1), nil)
	require.NoError(t, err)

	done, err := svc.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(clock.Now()))

	// Idempotent.
	again, err := svc.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, again.CompletedAt.Equal(*done.CompletedAt))
}

func TestBackfillNotes_AllowedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 1), nil)
	require.NoError(t, err)
	_, err = svc.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)

	noted, err := svc.BackfillNotes(ctx, sess.ID, "felt strong, add 5kg")
	require.NoError(t, err)
	assert.Equal(t, "felt strong, add 5kg", noted.Notes)

	got, err := st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "felt strong, add 5kg", got.Notes)
}

func TestCompleteSession_CanceledIsImmutable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)
	sess, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	require.NoError(t, svc.CancelOccurrence(ctx, rule.ID, plan.NewDate(2027, 2, 4)))

	_, err = svc.CompleteSession(ctx, sess.ID)
	assert.True(t, plan.IsImmutableState(err), "got %v", err)
}

func TestUpdateOccurrence_MoveWritesException(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)
	sess, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)

	newDay := plan.NewDate(2027, 2, 5)
	moved, err := svc.UpdateOccurrence(ctx, sess.ID, SessionPatch{Date: &newDay, Overrides: plan.Variables{"sets": 3}})
	require.NoError(t, err)
	assert.Equal(t, "2027-02-05", moved.ScheduledFor.String())
	assert.Equal(t, plan.Variables{"sets": 3}, moved.Overrides)

	// The rule must not regenerate Feb 4, and the moved row shows on Feb 5:
	// still 8 sessions total over the month.
	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 1), plan.NewDate(2027, 2, 28))
	require.NoError(t, err)
	virtual, concrete := countKinds(t, view)
	assert.Equal(t, 7, virtual)
	assert.Equal(t, 1, concrete)
	for _, s := range view.Sessions {
		assert.NotEqual(t, "2027-02-04", s.When().String())
	}
}

func TestUpdateOccurrence_PastIsImmutable(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 2), nil)
	require.NoError(t, err)

	clock.Set(time.Date(2027, 2, 3, 9, 0, 0, 0, time.UTC))
	day := plan.NewDate(2027, 2, 9)
	_, err = svc.UpdateOccurrence(ctx, sess.ID, SessionPatch{Date: &day})
	assert.True(t, plan.IsImmutableState(err), "got %v", err)
}

func TestRemoveUpcomingSession(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	// One-off sessions are deleted outright.
	oneOff, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 10), nil)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveUpcomingSession(ctx, oneOff.ID))
	_, err = st.GetSession(ctx, oneOff.ID)
	assert.True(t, plan.IsNotFound(err), "got %v", err)

	// Rule occurrences become exception rows.
	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)
	occ, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	require.NoError(t, svc.RemoveUpcomingSession(ctx, occ.ID))

	row, err := st.GetSession(ctx, occ.ID)
	require.NoError(t, err)
	assert.True(t, row.Canceled())
}

func TestRemoveUpcomingSession_CompletedIsImmutable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	sess, err := svc.AddSession(ctx, "hangboard", plan.NewDate(2027, 2, 1), nil)
	require.NoError(t, err)
	_, err = svc.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)

	err = svc.RemoveUpcomingSession(ctx, sess.ID)
	assert.True(t, plan.IsImmutableState(err), "got %v", err)
}

func TestUpdateRuleFromDate_CascadesToMaterialized(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), plan.Variables{"rest": 180})
	require.NoError(t, err)

	before, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	after, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 15))
	require.NoError(t, err)
	completed, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 11))
	require.NoError(t, err)
	_, err = svc.CompleteSession(ctx, completed.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateRuleFromDate(ctx, rule.ID, plan.NewDate(2027, 2, 8), plan.Variables{"rest": 90})
	require.NoError(t, err)
	assert.Equal(t, plan.Variables{"rest": 90}, updated.DefaultOverrides)

	// Before the cut: untouched. After: patched. Completed: untouched.
	got, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 4))
	require.NoError(t, err)
	assert.Equal(t, plan.Variables{"rest": 180}, got.Overrides)
	assert.Equal(t, before.ID, got.ID)

	got, err = svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, plan.Variables{"rest": 90}, got.Overrides)
	assert.Equal(t, after.ID, got.ID)

	got, err = svc.CompleteSession(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Variables{"rest": 180}, got.Overrides)
}

func TestRemoveRuleFromDate_TightensUntil(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)
	occ, err := svc.Materialize(ctx, rule.ID, plan.NewDate(2027, 2, 15))
	require.NoError(t, err)
	require.NoError(t, svc.CancelOccurrence(ctx, rule.ID, plan.NewDate(2027, 2, 18)))

	res, err := svc.RemoveRuleFromDate(ctx, rule.ID, plan.NewDate(2027, 2, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedCount, "exception rows do not count as removals")
	assert.True(t, res.Active)

	got, err := st.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Recurrence.Until)
	assert.Equal(t, "2027-02-07", got.Recurrence.Until.String())

	_, err = st.GetSession(ctx, occ.ID)
	assert.True(t, plan.IsNotFound(err), "materialized rows past the cut are deleted")

	// A later cut never loosens the earlier one.
	_, err = svc.RemoveRuleFromDate(ctx, rule.ID, plan.NewDate(2027, 2, 20))
	require.NoError(t, err)
	got, err = st.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "2027-02-07", got.Recurrence.Until.String())

	// Only the pre-cut firings remain on the calendar.
	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 1), plan.NewDate(2027, 2, 28))
	require.NoError(t, err)
	virtual, concrete := countKinds(t, view)
	assert.Equal(t, 2, virtual, "Feb 1 and Feb 4 survive the cut")
	assert.Equal(t, 0, concrete)
}

func TestRemoveRuleFromDate_CutAtStartDeactivates(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, plan.NewDate(2027, 2, 1))

	rule, err := svc.AddRecurringSeries(ctx, "hangboard", plan.NewDate(2027, 2, 1), weeklyMonThu(), nil)
	require.NoError(t, err)

	res, err := svc.RemoveRuleFromDate(ctx, rule.ID, plan.NewDate(2027, 2, 1))
	require.NoError(t, err)
	assert.False(t, res.Active)

	got, err := st.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	view, err := svc.ListSessions(ctx, plan.NewDate(2027, 2, 1), plan.NewDate(2027, 2, 28))
	require.NoError(t, err)
	assert.Empty(t, view.Sessions)
}
