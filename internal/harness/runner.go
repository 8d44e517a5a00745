package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LookRain/betabreak/internal/catalog"
	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
	"github.com/LookRain/betabreak/internal/store"
	"github.com/LookRain/betabreak/internal/testutil"
)

// Run executes a scenario against a fresh store and a clock frozen at the
// scenario's "today".
func Run(t *testing.T, sc *Scenario) {
	t.Helper()

	today, err := plan.ParseDate(sc.Today)
	require.NoError(t, err, "scenario today")
	clock := testutil.NewFixedClock(today.Time().Add(12 * time.Hour))

	st, err := store.Open(filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	entries := make([]catalog.Entry, len(sc.Exercises))
	for i, def := range sc.Exercises {
		entries[i] = catalog.Entry{
			ID:        def.ID,
			Title:     def.Title,
			Owner:     def.Owner,
			Saved:     def.Saved,
			Variables: def.Variables,
		}
	}

	svc := scheduler.New(st, clock, catalog.NewLibrary(entries...), scheduler.StaticIdentity{OwnerID: sc.Owner})

	r := &runner{t: t, svc: svc}
	for i, step := range sc.Steps {
		r.step(i, step)
	}
}

type runner struct {
	t   *testing.T
	svc *scheduler.Service

	lastRule    *plan.RecurrenceRule
	lastSession *plan.ScheduledSession
}

func (r *runner) step(i int, step Step) {
	r.t.Helper()
	ctx := context.Background()

	switch step.Op {
	case "addSession":
		sess, err := r.svc.AddSession(ctx, step.Exercise, r.date(step.Date), step.Overrides)
		if r.checkErr(i, step, err) {
			r.lastSession = sess
		}

	case "addSeries":
		rec := plan.Recurrence{
			Frequency: plan.Frequency(step.Frequency),
			Interval:  step.Interval,
		}
		for _, d := range step.ByWeekdays {
			rec.ByWeekdays = append(rec.ByWeekdays, time.Weekday(d))
		}
		if step.Until != "" {
			until := r.date(step.Until)
			rec.Until = &until
		}
		rule, err := r.svc.AddRecurringSeries(ctx, step.Exercise, r.date(step.Start), rec, step.Overrides)
		if r.checkErr(i, step, err) {
			r.lastRule = rule
		}

	case "materialize":
		require.NotNil(r.t, r.lastRule, "step %d: no rule created yet", i)
		sess, err := r.svc.Materialize(ctx, r.lastRule.ID, r.date(step.Date))
		if r.checkErr(i, step, err) {
			r.lastSession = sess
		}

	case "cancelOccurrence":
		require.NotNil(r.t, r.lastRule, "step %d: no rule created yet", i)
		r.checkErr(i, step, r.svc.CancelOccurrence(ctx, r.lastRule.ID, r.date(step.Date)))

	case "updateSession":
		require.NotNil(r.t, r.lastSession, "step %d: no session created yet", i)
		patch := scheduler.SessionPatch{Overrides: step.Overrides}
		if step.Date != "" {
			d := r.date(step.Date)
			patch.Date = &d
		}
		sess, err := r.svc.UpdateOccurrence(ctx, r.lastSession.ID, patch)
		if r.checkErr(i, step, err) {
			r.lastSession = sess
		}

	case "removeSession":
		require.NotNil(r.t, r.lastSession, "step %d: no session created yet", i)
		r.checkErr(i, step, r.svc.RemoveUpcomingSession(ctx, r.lastSession.ID))

	case "complete":
		require.NotNil(r.t, r.lastSession, "step %d: no session created yet", i)
		sess, err := r.svc.CompleteSession(ctx, r.lastSession.ID)
		if r.checkErr(i, step, err) {
			r.lastSession = sess
		}

	case "updateSeriesFrom":
		require.NotNil(r.t, r.lastRule, "step %d: no rule created yet", i)
		rule, err := r.svc.UpdateRuleFromDate(ctx, r.lastRule.ID, r.date(step.From), step.Overrides)
		if r.checkErr(i, step, err) {
			r.lastRule = rule
		}

	case "removeSeriesFrom":
		require.NotNil(r.t, r.lastRule, "step %d: no rule created yet", i)
		res, err := r.svc.RemoveRuleFromDate(ctx, r.lastRule.ID, r.date(step.From))
		if !r.checkErr(i, step, err) {
			return
		}
		if step.Expect != nil {
			if step.Expect.Removed != nil {
				require.Equal(r.t, *step.Expect.Removed, res.RemovedCount, "step %d: removed count", i)
			}
			if step.Expect.Active != nil {
				require.Equal(r.t, *step.Expect.Active, res.Active, "step %d: rule active", i)
			}
		}

	case "list":
		view, err := r.svc.ListSessions(ctx, r.date(step.From), r.date(step.To))
		if !r.checkErr(i, step, err) {
			return
		}
		r.assertView(i, step, view)

	default:
		r.t.Fatalf("step %d: unknown op %q", i, step.Op)
	}
}

func (r *runner) assertView(i int, step Step, view *scheduler.CalendarView) {
	r.t.Helper()
	if step.Expect == nil {
		return
	}

	virtual, concrete := 0, 0
	days := make([]string, 0, len(view.Sessions))
	for _, sess := range view.Sessions {
		switch sess.(type) {
		case plan.VirtualOccurrence:
			virtual++
		case plan.Concrete:
			concrete++
		}
		days = append(days, sess.When().String())
	}

	if step.Expect.Total != nil {
		require.Len(r.t, view.Sessions, *step.Expect.Total, "step %d: total sessions", i)
	}
	if step.Expect.Virtual != nil {
		require.Equal(r.t, *step.Expect.Virtual, virtual, "step %d: virtual occurrences", i)
	}
	if step.Expect.Concrete != nil {
		require.Equal(r.t, *step.Expect.Concrete, concrete, "step %d: concrete sessions", i)
	}
	if step.Expect.Days != nil {
		require.Equal(r.t, step.Expect.Days, days, "step %d: session days", i)
	}
}

// checkErr validates a step's error against its expectation and reports
// whether the step succeeded.
func (r *runner) checkErr(i int, step Step, err error) bool {
	r.t.Helper()
	if step.Err != "" {
		require.Error(r.t, err, "step %d: expected %s", i, step.Err)
		require.Equal(r.t, plan.ErrorCode(step.Err), plan.CodeOf(err), "step %d: error code", i)
		return false
	}
	require.NoError(r.t, err, "step %d (%s)", i, step.Op)
	return true
}

func (r *runner) date(s string) plan.Date {
	r.t.Helper()
	d, err := plan.ParseDate(s)
	require.NoError(r.t, err, "date %q", s)
	return d
}
