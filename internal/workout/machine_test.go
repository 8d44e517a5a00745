package workout

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/store"
	"github.com/LookRain/betabreak/internal/testutil"
)

func newTestExecution(t *testing.T) (*Service, *store.Store, *testutil.FixedClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFixedClock(time.Date(2027, 2, 1, 17, 0, 0, 0, time.UTC))
	return NewService(st, clock), st, clock
}

// seedSession inserts a concrete session whose resolved plan is 2 sets of
// 2 reps, 5s work, 5s rest, 10s prep.
func seedSession(t *testing.T, st *store.Store, id string) {
	t.Helper()
	now := time.Date(2027, 2, 1, 12, 0, 0, 0, time.UTC)
	err := st.InsertSession(context.Background(), &plan.ScheduledSession{
		ID:           id,
		OwnerID:      "mats",
		ExerciseID:   "hangboard",
		ScheduledFor: plan.NewDate(2027, 2, 1),
		Snapshot: plan.Snapshot{
			ExerciseID: "hangboard",
			Title:      "Hangboard repeaters",
			Variables:  plan.Variables{"sets": 2, "reps": 2, "repDuration": 5, "rest": 5, "prep": 10},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

// poll advances the clock to the end of the current phase and polls once,
// asserting a transition happened.
func poll(t *testing.T, clock *testutil.FixedClock, m *Machine) {
	t.Helper()
	clock.Advance(m.Remaining())
	moved, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.True(t, moved, "expected a phase transition")
}

func TestMachine_FullRun(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingStart, m.Phase())

	m.Begin()
	assert.Equal(t, PhasePrep, m.Phase())
	assert.Equal(t, 10*time.Second, m.Remaining())

	poll(t, clock, m) // prep -> rep (1,1)
	assert.Equal(t, Position{Set: 1, Rep: 1, Phase: PhaseRep}, m.Position())
	assert.Equal(t, 5*time.Second, m.Remaining())

	poll(t, clock, m) // rep (1,1) -> rest between reps
	assert.Equal(t, plan.RestBetweenReps, m.Position().RestKind)

	poll(t, clock, m) // rest -> rep (1,2)
	assert.Equal(t, Position{Set: 1, Rep: 2, Phase: PhaseRep}, m.Position())

	poll(t, clock, m) // rep (1,2) -> rest between sets
	assert.Equal(t, plan.RestBetweenSets, m.Position().RestKind)

	poll(t, clock, m) // rest -> rep (2,1)
	poll(t, clock, m) // rep (2,1) -> rest between reps
	poll(t, clock, m) // rest -> rep (2,2)
	poll(t, clock, m) // rep (2,2) -> completed

	assert.Equal(t, PhaseCompleted, m.Phase())
	sum := m.Summary()
	assert.Equal(t, 4, sum.CompletedReps)
	assert.Equal(t, 2, sum.CompletedSets)
	assert.Equal(t, 0, sum.SkippedSets)
	assert.Equal(t, int64(20000), sum.WorkMs)
	assert.Equal(t, int64(15000), sum.RestMs)

	// The log is sealed and the session marked completed.
	active, err := st.FindActiveLog(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, active)
	sess, err := st.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, sess.Completed())
}

func TestMachine_PauseFreezesRemaining(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	m.Begin()

	clock.Advance(3 * time.Second)
	m.Pause()
	assert.Equal(t, 7*time.Second, m.Remaining())

	// Wall time passing while paused changes nothing.
	clock.Advance(time.Hour)
	assert.Equal(t, 7*time.Second, m.Remaining())
	moved, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	m.Resume()
	assert.Equal(t, 7*time.Second, m.Remaining())
	clock.Advance(7 * time.Second)
	moved, err = m.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, PhaseRep, m.Phase())
}

func TestMachine_SkipSet(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	m.Begin()
	poll(t, clock, m) // prep -> rep (1,1)

	require.NoError(t, m.SkipSet(ctx))
	assert.Equal(t, Position{Set: 2, Rep: 1, Phase: PhaseRep}, m.Position())
	assert.Equal(t, 1, m.Summary().SkippedSets)

	// Skipping the last set finishes the workout.
	require.NoError(t, m.SkipSet(ctx))
	assert.Equal(t, PhaseCompleted, m.Phase())
	assert.Equal(t, 2, m.Summary().SkippedSets)

	log, err := st.FindActiveLog(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, log)
}

func TestMachine_GoToWritesNoStep(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	m.Begin()
	poll(t, clock, m) // prep -> rep (1,1)

	m.GoTo(2, 2)
	assert.Equal(t, Position{Set: 2, Rep: 2, Phase: PhaseRep}, m.Position())
	assert.Equal(t, 5*time.Second, m.Remaining(), "navigation re-arms a full countdown")

	// Out-of-bounds targets are ignored.
	m.GoTo(3, 1)
	m.GoTo(0, 1)
	assert.Equal(t, Position{Set: 2, Rep: 2, Phase: PhaseRep}, m.Position())

	log, err := st.FindActiveLog(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Empty(t, log.Steps, "manual navigation is not a recorded event")
}

func TestMachine_StopSealsStoppedEarly(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	m.Begin()
	poll(t, clock, m) // prep -> rep (1,1)
	poll(t, clock, m) // rep (1,1) -> rest

	require.NoError(t, m.Stop(ctx))
	assert.Equal(t, PhaseCompleted, m.Phase())

	logs, err := st.FindActiveLog(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, logs)

	// An abandoned workout still marks the session trained.
	sess, err := st.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, sess.Completed())
}

func TestMachine_ResumeMidWorkout(t *testing.T) {
	ctx := context.Background()
	exec, st, clock := newTestExecution(t)
	seedSession(t, st, "sess-1")

	m, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	m.Begin()
	poll(t, clock, m) // prep -> rep (1,1)
	poll(t, clock, m) // rep -> rest
	poll(t, clock, m) // rest -> rep (1,2)
	poll(t, clock, m) // rep -> rest between sets

	// The process dies here. A fresh machine over the same session replays
	// the log and lands where the last completed phase left off.
	resumed, err := exec.Resume(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, Position{Set: 1, Rep: 2, Phase: PhaseRest, RestKind: plan.RestBetweenSets}, resumed.Position())

	sum := resumed.Summary()
	assert.Equal(t, 2, sum.CompletedReps)
	assert.Equal(t, 1, sum.CompletedSets)

	// Begin re-enters the reconstructed phase with a full countdown.
	resumed.Begin()
	assert.Equal(t, PhaseRest, resumed.Phase())
	assert.Equal(t, 5*time.Second, resumed.Remaining())

	poll(t, clock, resumed) // rest -> rep (2,1)
	assert.Equal(t, Position{Set: 2, Rep: 1, Phase: PhaseRep}, resumed.Position())
}
