package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LookRain/betabreak/internal/plan"
)

func TestLoadDir(t *testing.T) {
	lib, err := LoadDir("testdata/library")
	require.NoError(t, err)

	ctx := context.Background()
	snap, err := lib.Lookup(ctx, "hangboard")
	require.NoError(t, err)
	assert.Equal(t, "Hangboard repeaters", snap.Title)
	assert.Equal(t, "Half-crimp repeaters on the 20mm edge", snap.Description)
	assert.Equal(t, plan.Variables{"sets": 6, "reps": 6, "repDuration": 7, "rest": 180}, snap.Variables)

	_, err = lib.Lookup(ctx, "campus")
	require.NoError(t, err)
}

func TestLoadDir_TitleRequired(t *testing.T) {
	_, err := LoadDir("testdata/untitled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir("testdata/no-such-dir")
	require.Error(t, err)
}

func TestLookup_NotFound(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.Lookup(context.Background(), "nope")
	assert.True(t, plan.IsNotFound(err), "got %v", err)
}

func TestLookup_SnapshotIsACopy(t *testing.T) {
	lib := NewLibrary(Entry{
		ID:        "hangboard",
		Title:     "Hangboard repeaters",
		Owner:     "mats",
		Variables: plan.Variables{"sets": 6},
	})

	ctx := context.Background()
	snap, err := lib.Lookup(ctx, "hangboard")
	require.NoError(t, err)
	snap.Variables["sets"] = 99

	again, err := lib.Lookup(ctx, "hangboard")
	require.NoError(t, err)
	assert.Equal(t, 6, again.Variables["sets"], "a caller's mutation must not leak into the library")
}

func TestCanSchedule(t *testing.T) {
	lib, err := LoadDir("testdata/library")
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		owner, exercise string
		want            bool
	}{
		{"mats", "hangboard", true}, // owns it
		{"mats", "campus", true},    // saved it
		{"lena", "campus", true},    // owns it
		{"lena", "hangboard", false},
	}
	for _, tc := range cases {
		got, err := lib.CanSchedule(ctx, tc.owner, tc.exercise)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s scheduling %s", tc.owner, tc.exercise)
	}

	_, err = lib.CanSchedule(ctx, "mats", "nope")
	assert.True(t, plan.IsNotFound(err), "got %v", err)
}
