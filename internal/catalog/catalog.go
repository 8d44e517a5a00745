// Package catalog loads the exercise library from CUE definition files.
//
// The scheduler only consumes the Catalog interface; this package is the
// concrete collaborator the CLI and server wire in. Exercises are declared
// in CUE so definitions are validated at load time rather than at schedule
// time.
package catalog

import (
	"context"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/LookRain/betabreak/internal/plan"
)

// Entry is one exercise definition in the library.
type Entry struct {
	ID          string
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Saved       []string       `json:"saved"`
	Variables   plan.Variables `json:"variables"`
}

// Library is an in-memory exercise catalog loaded from CUE files. It
// satisfies the scheduler's Catalog interface.
type Library struct {
	entries map[string]Entry
}

// LoadDir loads every CUE file in dir and extracts the `exercise` namespace:
//
//	exercise: hangboard: {
//		title: "Hangboard repeaters"
//		owner: "mats"
//		variables: {sets: 6, reps: 6, repDuration: 7, rest: 180}
//	}
func LoadDir(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path is not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	lib := &Library{entries: make(map[string]Entry)}

	exercises := value.LookupPath(cue.ParsePath("exercise"))
	if !exercises.Exists() {
		return lib, nil
	}
	iter, err := exercises.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating exercises: %w", err)
	}
	for iter.Next() {
		var entry Entry
		if err := iter.Value().Decode(&entry); err != nil {
			return nil, fmt.Errorf("decoding exercise %q: %w", iter.Selector(), err)
		}
		entry.ID = iter.Selector().Unquoted()
		if entry.Title == "" {
			return nil, fmt.Errorf("exercise %q: title is required", entry.ID)
		}
		lib.entries[entry.ID] = entry
	}

	return lib, nil
}

// NewLibrary builds a catalog directly from entries, for tests and embedding.
func NewLibrary(entries ...Entry) *Library {
	lib := &Library{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		lib.entries[e.ID] = e
	}
	return lib
}

// Lookup returns the snapshot to freeze for an exercise.
func (l *Library) Lookup(_ context.Context, exerciseID string) (plan.Snapshot, error) {
	entry, ok := l.entries[exerciseID]
	if !ok {
		return plan.Snapshot{}, plan.EntityErrorf(plan.ErrCodeNotFound, exerciseID, "exercise not found")
	}
	return plan.Snapshot{
		ExerciseID:  entry.ID,
		Title:       entry.Title,
		Description: entry.Description,
		Variables:   entry.Variables.Clone(),
	}, nil
}

// CanSchedule reports whether the owner owns the exercise or appears on its
// saved list.
func (l *Library) CanSchedule(_ context.Context, ownerID, exerciseID string) (bool, error) {
	entry, ok := l.entries[exerciseID]
	if !ok {
		return false, plan.EntityErrorf(plan.ErrCodeNotFound, exerciseID, "exercise not found")
	}
	if entry.Owner == ownerID {
		return true, nil
	}
	for _, saved := range entry.Saved {
		if saved == ownerID {
			return true, nil
		}
	}
	return false, nil
}
