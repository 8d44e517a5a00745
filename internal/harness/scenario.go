// Package harness runs yaml-defined end-to-end scenarios against the
// scheduler. Scenarios build a real SQLite store and a frozen clock, execute
// a sequence of planner operations, and assert on calendar query results -
// the same surface the UI consumes.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LookRain/betabreak/internal/plan"
)

// Scenario is one end-to-end scheduling scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today fixes the clock for the whole scenario (midday, so "today"
	// boundaries are unambiguous).
	Today string `yaml:"today"`

	// Owner is the identity every operation runs as.
	Owner string `yaml:"owner"`

	// Exercises seeds the in-memory catalog.
	Exercises []ExerciseDef `yaml:"exercises"`

	// Steps is the operation sequence.
	Steps []Step `yaml:"steps"`
}

// ExerciseDef seeds one catalog entry.
type ExerciseDef struct {
	ID        string         `yaml:"id"`
	Title     string         `yaml:"title"`
	Owner     string         `yaml:"owner"`
	Saved     []string       `yaml:"saved,omitempty"`
	Variables plan.Variables `yaml:"variables"`
}

// Step is one planner operation with optional expectations. Rule and session
// references are positional: "the rule" / "the session" is the most recently
// created one, which keeps scenarios readable without id plumbing.
type Step struct {
	// Op selects the operation: addSession, addSeries, materialize,
	// cancelOccurrence, updateSession, removeSession, complete,
	// updateSeriesFrom, removeSeriesFrom, list.
	Op string `yaml:"op"`

	Exercise   string         `yaml:"exercise,omitempty"`
	Date       string         `yaml:"date,omitempty"`
	Start      string         `yaml:"start,omitempty"`
	From       string         `yaml:"from,omitempty"`
	To         string         `yaml:"to,omitempty"`
	Frequency  string         `yaml:"frequency,omitempty"`
	Interval   int            `yaml:"interval,omitempty"`
	ByWeekdays []int          `yaml:"byWeekdays,omitempty"`
	Until      string         `yaml:"until,omitempty"`
	Overrides  plan.Variables `yaml:"overrides,omitempty"`

	// Expect validates the step's outcome. For list ops the counts refer
	// to the returned calendar; for removeSeriesFrom, removed/active.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Err expects the step to fail with the given planner error code.
	Err string `yaml:"err,omitempty"`
}

// Expectation asserts on a step's result.
type Expectation struct {
	Total    *int     `yaml:"total,omitempty"`
	Virtual  *int     `yaml:"virtual,omitempty"`
	Concrete *int     `yaml:"concrete,omitempty"`
	Days     []string `yaml:"days,omitempty"`
	Removed  *int     `yaml:"removed,omitempty"`
	Active   *bool    `yaml:"active,omitempty"`
}

// LoadScenario parses a scenario yaml file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if sc.Today == "" {
		return nil, fmt.Errorf("scenario %s: today is required", path)
	}
	return &sc, nil
}
