package workout

import (
	"github.com/LookRain/betabreak/internal/plan"
)

// Phase is where the state machine currently sits inside a session.
type Phase string

const (
	// PhaseAwaitingStart: the timer is open but the user has not confirmed
	// readiness. A log with no steps resumes here.
	PhaseAwaitingStart Phase = "awaiting_start"
	PhasePrep          Phase = "prep"
	PhaseRep           Phase = "rep"
	PhaseRest          Phase = "rest"
	PhaseCompleted     Phase = "completed"
)

// Position is a reconstructed point in a workout: which set and rep the
// machine should be in, and which phase. RestKind disambiguates rest phases
// (plan.RestBetweenReps or plan.RestBetweenSets).
type Position struct {
	Set      int
	Rep      int
	Phase    Phase
	RestKind string
}

// Replay reconstructs the exact position of a workout from its append-only
// step log. Only completed phases are in the log, so the position is always
// the phase after the last recorded step, entered with a fresh full-duration
// countdown - partial progress inside an interrupted phase is not preserved.
//
//   - a rep step advances into rest: between_reps while reps remain in the
//     set, between_sets after the set's last rep - unless that set was also
//     the last planned set, in which case the workout is complete
//   - a rest step advances into the next rep: between_reps increments the
//     rep, between_sets increments the set and resets the rep to 1
//   - a set_skipped step jumps to the next set's first rep, or completion if
//     it was the last set
//
// An empty log replays to awaiting_start.
func Replay(p plan.PlanParams, steps []plan.Step) Position {
	if len(steps) == 0 {
		return Position{Set: 1, Rep: 1, Phase: PhaseAwaitingStart}
	}

	pos := Position{Set: 1, Rep: 1, Phase: PhaseRep}
	for _, step := range steps {
		switch step.Kind {
		case plan.StepRep:
			if step.RepNumber >= p.Reps {
				if step.SetNumber >= p.Sets {
					return Position{Set: p.Sets, Rep: p.Reps, Phase: PhaseCompleted}
				}
				pos = Position{Set: step.SetNumber, Rep: step.RepNumber, Phase: PhaseRest, RestKind: plan.RestBetweenSets}
			} else {
				pos = Position{Set: step.SetNumber, Rep: step.RepNumber, Phase: PhaseRest, RestKind: plan.RestBetweenReps}
			}

		case plan.StepRest:
			if step.Note == plan.RestBetweenSets {
				pos = Position{Set: step.SetNumber + 1, Rep: 1, Phase: PhaseRep}
			} else {
				pos = Position{Set: step.SetNumber, Rep: step.RepNumber + 1, Phase: PhaseRep}
			}

		case plan.StepSetSkipped:
			if step.SetNumber >= p.Sets {
				return Position{Set: p.Sets, Rep: p.Reps, Phase: PhaseCompleted}
			}
			pos = Position{Set: step.SetNumber + 1, Rep: 1, Phase: PhaseRep}
		}
	}
	return pos
}
