package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/workout"
)

// NewRunCommand creates the run command: execute a session's timed workout.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <session-id>",
		Short: "Execute a session's timed workout",
		Long: `Run a session through its prep/rep/rest phases against the wall clock.
Every completed phase is persisted immediately, so an interrupted run
(Ctrl-C, crash, power loss) resumes from the last completed phase when
started again.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkout(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runWorkout(cmd *cobra.Command, rootOpts *RootOptions, sessionID string) error {
	e, err := openEnv(rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := e.exec.Resume(ctx, sessionID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if m.Phase() == workout.PhaseCompleted {
		fmt.Fprintln(out, "workout already completed")
		return nil
	}
	if pos := m.Position(); pos.Phase != workout.PhaseAwaitingStart {
		fmt.Fprintf(out, "resuming at set %d, rep %d (%s)\n", pos.Set, pos.Rep, pos.Phase)
	}
	m.Begin()
	announce(out, m)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Interrupted: completed phases are already durable, but an
			// explicit stop seals the log.
			if err := m.Stop(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nstopped early")
			printSummary(out, m.Summary())
			return nil

		case <-ticker.C:
			transitioned, err := m.Poll(ctx)
			if err != nil {
				return err
			}
			if !transitioned {
				continue
			}
			if m.Phase() == workout.PhaseCompleted {
				fmt.Fprintln(out, "workout complete")
				printSummary(out, m.Summary())
				return nil
			}
			announce(out, m)
		}
	}
}

func announce(w io.Writer, m *workout.Machine) {
	pos := m.Position()
	switch pos.Phase {
	case workout.PhasePrep:
		fmt.Fprintf(w, "prep (%s)\n", m.Remaining().Round(time.Second))
	case workout.PhaseRep:
		fmt.Fprintf(w, "set %d rep %d - work (%s)\n", pos.Set, pos.Rep, m.Remaining().Round(time.Second))
	case workout.PhaseRest:
		fmt.Fprintf(w, "set %d rep %d - rest %s (%s)\n", pos.Set, pos.Rep, pos.RestKind, m.Remaining().Round(time.Second))
	}
}

func printSummary(w io.Writer, s plan.Summary) {
	fmt.Fprintf(w, "reps %d, sets %d, skipped %d, work %s, rest %s\n",
		s.CompletedReps, s.CompletedSets, s.SkippedSets,
		time.Duration(s.WorkMs)*time.Millisecond,
		time.Duration(s.RestMs)*time.Millisecond)
}
