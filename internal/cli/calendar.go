package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
)

// NewCalendarCommand creates the calendar command: list concrete and virtual
// sessions in a date range.
func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calendar <from> <to>",
		Short:         "List sessions in a date range, planned and recurring",
		Example:       `  betabreak calendar 2026-09-01 2026-09-30`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := plan.ParseDate(args[0])
			if err != nil {
				return err
			}
			to, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			view, err := e.sched.ListSessions(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), view)
			}
			renderCalendar(cmd.OutOrStdout(), view)
			return nil
		},
	}
	return cmd
}

// renderCalendar writes the text calendar. Virtual occurrences are marked
// with a tilde and show their rule id; today gets an arrow.
func renderCalendar(w io.Writer, view *scheduler.CalendarView) {
	if len(view.Sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return
	}
	for _, sess := range view.Sessions {
		marker := "  "
		if sess.When().Equal(view.Today) {
			marker = "> "
		}
		switch s := sess.(type) {
		case plan.Concrete:
			status := ""
			if s.Completed() {
				status = "  [completed]"
			}
			fmt.Fprintf(w, "%s%s  %s  %s%s\n", marker, s.ScheduledFor, s.ID, displayTitle(s.Snapshot.Title), status)
		case plan.VirtualOccurrence:
			fmt.Fprintf(w, "%s%s  ~ %s  (series %s)\n", marker, s.Date, displayTitle(s.Snapshot.Title), s.RuleID)
		}
	}
	fmt.Fprintf(w, "today: %s\n", view.Today)
}
