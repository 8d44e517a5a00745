package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
)

// NewAddCommand creates the add command: schedule a one-off session.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "add <exercise> <date>",
		Short: "Schedule a one-off session",
		Example: `  betabreak add hangboard 2026-09-07
  betabreak add hangboard 2026-09-07 --override sets=4 --override rest=120`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}
			vars, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.AddSession(cmd.Context(), args[0], date, vars)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), sess)
			}
			printSession(cmd.OutOrStdout(), sess)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "parameter override key=value (repeatable)")
	return cmd
}

// NewImpromptuCommand creates the impromptu command: schedule for today and
// print the session ready to run.
func NewImpromptuCommand(rootOpts *RootOptions) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:           "impromptu <exercise>",
		Short:         "Start an unplanned session scheduled for today",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.StartImpromptuSession(cmd.Context(), args[0], vars)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), sess)
			}
			printSession(cmd.OutOrStdout(), sess)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "parameter override key=value (repeatable)")
	return cmd
}

// NewRecurCommand creates the recur command: create a recurring series.
func NewRecurCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		frequency string
		interval  int
		weekdays  string
		until     string
		overrides []string
	)

	cmd := &cobra.Command{
		Use:   "recur <exercise> <start-date>",
		Short: "Create a recurring session series",
		Long: `Create a recurring series of an exercise. Occurrences are computed at
read time; no rows are written until an occurrence is started, edited or
canceled.`,
		Example: `  betabreak recur hangboard 2026-09-07 --freq weekly --weekdays 1,3
  betabreak recur campus 2026-09-01 --freq monthly --interval 2 --until 2027-03-01`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}
			vars, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			days, err := parseWeekdays(weekdays)
			if err != nil {
				return err
			}

			rec := plan.Recurrence{
				Frequency: plan.Frequency(frequency),
				Interval:  interval,
			}
			for _, d := range days {
				rec.ByWeekdays = append(rec.ByWeekdays, time.Weekday(d))
			}
			if until != "" {
				u, err := plan.ParseDate(until)
				if err != nil {
					return err
				}
				rec.Until = &u
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			rule, err := e.sched.AddRecurringSeries(cmd.Context(), args[0], start, rec, vars)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), rule)
			}
			printRule(cmd.OutOrStdout(), rule)
			return nil
		},
	}
	cmd.Flags().StringVar(&frequency, "freq", "weekly", "frequency (daily|weekly|monthly)")
	cmd.Flags().IntVar(&interval, "interval", 1, "repeat every N days/weeks/months")
	cmd.Flags().StringVar(&weekdays, "weekdays", "", "weekly only: comma list of weekdays 0-6, Sunday=0")
	cmd.Flags().StringVar(&until, "until", "", "last day the series may fire (inclusive)")
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "parameter override key=value (repeatable)")
	return cmd
}
