package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
)

// NewUpdateSessionCommand creates the update-session command.
func NewUpdateSessionCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		date      string
		overrides []string
	)

	cmd := &cobra.Command{
		Use:           "update-session <session-id>",
		Short:         "Edit an upcoming session's day or parameters",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			patch := scheduler.SessionPatch{Overrides: vars}
			if date != "" {
				d, err := plan.ParseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.UpdateOccurrence(cmd.Context(), args[0], patch)
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
	cmd.Flags().StringVar(&date, "date", "", "move the session to this day")
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "parameter override key=value (repeatable)")
	return cmd
}

// NewRemoveSessionCommand creates the remove-session command.
func NewRemoveSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "remove-session <session-id>",
		Short:         "Remove an upcoming session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.sched.RemoveUpcomingSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
	return cmd
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "complete <session-id>",
		Short:         "Mark a session completed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.CompleteSession(cmd.Context(), args[0])
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
	return cmd
}
