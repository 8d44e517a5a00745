package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
)

// NewMaterializeCommand creates the materialize command: turn a virtual
// occurrence into a concrete session row.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "materialize <rule-id> <date>",
		Short:         "Turn a recurring occurrence into an editable session",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.Materialize(cmd.Context(), args[0], date)
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

// NewCancelOccurrenceCommand creates the cancel-occurrence command: remove a
// single occurrence of a recurring series.
func NewCancelOccurrenceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cancel-occurrence <rule-id> <date>",
		Short:         "Remove one occurrence of a recurring series",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.sched.CancelOccurrence(cmd.Context(), args[0], date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "canceled occurrence on %s\n", date)
			return nil
		},
	}
	return cmd
}
