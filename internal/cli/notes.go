package cli

import (
	"github.com/spf13/cobra"
)

// NewNotesCommand creates the notes command: set the notes on a session,
// allowed even after completion.
func NewNotesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "notes <session-id> <text>",
		Short:         "Set free-text notes on a session",
		Example:       `  betabreak notes 4f2c... "felt strong, add 5kg next time"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.sched.BackfillNotes(cmd.Context(), args[0], args[1])
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
