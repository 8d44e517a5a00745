package cli

import (
	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
)

// NewFinishCommand creates the finish command: seal an execution log.
func NewFinishCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		stoppedEarly bool
		notes        string
	)

	cmd := &cobra.Command{
		Use:           "finish <log-id>",
		Short:         "Seal an execution log and mark its session completed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			outcome := plan.LogCompleted
			if stoppedEarly {
				outcome = plan.LogStoppedEarly
			}
			log, err := e.exec.FinishExecution(cmd.Context(), args[0], outcome, notes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), log)
		},
	}
	cmd.Flags().BoolVar(&stoppedEarly, "stopped-early", false, "seal as stopped_early instead of completed")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes to keep on the log")
	return cmd
}
