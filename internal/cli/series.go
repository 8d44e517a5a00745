package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/plan"
)

// NewUpdateSeriesCommand creates the update-series command: change a rule's
// parameters for this and all future occurrences.
func NewUpdateSeriesCommand(rootOpts *RootOptions) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:           "update-series <rule-id> <effective-from>",
		Short:         "Change a series' parameters from a date forward",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := plan.ParseDate(args[1])
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

			rule, err := e.sched.UpdateRuleFromDate(cmd.Context(), args[0], from, vars)
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
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "parameter override key=value (repeatable)")
	return cmd
}

// NewRemoveSeriesCommand creates the remove-series command: delete this and
// all future occurrences of a rule.
func NewRemoveSeriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "remove-series <rule-id> <effective-from>",
		Short:         "Remove a series' occurrences from a date forward",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := plan.ParseDate(args[1])
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.sched.RemoveRuleFromDate(cmd.Context(), args[0], from)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			state := "series still active before the cut"
			if !res.Active {
				state = "series deactivated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d scheduled session(s); %s\n", res.RemovedCount, state)
			return nil
		},
	}
	return cmd
}
