// Package cli implements the betabreak command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/LookRain/betabreak/internal/catalog"
	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
	"github.com/LookRain/betabreak/internal/store"
	"github.com/LookRain/betabreak/internal/workout"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Catalog  string
	Owner    string
	Verbose  bool
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the betabreak CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "betabreak",
		Short: "betabreak - climbing training planner",
		Long:  "Schedule climbing training sessions, one-off or recurring, and execute timed workouts that survive interruption.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "betabreak.db", "path to the SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "catalog", "directory of CUE exercise definitions")
	cmd.PersistentFlags().StringVar(&opts.Owner, "owner", os.Getenv("BETABREAK_OWNER"), "owner identity")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewImpromptuCommand(opts))
	cmd.AddCommand(NewRecurCommand(opts))
	cmd.AddCommand(NewCalendarCommand(opts))
	cmd.AddCommand(NewMaterializeCommand(opts))
	cmd.AddCommand(NewCancelOccurrenceCommand(opts))
	cmd.AddCommand(NewUpdateSessionCommand(opts))
	cmd.AddCommand(NewRemoveSessionCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewNotesCommand(opts))
	cmd.AddCommand(NewUpdateSeriesCommand(opts))
	cmd.AddCommand(NewRemoveSeriesCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFinishCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env bundles the wired services behind the CLI.
type env struct {
	store  *store.Store
	sched  *scheduler.Service
	exec   *workout.Service
	logger *slog.Logger
}

// openEnv opens the database, loads the catalog and wires the services.
// Callers must Close.
func openEnv(opts *RootOptions) (*env, error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, err
	}
	lib, err := catalog.LoadDir(opts.Catalog)
	if err != nil {
		st.Close()
		return nil, err
	}

	clock := plan.SystemClock{}
	identity := scheduler.StaticIdentity{OwnerID: opts.Owner}
	return &env{
		store:  st,
		sched:  scheduler.New(st, clock, lib, identity),
		exec:   workout.NewService(st, clock),
		logger: logger,
	}, nil
}

func (e *env) Close() error { return e.store.Close() }
