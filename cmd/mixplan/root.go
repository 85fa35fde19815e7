package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	// plan overrides, applied on top of the config file when the flag is set
	policy    string
	batchSize int
	seed      int64
	epochs    int
	dropLast  bool
	noShuffle bool

	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mixplan",
		Short:         "Inspect multi-dataset batch schedules",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.logLevel)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML or JSON plan file (default: built-in example plan)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&opts.policy, "policy", "", "interleaving policy: round-robin or proportional (overrides plan file)")
	pf.IntVar(&opts.batchSize, "batch-size", 0, "batch size (overrides plan file)")
	pf.Int64Var(&opts.seed, "seed", 0, "base random seed (overrides plan file)")
	pf.IntVar(&opts.epochs, "epochs", 0, "number of epochs to schedule (overrides plan file)")
	pf.BoolVar(&opts.dropLast, "drop-last", false, "drop short final batches (overrides plan file)")
	pf.BoolVar(&opts.noShuffle, "no-shuffle", false, "keep dataset indices in ascending order (overrides plan file)")

	cmd.AddCommand(newInitCmd(), newPlanCmd(opts), newPlotCmd(opts))
	return cmd
}

// newLogger builds a console logger; an unknown level falls back to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
