// Package cmd defines and implements the CLI commands for the harvester executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/app"
	"github.com/JakeFAU/jobboard-harvester/internal/config"
	"github.com/JakeFAU/jobboard-harvester/internal/logging"
)

// envKeyType is the key for storing the command environment in the context.
type envKeyType string

const envKey envKeyType = "env"

// env carries what PersistentPreRunE built for the subcommand.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	app    *app.App
}

func (e *env) close() error {
	if e == nil {
		return nil
	}
	var err error
	if e.app != nil {
		err = e.app.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
	}
	return err
}

// newApp is the backend factory. It's a variable so tests can replace it.
var newApp = app.NewApp

// newRootCmd creates and configures the root command. The returned env is
// populated once a subcommand starts and must be closed by the caller.
func newRootCmd() (*cobra.Command, *env) {
	var cfgFile string
	state := &env{}

	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Harvests job listings from a paginated job board into a CSV table.",
		Long: `harvester walks the index pages of a job board, visits every listing
they advertise with a bounded pool of workers, and writes one normalized row
per listing to a CSV file. Rows can also be mirrored to Postgres, the CSV
archived locally or uploaded to GCS, and a run summary published to Pub/Sub.`,
		SilenceUsage: true,

		// Runs before the subcommand's RunE, after flags are parsed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load() //nolint:errcheck // .env is optional

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.logger = logger

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			state.app = a

			cmd.SetContext(context.WithValue(cmd.Context(), envKey, state))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	cmd.AddCommand(newCrawlCmd())

	return cmd, state
}

func envFrom(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil || e.app == nil {
		return nil, errors.New("application services not initialized")
	}
	return e, nil
}

// Execute runs the CLI until it finishes or ctx is canceled and returns the
// process exit code.
func Execute(ctx context.Context, args []string) int {
	root, state := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := state.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", cerr)
	}
	if err != nil {
		return 1
	}
	return 0
}
