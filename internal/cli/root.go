/*
PURPOSE:
  Defines the root Cobra command for the anneal-runner CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Every command loads configuration the same way: file, then env.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/anneal-runner/main.go
  - Calls: Child commands (run, list-solvers, inspect, serve-local)
  - Modifies: Global configuration state (temporarily, until passed down).

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Cobra's own error printing is silenced; main.go prints once.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/anneal-runner/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/anneal-runner/internal/config"
	"github.com/daryltucker/anneal-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	// logLevel overrides log_level from the config file
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "anneal-runner",
		Short: "Batch submitter for Ising problems on annealing solvers",
		Long: `Loads precomputed Ising instances (couplings, embedding, flux biases),
samples each one once on a remote annealing solver and appends the
aggregated sample sets to a results file. Use 'run --help' for options.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return output.SetLevel(logLevel)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// loadConfig reads the config file (or defaults) and applies environment
// overrides. Flag overrides are applied by each command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if logLevel == "" {
		if err := output.SetLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if cfg.Source != "" {
		output.Logger.Debug("Loaded config", "path", cfg.Source)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./anneal_runner.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
