/*
PURPOSE:
  Defines the 'run' subcommand.
  Submits every instance of the dataset and appends the results.

REQUIREMENTS:
  User-specified:
  - Run the batch.
  - Flags override the config file for paths, credentials and parameters.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config, then validate.
  - Ctrl-C must stop between instances and leave the results file intact.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load, validation or engine setup fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Engine.Run.

USAGE:
  anneal-runner run -i data_20.msgpack -o results.msgpack

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config yaml keys generally.

RELATED FILES:
  - internal/cli/root.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/anneal-runner/internal/config"
	"github.com/daryltucker/anneal-runner/internal/engine"
)

var runFlags struct {
	input, output         string
	endpoint, token       string
	solver                string
	numReads              int
	annealingTime         float64
	chainStrength         float64
	fastAnneal, autoScale bool
	answerMode            string
	chainBreak            string
	selectExpr            string
	summaryCSV            string
	summaryJSONL          string
	pollInterval, timeout time.Duration
	maxRetries            int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample every instance of a dataset",
	Long: `Loads every instance from the input file, acquires the solver named by the
first instance (or --solver), and processes instances in order:
1. Validation: instances missing embedding, J or h are skipped.
2. Sampling: the couplings are embedded with the fixed chain strength and
   submitted once with the fixed parameter set; h is sent as flux biases.
3. Persistence: the answer is unembedded, aggregated and appended to the
   output file as one {sampleset} record.

A failed instance is logged with its index and the batch continues.`,
	Example: `  # Run with defaults (uses anneal_runner.yaml if present)
  anneal-runner run

  # Explicit files and token
  anneal-runner run -i data_20.msgpack -o results.msgpack --token $DWAVE_API_TOKEN

  # Dry run against a local solver (see serve-local)
  anneal-runner run --endpoint http://127.0.0.1:8686/sapi --solver chimera-local

  # Only even instances, with per-instance summaries
  anneal-runner run --select 'index % 2 == 0' --summary-csv summary.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// 3. Execution
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return engine.Run(ctx, cfg)
	},
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath = runFlags.input
	}
	if f.Changed("output") {
		cfg.OutputPath = runFlags.output
	}
	if f.Changed("endpoint") {
		cfg.Endpoint = runFlags.endpoint
	}
	if f.Changed("token") {
		cfg.Token = runFlags.token
	}
	if f.Changed("solver") {
		cfg.Solver = runFlags.solver
	}
	if f.Changed("num-reads") {
		cfg.NumReads = runFlags.numReads
	}
	if f.Changed("annealing-time") {
		cfg.AnnealingTime = runFlags.annealingTime
	}
	if f.Changed("chain-strength") {
		cfg.ChainStrength = runFlags.chainStrength
	}
	if f.Changed("fast-anneal") {
		cfg.FastAnneal = runFlags.fastAnneal
	}
	if f.Changed("auto-scale") {
		cfg.AutoScale = runFlags.autoScale
	}
	if f.Changed("answer-mode") {
		cfg.AnswerMode = runFlags.answerMode
	}
	if f.Changed("chain-break") {
		cfg.ChainBreakMethod = runFlags.chainBreak
	}
	if f.Changed("select") {
		cfg.Select = runFlags.selectExpr
	}
	if f.Changed("summary-csv") {
		cfg.SummaryCSV = runFlags.summaryCSV
	}
	if f.Changed("summary-jsonl") {
		cfg.SummaryJSONL = runFlags.summaryJSONL
	}
	if f.Changed("poll-interval") {
		cfg.PollInterval = runFlags.pollInterval
	}
	if f.Changed("timeout") {
		cfg.Timeout = runFlags.timeout
	}
	if f.Changed("max-retries") {
		cfg.MaxRetries = runFlags.maxRetries
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	d := config.DefaultConfig()
	f := runCmd.Flags()
	f.StringVarP(&runFlags.input, "input", "i", d.InputPath, "Input dataset (concatenated MessagePack records)")
	f.StringVarP(&runFlags.output, "output", "o", d.OutputPath, "Results file, appended to")
	f.StringVar(&runFlags.endpoint, "endpoint", d.Endpoint, "Solver API endpoint")
	f.StringVar(&runFlags.token, "token", "", "Solver API token (prefer DWAVE_API_TOKEN)")
	f.StringVar(&runFlags.solver, "solver", "", "Solver id (default: the first instance's solver)")
	f.IntVar(&runFlags.numReads, "num-reads", d.NumReads, "Reads per instance")
	f.Float64Var(&runFlags.annealingTime, "annealing-time", d.AnnealingTime, "Annealing time in microseconds, sent to the solver unchanged")
	f.Float64Var(&runFlags.chainStrength, "chain-strength", d.ChainStrength, "Chain coupling strength")
	f.BoolVar(&runFlags.fastAnneal, "fast-anneal", d.FastAnneal, "Use the fast-anneal protocol")
	f.BoolVar(&runFlags.autoScale, "auto-scale", d.AutoScale, "Let the solver rescale h and J")
	f.StringVar(&runFlags.answerMode, "answer-mode", d.AnswerMode, "raw or histogram")
	f.StringVar(&runFlags.chainBreak, "chain-break", d.ChainBreakMethod, "majority_vote or discard")
	f.StringVar(&runFlags.selectExpr, "select", "", "Only sample instances matching this expression")
	f.StringVar(&runFlags.summaryCSV, "summary-csv", "", "Write per-instance summaries to this CSV file")
	f.StringVar(&runFlags.summaryJSONL, "summary-jsonl", "", "Write per-instance summaries to this JSON Lines file")
	f.DurationVar(&runFlags.pollInterval, "poll-interval", d.PollInterval, "Delay between problem status polls")
	f.DurationVar(&runFlags.timeout, "timeout", d.Timeout, "Per-request timeout")
	f.IntVar(&runFlags.maxRetries, "max-retries", d.MaxRetries, "Retries on connection errors")
}
