/*
PURPOSE:
  High-level runner that orchestrates one batch.
  load -> acquire sampler -> for each instance: select, validate, submit,
  aggregate, persist.

REQUIREMENTS:
  User-specified:
  - Instances are processed strictly in input order, one at a time.
  - A bad or failing instance is logged with its index and skipped; the
    batch continues.
  - One line per saved instance and a final completion line.

  Implementation-discovered:
  - The results file is opened once, after setup succeeds, so a run that
    fails during setup never creates or touches it.
  - Interrupts cancel the context; records already written stay intact.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/dataset, internal/engine, internal/output, internal/selector

ERROR HANDLING:
  - Setup failures (load, selector compile, sampler acquisition, opening
    outputs) are returned and end the run.
  - Per-instance failures are logged and counted, never returned.

IMPLEMENTATION RULES:
  - No parallelism, no retries at this level.

USAGE:
  engine.Run(ctx, cfg)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/submit.go

MAINTENANCE:
  - Update iteration logic if parallelism is introduced.
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daryltucker/anneal-runner/internal/config"
	"github.com/daryltucker/anneal-runner/internal/dataset"
	"github.com/daryltucker/anneal-runner/internal/model"
	"github.com/daryltucker/anneal-runner/internal/output"
	"github.com/daryltucker/anneal-runner/internal/selector"
)

// ErrInterrupted is returned when the run is cancelled between or during
// instances.
var ErrInterrupted = errors.New("run interrupted")

// Report counts instance outcomes of a run.
type Report struct {
	RunID    string
	Total    int
	Saved    int
	Skipped  int // missing keys
	Filtered int // rejected by the select expression
	Failed   int
}

// Run executes one batch with cfg against the configured solver service.
func Run(ctx context.Context, cfg *config.Config) error {
	_, err := New(cfg).Run(ctx)
	return err
}

// summaryWriters fans summaries out to the optional side outputs.
type summaryWriters struct {
	csv  *output.CSVWriter
	json *output.JSONWriter
}

func openSummaries(cfg *config.Config) (*summaryWriters, error) {
	sw := &summaryWriters{}
	if cfg.SummaryCSV != "" {
		w, err := output.NewCSVWriter(cfg.SummaryCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to init CSV writer at %s: %w", cfg.SummaryCSV, err)
		}
		sw.csv = w
	}
	if cfg.SummaryJSONL != "" {
		w, err := output.NewJSONWriter(cfg.SummaryJSONL)
		if err != nil {
			sw.Close()
			return nil, fmt.Errorf("failed to init JSON writer at %s: %w", cfg.SummaryJSONL, err)
		}
		sw.json = w
	}
	return sw, nil
}

func (sw *summaryWriters) Write(s model.Summary) {
	if sw.csv != nil {
		if err := sw.csv.Write(s); err != nil {
			output.Logger.Error("Failed to write summary to CSV", "error", err)
		}
	}
	if sw.json != nil {
		if err := sw.json.Write(s); err != nil {
			output.Logger.Error("Failed to write summary to JSON", "error", err)
		}
	}
}

func (sw *summaryWriters) Close() {
	if sw.csv != nil {
		sw.csv.Close()
	}
	if sw.json != nil {
		sw.json.Close()
	}
}

// closeResults closes rw and logs a failure. Records are synced as they are
// written, so a close error loses nothing already reported as saved.
func closeResults(rw *output.ResultsWriter) {
	if err := rw.Close(); err != nil {
		output.Logger.Warn("Failed to close results file", "path", rw.Path(), "error", err)
	}
}

// Run executes the batch and reports what happened to each instance.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	cfg := e.Config
	report := Report{RunID: e.RunID}

	// 1. Load
	instances, err := dataset.LoadAll(cfg.InputPath)
	if err != nil {
		return report, &SetupError{Stage: "load", Err: err}
	}
	report.Total = len(instances)
	output.Logger.Info("Loaded instances", "path", cfg.InputPath, "count", len(instances))

	sel, err := selector.Compile(cfg.Select)
	if err != nil {
		return report, &SetupError{Stage: "select", Err: err}
	}
	params, err := ParamsFromConfig(cfg)
	if err != nil {
		return report, &SetupError{Stage: "config", Err: err}
	}

	// 2. Acquire
	solver := cfg.Solver
	if solver == "" {
		first := instances[0]
		if !first.Has(model.FieldSolver) || first.Solver == "" {
			return report, &SetupError{Stage: "acquire", Err: &model.MissingFieldError{Index: first.Index, Fields: []string{model.FieldSolver}}}
		}
		solver = first.Solver
	}
	sampler, err := e.Connect(ctx, solver)
	if err != nil {
		return report, &SetupError{Stage: "acquire", Err: err}
	}

	// 3. Outputs
	results, err := output.OpenResults(cfg.OutputPath)
	if err != nil {
		return report, &SetupError{Stage: "output", Err: err}
	}
	defer closeResults(results)

	summaries, err := openSummaries(cfg)
	if err != nil {
		return report, &SetupError{Stage: "output", Err: err}
	}
	defer summaries.Close()

	// 4. Instances
	for _, inst := range instances {
		if ctx.Err() != nil {
			output.Logger.Warn("Run interrupted", "next_index", inst.Index, "saved", report.Saved)
			return report, ErrInterrupted
		}

		sum := model.Summary{
			RunID:     e.RunID,
			Index:     inst.Index,
			Solver:    solver,
			Timestamp: time.Now(),
		}

		ok, err := sel.Match(inst)
		if err != nil {
			output.Logger.Warn("Skipping instance (select failed)", "index", inst.Index, "error", err)
			report.Filtered++
			continue
		}
		if !ok {
			output.Logger.Info("Skipping instance (not selected)", "index", inst.Index, "select", sel.String())
			report.Filtered++
			continue
		}

		if err := inst.Validate(); err != nil {
			output.Logger.Warn("Skipping instance", "index", inst.Index, "error", err)
			report.Skipped++
			sum.Status = model.StatusSkipped
			sum.Error = err.Error()
			summaries.Write(sum)
			continue
		}

		start := time.Now()
		ss, err := Submit(ctx, sampler, solver, inst, params)
		sum.Duration = time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				output.Logger.Warn("Run interrupted", "index", inst.Index, "saved", report.Saved)
				return report, ErrInterrupted
			}
			output.Logger.Error("An error occurred during sampling", "index", inst.Index, "error", err)
			report.Failed++
			sum.Status = model.StatusFailed
			sum.Error = err.Error()
			summaries.Write(sum)
			continue
		}

		ss = Aggregate(ss)
		if err := results.Write(ss); err != nil {
			output.Logger.Error("Failed to save result", "index", inst.Index, "error", err)
			report.Failed++
			sum.Status = model.StatusFailed
			sum.Error = err.Error()
			summaries.Write(sum)
			continue
		}

		report.Saved++
		sum.Status = model.StatusSaved
		sum.ProblemID = ss.Info.ProblemID
		sum.NumRows = len(ss.Records)
		sum.NumReads = ss.NumReads()
		sum.LowestEnergy = ss.LowestEnergy()
		sum.MeanChainBreak = ss.MeanChainBreak()
		summaries.Write(sum)

		output.Logger.Info("Instance sampled and saved",
			"index", inst.Index,
			"problem_id", ss.Info.ProblemID,
			"rows", sum.NumRows,
			"lowest_energy", sum.LowestEnergy,
			"duration", sum.Duration.Round(time.Millisecond),
		)
	}

	output.Logger.Info("All instances have been processed",
		"run_id", e.RunID,
		"total", report.Total,
		"saved", report.Saved,
		"skipped", report.Skipped,
		"filtered", report.Filtered,
		"failed", report.Failed,
		"output", cfg.OutputPath,
	)
	return report, nil
}
