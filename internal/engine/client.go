/*
PURPOSE:
  Core engine for interacting with the solver service.
  Holds the run configuration and acquires the one sampler a run uses.

REQUIREMENTS:
  User-specified:
  - Acquire the sampler exactly once, from the first instance's solver id.
  - Token comes from configuration, never from the dataset.

  Implementation-discovered:
  - Tests need to swap the remote sampler for a fake; Connect is a field.
  - Transport retries belong to the HTTP client (resty); the engine itself
    submits each instance once.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/config, internal/sapi, internal/selector

ERROR HANDLING:
  - Acquisition failures are returned as-is (AuthError, SolverNotFoundError)
    and are fatal for the run.

IMPLEMENTATION RULES:
  - One Sampler per run.
  - Every blocking call takes a context.

USAGE:
  e := engine.New(cfg)
  report, err := e.Run(ctx)

SELF-HEALING INSTRUCTIONS:
  - If the service changes auth, update sapi.RemoteConnection, not this file.

RELATED FILES:
  - internal/config/config.go
  - internal/sapi/sapi.go

MAINTENANCE:
  - Update Sampler when the engine needs more from the solver.
*/

package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/daryltucker/anneal-runner/internal/config"
	"github.com/daryltucker/anneal-runner/internal/output"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// Sampler is a solver that accepts embedded Ising problems.
type Sampler interface {
	SolveIsing(ctx context.Context, p sapi.Problem, sp sapi.QuantumSolverParameters) (sapi.IsingResult, error)
	Properties() *sapi.SolverProperties
}

// ConnectFunc acquires a sampler by solver id.
type ConnectFunc func(ctx context.Context, solver string) (Sampler, error)

// Engine runs one batch.
type Engine struct {
	Config  *config.Config
	Connect ConnectFunc
	RunID   string
}

// New creates a new Engine that talks to the configured solver service.
func New(cfg *config.Config) *Engine {
	e := &Engine{
		Config: cfg,
		RunID:  uuid.NewString(),
	}
	e.Connect = e.connectRemote
	return e
}

// Options translates the configuration into connection options.
func Options(cfg *config.Config) sapi.Options {
	return sapi.Options{
		Timeout:      cfg.Timeout,
		PollInterval: cfg.PollInterval,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
	}
}

func (e *Engine) connectRemote(ctx context.Context, solver string) (Sampler, error) {
	conn, err := sapi.RemoteConnection(e.Config.Endpoint, e.Config.Token, Options(e.Config))
	if err != nil {
		return nil, err
	}
	output.Logger.Info("Acquiring solver", "solver", solver, "endpoint", conn.Endpoint)
	s, err := conn.GetSolver(ctx, solver)
	if err != nil {
		return nil, err
	}
	props := s.Properties()
	output.Logger.Info("Solver acquired",
		"solver", solver,
		"num_qubits", props.NumQubits,
		"working_qubits", len(props.Qubits),
		"couplers", len(props.Couplers),
	)
	return s, nil
}

// SetupError reports a failure before the first instance was submitted.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
