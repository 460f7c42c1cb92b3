// This file presents solver-related types and functions.

package sapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// A Topology describes the shape of the solver's qubit graph.
type Topology struct {
	Type  string `json:"type"`
	Shape []int  `json:"shape"`
}

// SolverProperties represents a solver's properties. Qubits and Couplers
// list only the working parts of the graph; NumQubits counts every qubit,
// working or not.
type SolverProperties struct {
	NumQubits             int                    `json:"num_qubits" validate:"gt=0"`
	Qubits                []int                  `json:"qubits" validate:"min=1"`
	Couplers              [][2]int               `json:"couplers"`
	SupportedProblemTypes []string               `json:"supported_problem_types"`
	HRange                [2]float64             `json:"h_range"`
	JRange                [2]float64             `json:"j_range"`
	AnnealingTimeRange    [2]float64             `json:"annealing_time_range"`
	Topology              *Topology              `json:"topology,omitempty"`
	Parameters            map[string]interface{} `json:"parameters,omitempty"`
}

// Validate checks that the properties describe a usable graph.
func (p *SolverProperties) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	working := p.workingSet()
	for _, q := range p.Qubits {
		if q < 0 || q >= p.NumQubits {
			return fmt.Errorf("qubit %d outside [0, %d)", q, p.NumQubits)
		}
	}
	for _, c := range p.Couplers {
		if !working[c[0]] || !working[c[1]] {
			return fmt.Errorf("coupler (%d, %d) joins a non-working qubit", c[0], c[1])
		}
	}
	return nil
}

// Supports reports whether the solver accepts a given problem type.
func (p *SolverProperties) Supports(problemType string) bool {
	if len(p.SupportedProblemTypes) == 0 {
		return true
	}
	return slices.Contains(p.SupportedProblemTypes, problemType)
}

func (p *SolverProperties) workingSet() map[int]bool {
	w := make(map[int]bool, len(p.Qubits))
	for _, q := range p.Qubits {
		w[q] = true
	}
	return w
}

func (p *SolverProperties) couplerSet() map[[2]int]bool {
	c := make(map[[2]int]bool, len(p.Couplers))
	for _, cp := range p.Couplers {
		c[pairKey(cp[0], cp[1])] = true
	}
	return c
}

// SolverInfo is the description the service returns for a solver.
type SolverInfo struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	Properties  *SolverProperties `json:"properties"`
}

// A Solver represents a remote solver.
type Solver struct {
	Name  string            // Solver name
	Conn  *Connection       // Connection with which this solver is associated
	Props *SolverProperties // Properties fetched when the solver was acquired
}

// Solvers returns the solvers available on the connection.
func (c *Connection) Solvers(ctx context.Context) ([]SolverInfo, error) {
	var infos []SolverInfo
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&infos).
		Get("/solvers/remote/")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to solver service at %s: %w", c.Endpoint, err)
	}
	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetSolver returns a solver associated with a given connection.
func (c *Connection) GetSolver(ctx context.Context, name string) (*Solver, error) {
	var info SolverInfo
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/solvers/remote/" + url.PathEscape(name) + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to solver service at %s: %w", c.Endpoint, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &SolverNotFoundError{Solver: name, Endpoint: c.Endpoint}
	}
	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}
	if info.Properties == nil {
		return nil, fmt.Errorf("solver %q returned no properties", name)
	}
	if err := info.Properties.Validate(); err != nil {
		return nil, fmt.Errorf("solver %q has invalid properties: %w", name, err)
	}
	if !info.Properties.Supports("ising") {
		return nil, fmt.Errorf("solver %q does not accept ising problems (supports %s)",
			name, strings.Join(info.Properties.SupportedProblemTypes, ", "))
	}
	return &Solver{Name: name, Conn: c, Props: info.Properties}, nil
}

// Properties returns the properties of the solver.
func (s *Solver) Properties() *SolverProperties {
	return s.Props
}

// SolveIsing submits an Ising-model problem and waits for its answer.
func (s *Solver) SolveIsing(ctx context.Context, p Problem, sp QuantumSolverParameters) (IsingResult, error) {
	sub, err := s.AsyncSolveIsing(ctx, p, sp)
	if err != nil {
		return IsingResult{}, err
	}
	if err := sub.AwaitCompletion(ctx); err != nil {
		return IsingResult{}, err
	}
	return sub.Result()
}
