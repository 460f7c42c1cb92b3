// This file presents the asynchronous submission path: submit, poll, fetch.

package sapi

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// A RemoteStatus represents the status of a problem on the service.
type RemoteStatus string

// These are the values a RemoteStatus can take.
const (
	StatusPending    RemoteStatus = "PENDING"
	StatusInProgress RemoteStatus = "IN_PROGRESS"
	StatusCompleted  RemoteStatus = "COMPLETED"
	StatusFailed     RemoteStatus = "FAILED"
	StatusCancelled  RemoteStatus = "CANCELLED"
)

// Done reports whether the status is terminal.
func (s RemoteStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Known reports whether s is one of the statuses the service defines.
func (s RemoteStatus) Known() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ProblemStatus is the service's view of a submitted problem.
type ProblemStatus struct {
	ID           string       `json:"id"`
	Solver       string       `json:"solver,omitempty"`
	Status       RemoteStatus `json:"status"`
	SubmittedOn  string       `json:"submitted_on,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Answer       *AnswerData  `json:"answer,omitempty"`
}

// ProblemSubmission is one entry of a POST /problems/ body.
type ProblemSubmission struct {
	Solver string                  `json:"solver" binding:"required"`
	Type   string                  `json:"type" binding:"required"`
	Data   ProblemData             `json:"data"`
	Params QuantumSolverParameters `json:"params"`
}

// A SubmittedProblem represents a problem submitted to the service that may
// not have finished yet.
type SubmittedProblem struct {
	solver *Solver
	status ProblemStatus
}

// AsyncSolveIsing submits an Ising problem and returns without waiting for
// it to complete.
func (s *Solver) AsyncSolveIsing(ctx context.Context, p Problem, sp QuantumSolverParameters) (*SubmittedProblem, error) {
	data, err := EncodeProblem(p, s.Props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode problem for %s: %w", s.Name, err)
	}
	body := []ProblemSubmission{{
		Solver: s.Name,
		Type:   "ising",
		Data:   data,
		Params: sp,
	}}

	var statuses []ProblemStatus
	resp, err := s.Conn.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&statuses).
		Post("/problems/")
	if err != nil {
		return nil, fmt.Errorf("failed to submit problem to %s: %w", s.Conn.Endpoint, err)
	}
	if err := s.Conn.checkResponse(resp); err != nil {
		return nil, err
	}
	if len(statuses) != 1 {
		return nil, fmt.Errorf("expected 1 problem status from %s, got %d", s.Conn.Endpoint, len(statuses))
	}
	return &SubmittedProblem{solver: s, status: statuses[0]}, nil
}

// ID returns the problem's remote ID.
func (sp *SubmittedProblem) ID() string {
	return sp.status.ID
}

// Status returns the last status seen for the problem.
func (sp *SubmittedProblem) Status() RemoteStatus {
	return sp.status.Status
}

// Refresh fetches the current status of the problem.
func (sp *SubmittedProblem) Refresh(ctx context.Context) error {
	conn := sp.solver.Conn
	var st ProblemStatus
	resp, err := conn.client.R().
		SetContext(ctx).
		SetResult(&st).
		Get("/problems/" + url.PathEscape(sp.status.ID) + "/")
	if err != nil {
		return fmt.Errorf("failed to poll problem %s: %w", sp.status.ID, err)
	}
	if err := conn.checkResponse(resp); err != nil {
		return err
	}
	sp.status = st
	return nil
}

// AwaitCompletion polls the problem until it reaches a terminal state or ctx
// is done. A problem that ends FAILED or CANCELLED yields a *ProblemError.
// A status the service does not define stops polling with an error.
func (sp *SubmittedProblem) AwaitCompletion(ctx context.Context) error {
	ticker := time.NewTicker(sp.solver.Conn.opts.PollInterval)
	defer ticker.Stop()

	for !sp.status.Status.Done() {
		if !sp.status.Status.Known() {
			return fmt.Errorf("problem %s has unrecognised status %q", sp.status.ID, sp.status.Status)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := sp.Refresh(ctx); err != nil {
			return err
		}
	}

	if sp.status.Status != StatusCompleted {
		return &ProblemError{
			ProblemID: sp.status.ID,
			Status:    sp.status.Status,
			Message:   sp.status.ErrorMessage,
		}
	}
	return nil
}

// Result decodes the answer of a completed problem.
func (sp *SubmittedProblem) Result() (IsingResult, error) {
	if sp.status.Status != StatusCompleted {
		return IsingResult{}, fmt.Errorf("problem %s is %s, not %s", sp.status.ID, sp.status.Status, StatusCompleted)
	}
	if sp.status.Answer == nil {
		return IsingResult{}, fmt.Errorf("problem %s completed without an answer", sp.status.ID)
	}
	if n, limit := sp.status.Answer.NumVariables, sp.solver.Props.NumQubits; n > limit {
		return IsingResult{}, fmt.Errorf("answer for problem %s has %d variables, solver has %d qubits", sp.status.ID, n, limit)
	}
	res, err := DecodeAnswer(*sp.status.Answer)
	if err != nil {
		return IsingResult{}, fmt.Errorf("failed to decode answer for problem %s: %w", sp.status.ID, err)
	}
	res.ProblemID = sp.status.ID
	return res, nil
}
