package sapi

import "fmt"

// AuthError reports a request the solver service rejected for lack of a
// valid token.
type AuthError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed at %s (%d): %s", e.Endpoint, e.Status, e.Message)
}

// SolverNotFoundError reports an unknown solver name.
type SolverNotFoundError struct {
	Solver   string
	Endpoint string
}

func (e *SolverNotFoundError) Error() string {
	return fmt.Sprintf("solver %q not found on connection %s", e.Solver, e.Endpoint)
}

// ProblemError reports a problem that reached a terminal state other than
// COMPLETED.
type ProblemError struct {
	ProblemID string
	Status    RemoteStatus
	Message   string
}

func (e *ProblemError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("problem %s ended in state %s", e.ProblemID, e.Status)
	}
	return fmt.Sprintf("problem %s ended in state %s: %s", e.ProblemID, e.Status, e.Message)
}

// HTTPError reports an unexpected HTTP status from the solver service.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.Status, e.Body)
}
