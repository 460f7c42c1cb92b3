/*
PURPOSE:
  Client for the remote annealing solver service.
  Handles solver discovery, problem submission, status polling and answer
  decoding over the service's HTTP+JSON API.

REQUIREMENTS:
  User-specified:
  - Acquire one solver handle per run using a solver name and a token.
  - Submit an Ising problem with fixed parameters and get raw samples back.

  Implementation-discovered:
  - Submissions are asynchronous on the service side: a problem can come
    back PENDING and must be polled until it is terminal.
  - 401/403 and 404 need distinct error types so setup failures can be
    reported precisely.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine, internal/cli (list-solvers)
  - Served by: internal/localsolver (same API, local simulated annealing)

ERROR HANDLING:
  - *AuthError, *SolverNotFoundError, *ProblemError, *HTTPError.
  - Transport retries only on connection errors, and only if configured.

IMPLEMENTATION RULES:
  - Use resty for HTTP.
  - Every request carries the caller's context.

USAGE:
  conn, err := sapi.RemoteConnection(endpoint, token, sapi.Options{})
  solver, err := conn.GetSolver(ctx, "Advantage_system4.1")
  result, err := solver.SolveIsing(ctx, problem, params)

SELF-HEALING INSTRUCTIONS:
  - If the service moves endpoints, update the paths in solver.go/async.go.

RELATED FILES:
  - internal/sapi/qp.go
  - internal/localsolver/server.go

MAINTENANCE:
  - Update when the service adds problem types or answer formats.
*/

package sapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/daryltucker/anneal-runner/internal/output"
)

// TokenHeader carries the API token on every request.
const TokenHeader = "X-Auth-Token"

// Options tunes a Connection.
type Options struct {
	Timeout      time.Duration // Per-request timeout
	PollInterval time.Duration // Delay between status polls
	MaxRetries   int           // Transport-level retries on connection errors
	RetryDelay   time.Duration // Initial delay between retries
	UserAgent    string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "anneal-runner"
	}
	return o
}

// A Connection represents a connection to a solver service.
type Connection struct {
	client   *resty.Client
	opts     Options
	Endpoint string // Service base URL
	Token    string // Token to authenticate a user
}

// RemoteConnection establishes a connection to a solver service.
func RemoteConnection(endpoint, token string, opts Options) (*Connection, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("solver endpoint must not be empty")
	}
	opts = opts.withDefaults()
	endpoint = strings.TrimRight(endpoint, "/")

	client := resty.New()
	client.SetLogger(restyLogger{})
	client.
		SetBaseURL(endpoint).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", opts.UserAgent)
	if token != "" {
		client.SetHeader(TokenHeader, token)
	}

	// Only retry on connection errors, never on HTTP errors.
	client.
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryDelay).
		SetRetryMaxWaitTime(4 * opts.RetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		output.Logger.Debug("Solver API request", "method", req.Method, "url", req.URL)
		return nil
	})
	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		output.Logger.Debug("Solver API response", "status", resp.StatusCode(), "took", resp.Time())
		return nil
	})

	return &Connection{
		client:   client,
		opts:     opts,
		Endpoint: endpoint,
		Token:    token,
	}, nil
}

// checkResponse maps non-2xx responses onto typed errors.
func (c *Connection) checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Endpoint: c.Endpoint, Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	return &HTTPError{
		Method: resp.Request.Method,
		URL:    resp.Request.URL,
		Status: resp.StatusCode(),
		Body:   strings.TrimSpace(resp.String()),
	}
}

// restyLogger routes resty's internal logging through output.Logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	output.Logger.Error(fmt.Sprintf(format, v...))
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	output.Logger.Warn(fmt.Sprintf(format, v...))
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	output.Logger.Debug(fmt.Sprintf(format, v...))
}
