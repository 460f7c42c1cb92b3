/*
PURPOSE:
  A local stand-in for the remote solver service.
  Serves the same HTTP API as the real service for one synthetic Chimera
  solver and answers problems with simulated annealing.

REQUIREMENTS:
  User-specified:
  - Dry runs without hardware access or a token.

  Implementation-discovered:
  - The batch runner's end-to-end tests need a real HTTP peer.
  - Asynchronous behaviour (PENDING before COMPLETED) must be reproducible,
    so the number of pending polls is configurable.
  - Answers must be reproducible: the RNG is seeded.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve-local), engine tests
  - Speaks: internal/sapi wire types

ERROR HANDLING:
  - Malformed requests get 400, bad tokens 401, unknown ids 404.
  - Problems with invalid parameters are accepted and end FAILED, as the
    real service does.

IMPLEMENTATION RULES:
  - gin for routing; problems are solved inline under the store mutex.

USAGE:
  srv, err := localsolver.New(localsolver.Options{Rows: 4, Cols: 4})
  err = srv.ListenAndServe(ctx, ":8686")

SELF-HEALING INSTRUCTIONS:
  - If the client's paths change, update the routes below to match.

RELATED FILES:
  - internal/sapi/async.go
  - internal/localsolver/anneal.go

MAINTENANCE:
  - Add topologies next to Chimera when needed.
*/

package localsolver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daryltucker/anneal-runner/internal/output"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// BasePath prefixes every route, so the client endpoint is
// http://<addr>/sapi.
const BasePath = "/sapi"

// Options configures a local solver.
type Options struct {
	Name         string // Solver id, default "chimera-local"
	Token        string // Required X-Auth-Token; empty accepts anything
	Rows, Cols   int    // Chimera grid size, default 2x2
	Shore        int    // Qubits per shore, default 4
	Broken       []int  // Qubits to mark as not working
	Sweeps       int    // Metropolis sweeps per read, default 200
	Seed         uint64 // RNG seed
	PendingPolls int    // Polls answered IN_PROGRESS before COMPLETED
	MaxReads     int    // Upper bound on num_reads, default 10000
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "chimera-local"
	}
	if o.Rows <= 0 {
		o.Rows = 2
	}
	if o.Cols <= 0 {
		o.Cols = 2
	}
	if o.Shore <= 0 {
		o.Shore = 4
	}
	if o.Sweeps <= 0 {
		o.Sweeps = 200
	}
	if o.MaxReads <= 0 {
		o.MaxReads = 10000
	}
	return o
}

type problem struct {
	status    sapi.ProblemStatus
	pollsLeft int
}

// Server is a local solver service.
type Server struct {
	opts       Options
	props      *sapi.SolverProperties
	httpServer *http.Server

	mu       sync.Mutex
	rng      *rand.Rand
	problems map[string]*problem
}

// New creates a local solver.
func New(opts Options) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	opts = opts.withDefaults()
	props, err := Chimera(opts.Rows, opts.Cols, opts.Shore, opts.Broken...)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:     opts,
		props:    props,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		problems: make(map[string]*problem),
	}, nil
}

// Name returns the solver id.
func (s *Server) Name() string {
	return s.opts.Name
}

// Properties returns the solver properties served to clients.
func (s *Server) Properties() *sapi.SolverProperties {
	return s.props
}

// Handler returns the HTTP handler serving the API under BasePath.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(loggingMiddleware())
	router.Use(gin.Recovery())

	api := router.Group(BasePath, s.authMiddleware())
	api.GET("/solvers/remote/", s.handleSolvers)
	api.GET("/solvers/remote/:id/", s.handleSolver)
	api.POST("/problems/", s.handleSubmit)
	api.GET("/problems/:id/", s.handleProblem)
	return router
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	output.Logger.Info("Local solver listening",
		"endpoint", fmt.Sprintf("http://%s%s", ln.Addr(), BasePath),
		"solver", s.opts.Name,
		"qubits", len(s.props.Qubits),
		"couplers", len(s.props.Couplers),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	output.Logger.Info("Shutting down local solver...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		output.Logger.Debug("Local solver request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.Token != "" && c.GetHeader(sapi.TokenHeader) != s.opts.Token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error_msg": "Invalid token or access denied"})
			return
		}
		c.Next()
	}
}

func (s *Server) info() sapi.SolverInfo {
	return sapi.SolverInfo{
		ID:          s.opts.Name,
		Status:      "ONLINE",
		Description: "Local simulated-annealing solver on a Chimera graph",
		Properties:  s.props,
	}
}

func (s *Server) handleSolvers(c *gin.Context) {
	c.JSON(http.StatusOK, []sapi.SolverInfo{s.info()})
}

func (s *Server) handleSolver(c *gin.Context) {
	if c.Param("id") != s.opts.Name {
		c.JSON(http.StatusNotFound, gin.H{"error_msg": "Solver does not exist or apitoken does not have access"})
		return
	}
	c.JSON(http.StatusOK, s.info())
}

func (s *Server) handleSubmit(c *gin.Context) {
	var subs []sapi.ProblemSubmission
	if err := c.ShouldBindJSON(&subs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_msg": err.Error()})
		return
	}

	out := make([]sapi.ProblemStatus, 0, len(subs))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		st := sapi.ProblemStatus{
			ID:          uuid.NewString(),
			Solver:      sub.Solver,
			SubmittedOn: time.Now().UTC().Format(time.RFC3339),
		}
		if sub.Solver != s.opts.Name {
			st.Status = sapi.StatusFailed
			st.ErrorMessage = fmt.Sprintf("solver %q does not exist", sub.Solver)
		} else if ans, err := s.solve(sub); err != nil {
			st.Status = sapi.StatusFailed
			st.ErrorMessage = err.Error()
		} else {
			st.Status = sapi.StatusCompleted
			st.Answer = &ans
		}

		p := &problem{status: st}
		if st.Status == sapi.StatusCompleted && s.opts.PendingPolls > 0 {
			p.pollsLeft = s.opts.PendingPolls
		}
		s.problems[st.ID] = p
		out = append(out, s.view(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleProblem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.problems[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error_msg": "Problem does not exist"})
		return
	}
	if p.pollsLeft > 0 {
		p.pollsLeft--
		c.JSON(http.StatusOK, s.pendingView(p, sapi.StatusInProgress))
		return
	}
	c.JSON(http.StatusOK, p.status)
}

// view is the status returned right after submission.
func (s *Server) view(p *problem) sapi.ProblemStatus {
	if p.pollsLeft > 0 {
		return s.pendingView(p, sapi.StatusPending)
	}
	return p.status
}

func (s *Server) pendingView(p *problem, status sapi.RemoteStatus) sapi.ProblemStatus {
	st := p.status
	st.Status = status
	st.Answer = nil
	return st
}

// solve checks the parameters and runs the anneal. Callers hold s.mu.
func (s *Server) solve(sub sapi.ProblemSubmission) (sapi.AnswerData, error) {
	if sub.Type != "ising" {
		return sapi.AnswerData{}, fmt.Errorf("unsupported problem type %q", sub.Type)
	}
	prm := sub.Params
	if prm.NumReads <= 0 || prm.NumReads > s.opts.MaxReads {
		return sapi.AnswerData{}, fmt.Errorf("num_reads %d outside [1, %d]", prm.NumReads, s.opts.MaxReads)
	}
	if r := s.props.AnnealingTimeRange; prm.AnnealingTime < r[0] || prm.AnnealingTime > r[1] {
		return sapi.AnswerData{}, fmt.Errorf("annealing_time %g outside [%g, %g]", prm.AnnealingTime, r[0], r[1])
	}
	if prm.AnswerMode != "" {
		if _, err := sapi.ParseAnswerMode(string(prm.AnswerMode)); err != nil {
			return sapi.AnswerData{}, err
		}
	}
	if n := len(prm.FluxBiases); n != 0 && n != s.props.NumQubits {
		return sapi.AnswerData{}, fmt.Errorf("flux_biases has %d entries, solver has %d qubits", n, s.props.NumQubits)
	}

	prob, active, err := sapi.DecodeProblem(sub.Data, s.props)
	if err != nil {
		return sapi.AnswerData{}, err
	}

	start := time.Now()
	a := newAnnealer(prob, active, prm.FluxBiases, s.opts.Sweeps, s.rng)
	betas := a.schedule()
	res := sapi.IsingResult{Timing: map[string]float64{}}
	for r := 0; r < prm.NumReads; r++ {
		soln := a.sample(betas, s.props.NumQubits)
		res.Solutions = append(res.Solutions, soln)
		res.Energies = append(res.Energies, prob.Energy(soln))
		res.Occurrences = append(res.Occurrences, 1)
	}
	if prm.AnswerMode == sapi.AnswerModeHistogram {
		res = histogram(res)
	}
	res.Timing["qpu_sampling_time"] = float64(time.Since(start).Microseconds())
	res.Timing["qpu_anneal_time_per_sample"] = prm.AnnealingTime

	return sapi.EncodeAnswer(res, active, s.props.NumQubits), nil
}

// histogram merges identical solutions, ordered by increasing energy.
func histogram(r sapi.IsingResult) sapi.IsingResult {
	out := sapi.IsingResult{Timing: r.Timing}
	seen := make(map[string]int)
	for i, soln := range r.Solutions {
		k := string(int8sToBytes(soln))
		if j, ok := seen[k]; ok {
			out.Occurrences[j] += r.Occurrences[i]
			continue
		}
		seen[k] = len(out.Solutions)
		out.Solutions = append(out.Solutions, soln)
		out.Energies = append(out.Energies, r.Energies[i])
		out.Occurrences = append(out.Occurrences, r.Occurrences[i])
	}

	idx := make([]int, len(out.Solutions))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(out.Energies[a], out.Energies[b]) })
	sorted := sapi.IsingResult{Timing: out.Timing}
	for _, i := range idx {
		sorted.Solutions = append(sorted.Solutions, out.Solutions[i])
		sorted.Energies = append(sorted.Energies, out.Energies[i])
		sorted.Occurrences = append(sorted.Occurrences, out.Occurrences[i])
	}
	return sorted
}

func int8sToBytes(v []int8) []byte {
	b := make([]byte, len(v))
	for i, x := range v {
		b[i] = byte(x)
	}
	return b
}
