package localsolver

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/anneal-runner/internal/sapi"
)

func TestChimeraShape(t *testing.T) {
	props, err := Chimera(1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, props.NumQubits)
	assert.Len(t, props.Couplers, 16)
	require.NoError(t, props.Validate())

	props, err = Chimera(2, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 32, props.NumQubits)
	assert.Len(t, props.Couplers, 64+8+8)
	assert.Contains(t, props.Couplers, [2]int{0, 16}) // (0,0,0,0)-(1,0,0,0)
	assert.Contains(t, props.Couplers, [2]int{4, 12}) // (0,0,1,0)-(0,1,1,0)

	props, err = Chimera(1, 1, 4, 0)
	require.NoError(t, err)
	assert.Len(t, props.Qubits, 7)
	assert.Len(t, props.Couplers, 12)

	_, err = Chimera(0, 1, 4)
	assert.Error(t, err)
	_, err = Chimera(1, 1, 4, 99)
	assert.Error(t, err)
}

func TestAnnealerFindsGroundState(t *testing.T) {
	// Ferromagnetic 4-cycle: both ground states have energy -4.
	p := sapi.Problem{
		{I: 0, J: 4, Value: -1},
		{I: 4, J: 1, Value: -1},
		{I: 1, J: 5, Value: -1},
		{I: 5, J: 0, Value: -1},
	}
	active := []int{0, 1, 4, 5}
	a := newAnnealer(p, active, nil, 100, rand.New(rand.NewPCG(1, 2)))
	betas := a.schedule()

	for i := 0; i < 10; i++ {
		soln := a.sample(betas, 8)
		assert.Equal(t, -4.0, p.Energy(soln))
		assert.Equal(t, sapi.Unused, soln[2])
	}
}

func TestAnnealerUsesFluxBias(t *testing.T) {
	p := sapi.Problem{{I: 0, J: 0, Value: 0}}
	flux := []float64{-3, 0}
	a := newAnnealer(p, []int{0}, flux, 50, rand.New(rand.NewPCG(3, 4)))
	soln := a.sample(a.schedule(), 2)
	assert.Equal(t, int8(1), soln[0])
}

func start(t *testing.T, opts Options) (*Server, *sapi.Connection) {
	t.Helper()
	srv, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, err := sapi.RemoteConnection(ts.URL+BasePath, "tok", sapi.Options{PollInterval: time.Millisecond})
	require.NoError(t, err)
	return srv, conn
}

func TestSolveThroughClient(t *testing.T) {
	srv, conn := start(t, Options{Seed: 7, PendingPolls: 2})
	ctx := context.Background()

	s, err := conn.GetSolver(ctx, srv.Name())
	require.NoError(t, err)

	// Qubits 0 and 4 sit on opposite shores of cell (0, 0).
	prob := sapi.Problem{{I: 0, J: 4, Value: 1}}
	res, err := s.SolveIsing(ctx, prob, sapi.QuantumSolverParameters{
		NumReads:      20,
		AnnealingTime: 20,
		AnswerMode:    sapi.AnswerModeRaw,
	})
	require.NoError(t, err)
	require.Len(t, res.Solutions, 20)
	assert.NotEmpty(t, res.ProblemID)
	for i, soln := range res.Solutions {
		assert.Len(t, soln, srv.Properties().NumQubits)
		assert.Equal(t, -1.0, res.Energies[i])
		assert.Equal(t, 1, res.Occurrences[i])
		assert.Equal(t, sapi.Unused, soln[1])
	}
}

func TestHistogramMode(t *testing.T) {
	srv, conn := start(t, Options{Seed: 11})
	ctx := context.Background()
	s, err := conn.GetSolver(ctx, srv.Name())
	require.NoError(t, err)

	res, err := s.SolveIsing(ctx, sapi.Problem{{I: 0, J: 4, Value: 1}}, sapi.QuantumSolverParameters{
		NumReads:      50,
		AnnealingTime: 20,
		AnswerMode:    sapi.AnswerModeHistogram,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Solutions), 2)
	total := 0
	for _, o := range res.Occurrences {
		total += o
	}
	assert.Equal(t, 50, total)
}

func TestInvalidParametersFail(t *testing.T) {
	srv, conn := start(t, Options{})
	ctx := context.Background()
	s, err := conn.GetSolver(ctx, srv.Name())
	require.NoError(t, err)

	_, err = s.SolveIsing(ctx, sapi.Problem{{I: 0, J: 4, Value: 1}}, sapi.QuantumSolverParameters{
		NumReads:      0,
		AnnealingTime: 20,
	})
	var pe *sapi.ProblemError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, sapi.StatusFailed, pe.Status)
	assert.Contains(t, pe.Message, "num_reads")
}

func TestUnknownSolver(t *testing.T) {
	_, conn := start(t, Options{})
	_, err := conn.GetSolver(context.Background(), "DW_2000Q_6")
	var nf *sapi.SolverNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestTokenRequired(t *testing.T) {
	srv, err := New(Options{Token: "right"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, BasePath+"/solvers/remote/", nil)
	req.Header.Set(sapi.TokenHeader, "wrong")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, BasePath+"/solvers/remote/", nil)
	req.Header.Set(sapi.TokenHeader, "right")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMalformedSubmission(t *testing.T) {
	srv, err := New(Options{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, BasePath+"/problems/", strings.NewReader(`{"not": "a list"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, BasePath+"/problems/missing/", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
