package sapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

type fakeService struct {
	polls     atomic.Int32
	pending   int32
	final     RemoteStatus
	numVars   int // num_variables reported in the answer, default 5
	submitted []ProblemSubmission
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(TokenHeader) != testToken {
				http.Error(w, `{"error_msg":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/solvers/remote/", auth(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/solvers/remote/":
			writeJSON(w, []SolverInfo{{ID: "square", Status: "ONLINE", Properties: square()}})
		case "/solvers/remote/square/":
			writeJSON(w, SolverInfo{ID: "square", Status: "ONLINE", Properties: square()})
		default:
			http.NotFound(w, r)
		}
	}))
	mux.HandleFunc("/problems/", auth(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f.submitted))
			writeJSON(w, []ProblemStatus{{ID: "p-1", Status: StatusPending}})
			return
		}
		n := f.polls.Add(1)
		if n <= f.pending {
			writeJSON(w, ProblemStatus{ID: "p-1", Status: StatusInProgress})
			return
		}
		st := ProblemStatus{ID: "p-1", Status: f.final}
		if f.final == StatusCompleted {
			numVars := 5
			if f.numVars > 0 {
				numVars = f.numVars
			}
			ans := EncodeAnswer(IsingResult{
				Solutions:   [][]int8{{1, -1, Unused, Unused, Unused}},
				Energies:    []float64{-1},
				Occurrences: []int{10},
			}, []int{0, 1}, numVars)
			st.Answer = &ans
		} else {
			st.ErrorMessage = "out of range"
		}
		writeJSON(w, st)
	}))
	return mux
}

func connect(t *testing.T, f *fakeService, token string) *Connection {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	conn, err := RemoteConnection(srv.URL+"/", token, Options{PollInterval: time.Millisecond})
	require.NoError(t, err)
	return conn
}

func TestRemoteConnectionRequiresEndpoint(t *testing.T) {
	_, err := RemoteConnection("", testToken, Options{})
	assert.Error(t, err)
}

func TestGetSolver(t *testing.T) {
	conn := connect(t, &fakeService{}, testToken)

	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)
	assert.Equal(t, "square", s.Name)
	assert.Equal(t, 5, s.Properties().NumQubits)

	infos, err := conn.Solvers(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "square", infos[0].ID)
}

func TestGetSolverNotFound(t *testing.T) {
	conn := connect(t, &fakeService{}, testToken)

	_, err := conn.GetSolver(context.Background(), "nope")
	var nf *SolverNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.Solver)
}

func TestGetSolverBadToken(t *testing.T) {
	conn := connect(t, &fakeService{}, "wrong")

	_, err := conn.GetSolver(context.Background(), "square")
	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
}

func TestSolveIsingPollsUntilComplete(t *testing.T) {
	f := &fakeService{pending: 2, final: StatusCompleted}
	conn := connect(t, f, testToken)
	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)

	params := QuantumSolverParameters{
		NumReads:      10,
		AnnealingTime: 0.05,
		FastAnneal:    true,
		AnswerMode:    AnswerModeRaw,
		FluxBiases:    []float64{0, 0.1, 0, 0, 0},
	}
	res, err := s.SolveIsing(context.Background(), Problem{{I: 0, J: 1, Value: 1}}, params)
	require.NoError(t, err)

	assert.Equal(t, "p-1", res.ProblemID)
	assert.Equal(t, int32(3), f.polls.Load())
	assert.Equal(t, [][]int8{{1, -1, Unused, Unused, Unused}}, res.Solutions)
	assert.Equal(t, []int{10}, res.Occurrences)

	require.Len(t, f.submitted, 1)
	assert.Equal(t, "ising", f.submitted[0].Type)
	assert.Equal(t, params, f.submitted[0].Params)
}

func TestSolveIsingFailed(t *testing.T) {
	f := &fakeService{final: StatusFailed}
	conn := connect(t, f, testToken)
	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)

	_, err = s.SolveIsing(context.Background(), Problem{{I: 0, J: 1, Value: 1}}, QuantumSolverParameters{NumReads: 1})
	var pe *ProblemError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StatusFailed, pe.Status)
	assert.Equal(t, "out of range", pe.Message)
}

func TestAwaitCompletionHonoursContext(t *testing.T) {
	f := &fakeService{pending: 1 << 20, final: StatusCompleted}
	conn := connect(t, f, testToken)
	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.SolveIsing(ctx, Problem{{I: 0, J: 1, Value: 1}}, QuantumSolverParameters{NumReads: 1})
	assert.Error(t, err)
}

func TestSolveIsingRejectsUnknownStatus(t *testing.T) {
	f := &fakeService{final: RemoteStatus("ARCHIVED")}
	conn := connect(t, f, testToken)
	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = s.SolveIsing(ctx, Problem{{I: 0, J: 1, Value: 1}}, QuantumSolverParameters{NumReads: 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, `unrecognised status "ARCHIVED"`)
	assert.NoError(t, ctx.Err())
	assert.Equal(t, int32(1), f.polls.Load())
}

func TestSolveIsingRejectsOversizedAnswer(t *testing.T) {
	f := &fakeService{final: StatusCompleted, numVars: 1 << 20}
	conn := connect(t, f, testToken)
	s, err := conn.GetSolver(context.Background(), "square")
	require.NoError(t, err)

	_, err = s.SolveIsing(context.Background(), Problem{{I: 0, J: 1, Value: 1}}, QuantumSolverParameters{NumReads: 1})
	assert.ErrorContains(t, err, "solver has 5 qubits")
}
