package engine

import (
	"context"
	"fmt"

	"github.com/daryltucker/anneal-runner/internal/config"
	"github.com/daryltucker/anneal-runner/internal/embedding"
	"github.com/daryltucker/anneal-runner/internal/model"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// Params is the fixed parameter set sent with every instance.
type Params struct {
	NumReads      int
	AnnealingTime float64
	FastAnneal    bool
	AutoScale     bool
	AnswerMode    sapi.AnswerMode
	ChainStrength float64
	ChainBreak    embedding.ChainBreakMethod
}

// ParamsFromConfig extracts the sampling parameters from cfg.
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	mode, err := sapi.ParseAnswerMode(cfg.AnswerMode)
	if err != nil {
		return Params{}, err
	}
	cb, err := embedding.ParseChainBreakMethod(cfg.ChainBreakMethod)
	if err != nil {
		return Params{}, err
	}
	return Params{
		NumReads:      cfg.NumReads,
		AnnealingTime: cfg.AnnealingTime,
		FastAnneal:    cfg.FastAnneal,
		AutoScale:     cfg.AutoScale,
		AnswerMode:    mode,
		ChainStrength: cfg.ChainStrength,
		ChainBreak:    cb,
	}, nil
}

// RemoteSamplingError wraps any failure while sampling one instance.
type RemoteSamplingError struct {
	Index int
	Err   error
}

func (e *RemoteSamplingError) Error() string {
	return fmt.Sprintf("sampling failed for instance %d: %v", e.Index, e.Err)
}

func (e *RemoteSamplingError) Unwrap() error {
	return e.Err
}

// Submit embeds inst onto s, samples it once and maps the answer back onto
// the logical variables. Every failure is returned as *RemoteSamplingError.
func Submit(ctx context.Context, s Sampler, solver string, inst model.ProblemInstance, p Params) (*model.SampleSet, error) {
	wrap := func(err error) error {
		return &RemoteSamplingError{Index: inst.Index, Err: err}
	}

	props := s.Properties()
	j := inst.J.Canonicalize()
	vars := inst.Variables()

	prob, err := embedding.EmbedIsing(j, inst.Embedding, embedding.NewAdjacency(props), p.ChainStrength)
	if err != nil {
		return nil, wrap(fmt.Errorf("embedding: %w", err))
	}
	flux, err := sapi.FluxBiasVector(inst.H, props.NumQubits)
	if err != nil {
		return nil, wrap(err)
	}

	res, err := s.SolveIsing(ctx, prob, sapi.QuantumSolverParameters{
		NumReads:      p.NumReads,
		AnnealingTime: p.AnnealingTime,
		FastAnneal:    p.FastAnneal,
		AutoScale:     p.AutoScale,
		AnswerMode:    p.AnswerMode,
		FluxBiases:    flux,
	})
	if err != nil {
		return nil, wrap(err)
	}

	rows, err := embedding.Unembed(res, inst.Embedding, vars, j, p.ChainBreak)
	if err != nil {
		return nil, wrap(fmt.Errorf("unembedding: %w", err))
	}

	return &model.SampleSet{
		Variables: vars,
		Records:   rows,
		Info: model.SampleInfo{
			ProblemID: res.ProblemID,
			Solver:    solver,
			Timing:    res.Timing,
		},
	}, nil
}
