// This file presents the parameters that accompany a problem submission.

package sapi

import "fmt"

// An AnswerMode indicates the format in which we want the solver to return
// solutions.
type AnswerMode string

// These are answer modes a solver can accept.
const (
	AnswerModeHistogram AnswerMode = "histogram"
	AnswerModeRaw       AnswerMode = "raw"
)

// ParseAnswerMode converts a configuration string into an AnswerMode.
func ParseAnswerMode(s string) (AnswerMode, error) {
	switch AnswerMode(s) {
	case AnswerModeRaw, AnswerModeHistogram:
		return AnswerMode(s), nil
	default:
		return "", fmt.Errorf("unknown answer mode %q", s)
	}
}

// QuantumSolverParameters represents the parameters that can be passed to a
// quantum solver.
type QuantumSolverParameters struct {
	NumReads      int        `json:"num_reads"`
	AnnealingTime float64    `json:"annealing_time"` // microseconds
	FastAnneal    bool       `json:"fast_anneal"`
	AutoScale     bool       `json:"auto_scale"`
	AnswerMode    AnswerMode `json:"answer_mode"`
	FluxBiases    []float64  `json:"flux_biases,omitempty"`
}

// FluxBiasVector expands a sparse qubit -> bias map into the dense vector the
// solver expects. Qubits outside [0, numQubits) are reported as an error.
func FluxBiasVector(h map[int]float64, numQubits int) ([]float64, error) {
	if len(h) == 0 {
		return nil, nil
	}
	v := make([]float64, numQubits)
	for q, b := range h {
		if q < 0 || q >= numQubits {
			return nil, fmt.Errorf("flux bias for qubit %d outside solver range [0, %d)", q, numQubits)
		}
		v[q] = b
	}
	return v, nil
}
