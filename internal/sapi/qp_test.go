package sapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square is a 4-qubit ring 0-1-2-3-0 with qubit 4 broken.
func square() *SolverProperties {
	return &SolverProperties{
		NumQubits: 5,
		Qubits:    []int{0, 1, 2, 3},
		Couplers:  [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}},
	}
}

func TestProblemRoundTrip(t *testing.T) {
	props := square()
	p := Problem{
		{I: 0, J: 0, Value: 0.5},
		{I: 1, J: 0, Value: -1},
		{I: 2, J: 1, Value: 0.25},
	}

	data, err := EncodeProblem(p, props)
	require.NoError(t, err)
	assert.Equal(t, "qp", data.Format)

	got, active, err := DecodeProblem(data, props)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, active)
	assert.ElementsMatch(t, Problem{
		{I: 0, J: 0, Value: 0.5},
		{I: 0, J: 1, Value: -1},
		{I: 1, J: 2, Value: 0.25},
	}, got)
}

func TestEncodeProblemRejectsBrokenParts(t *testing.T) {
	props := square()

	_, err := EncodeProblem(Problem{{I: 4, J: 4, Value: 1}}, props)
	assert.ErrorContains(t, err, "qubit 4")

	_, err = EncodeProblem(Problem{{I: 0, J: 2, Value: 1}}, props)
	assert.ErrorContains(t, err, "coupler (0, 2)")
}

func TestAnswerRoundTrip(t *testing.T) {
	in := IsingResult{
		Solutions: [][]int8{
			{1, -1, 1, Unused, Unused},
			{-1, -1, -1, Unused, Unused},
		},
		Energies:    []float64{-1.5, 0.25},
		Occurrences: []int{7, 3},
		Timing:      map[string]float64{"qpu_access_time": 12},
	}

	ans := EncodeAnswer(in, []int{0, 1, 2}, 5)
	out, err := DecodeAnswer(ans)
	require.NoError(t, err)
	assert.Equal(t, in.Solutions, out.Solutions)
	assert.Equal(t, in.Energies, out.Energies)
	assert.Equal(t, in.Occurrences, out.Occurrences)
	assert.Equal(t, in.Timing, out.Timing)
}

func TestAnswerPacksManyVariables(t *testing.T) {
	n := 19
	active := make([]int, n)
	soln := make([]int8, n)
	for i := range active {
		active[i] = i
		soln[i] = -1
		if i%3 == 0 {
			soln[i] = 1
		}
	}
	in := IsingResult{Solutions: [][]int8{soln}, Energies: []float64{0}, Occurrences: []int{1}}

	out, err := DecodeAnswer(EncodeAnswer(in, active, n))
	require.NoError(t, err)
	assert.Equal(t, soln, out.Solutions[0])
}

func TestDecodeAnswerMismatch(t *testing.T) {
	ans := EncodeAnswer(IsingResult{
		Solutions:   [][]int8{{1}},
		Energies:    []float64{1},
		Occurrences: []int{1},
	}, []int{0}, 1)
	ans.NumOccurrences = encodeInt32s([]int32{1, 2})

	_, err := DecodeAnswer(ans)
	assert.ErrorContains(t, err, "occurrence counts")

	negative := AnswerData{
		Format:         formatQP,
		NumVariables:   -1,
		Energies:       encodeFloats([]float64{0}),
		NumOccurrences: encodeInt32s([]int32{1}),
	}
	assert.NotPanics(t, func() {
		_, err = DecodeAnswer(negative)
	})
	assert.ErrorContains(t, err, "num_variables is negative")
}

func TestFluxBiasVector(t *testing.T) {
	v, err := FluxBiasVector(nil, 4)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = FluxBiasVector(map[int]float64{1: 0.1, 3: -0.2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.1, 0, -0.2}, v)

	_, err = FluxBiasVector(map[int]float64{4: 1}, 4)
	assert.Error(t, err)
}

func TestProblemEnergy(t *testing.T) {
	p := Problem{{I: 0, J: 0, Value: 1}, {I: 0, J: 1, Value: -2}}
	assert.Equal(t, 1.0+(-2.0)*(-1.0), p.Energy([]int8{1, -1}))
}
