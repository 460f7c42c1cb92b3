package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/anneal-runner/internal/model"
)

func instance(index int) model.ProblemInstance {
	return model.ProblemInstance{
		Index:     index,
		Solver:    "Advantage_system4.1",
		Embedding: model.Embedding{0: {10, 11}, 1: {12}, 2: {13}},
		J:         model.Couplings{{I: 0, J: 1, Value: 1}, {I: 1, J: 2, Value: -1}},
	}
}

func TestEmptyExpressionMatchesEverything(t *testing.T) {
	s, err := Compile("")
	require.NoError(t, err)
	ok, err := s.Match(instance(1))
	require.NoError(t, err)
	assert.True(t, ok)

	var nilSel *Selector
	ok, err = nilSel.Match(instance(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{"index % 2 == 0", true},
		{"index > 4", false},
		{"num_variables == 3 && num_couplings == 2", true},
		{"num_qubits == 4", true},
		{`solver startsWith "Advantage"`, true},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			s, err := Compile(c.expr)
			require.NoError(t, err)
			got, err := s.Match(instance(4))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{"index +", "unknown_name > 1", "index + 1"} {
		_, err := Compile(expr)
		var ee *EvaluationError
		require.True(t, errors.As(err, &ee), expr)
		assert.Equal(t, expr, ee.Expr)
	}
}

func TestRuntimeError(t *testing.T) {
	s, err := Compile("int(solver) > 0")
	require.NoError(t, err)
	_, err = s.Match(instance(4))
	var ee *EvaluationError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 4, ee.Index)
}
