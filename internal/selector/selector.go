// Package selector filters problem instances with a user-supplied boolean
// expression, e.g. `index > 5 && num_couplings < 200`.
package selector

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/daryltucker/anneal-runner/internal/model"
)

// Env is the set of names an expression may refer to.
type Env struct {
	Index        int    `expr:"index"`
	Solver       string `expr:"solver"`
	NumVariables int    `expr:"num_variables"`
	NumCouplings int    `expr:"num_couplings"`
	NumQubits    int    `expr:"num_qubits"`
}

// EnvFor builds the expression environment of an instance.
func EnvFor(p model.ProblemInstance) Env {
	return Env{
		Index:        p.Index,
		Solver:       p.Solver,
		NumVariables: len(p.Variables()),
		NumCouplings: len(p.J),
		NumQubits:    p.NumQubits(),
	}
}

// EvaluationError reports an expression that failed to compile or run.
type EvaluationError struct {
	Expr  string
	Index int // 0 when compiling
	Err   error
}

func (e *EvaluationError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("select expression %q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("select expression %q on instance %d: %v", e.Expr, e.Index, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Selector is a compiled selection expression. The zero value and a nil
// *Selector select everything.
type Selector struct {
	expression string
	program    *exprvm.Program
}

// Compile compiles expression. An empty expression yields a selector that
// matches every instance.
func Compile(expression string) (*Selector, error) {
	if expression == "" {
		return &Selector{}, nil
	}
	program, err := exprlang.Compile(expression, exprlang.Env(Env{}), exprlang.AsBool())
	if err != nil {
		return nil, &EvaluationError{Expr: expression, Err: err}
	}
	return &Selector{expression: expression, program: program}, nil
}

// String returns the source expression.
func (s *Selector) String() string {
	if s == nil {
		return ""
	}
	return s.expression
}

// Match reports whether p is selected.
func (s *Selector) Match(p model.ProblemInstance) (bool, error) {
	if s == nil || s.program == nil {
		return true, nil
	}
	out, err := exprlang.Run(s.program, EnvFor(p))
	if err != nil {
		return false, &EvaluationError{Expr: s.expression, Index: p.Index, Err: err}
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, &EvaluationError{Expr: s.expression, Index: p.Index, Err: fmt.Errorf("result is %T, not bool", out)}
	}
	return ok, nil
}
