// This file presents the physical problem and result types exchanged with a
// solver.

package sapi

import "sort"

// A ProblemEntry represents a single coefficient in a problem to submit to a
// solver.  If I=J, the ProblemEntry represents a linear term.  Otherwise, it
// represents a quadratic term.
type ProblemEntry struct {
	I     int
	J     int
	Value float64
}

// A Problem is a list of ProblemEntry coefficients over physical qubits.
type Problem []ProblemEntry

// Unused marks a qubit that did not take part in a problem.
const Unused int8 = 3

// An IsingResult represents a solver's output in Ising-model form.
type IsingResult struct {
	ProblemID   string             // Remote problem ID
	Solutions   [][]int8           // Solutions found (±1 or Unused), indexed by qubit
	Energies    []float64          // Energy of each solution
	Occurrences []int              // Tally of occurrences of each solution
	Timing      map[string]float64 // Timing information reported by the solver
}

// ActiveQubits returns the sorted qubits referenced by a Problem.
func (p Problem) ActiveQubits() []int {
	seen := make(map[int]struct{}, len(p))
	for _, pe := range p {
		seen[pe.I] = struct{}{}
		seen[pe.J] = struct{}{}
	}
	qs := make([]int, 0, len(seen))
	for q := range seen {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}

// Energy returns the energy of a solution indexed by qubit.
func (p Problem) Energy(soln []int8) float64 {
	e := 0.0
	for _, pe := range p {
		if pe.I == pe.J {
			e += pe.Value * float64(soln[pe.I])
		} else {
			e += pe.Value * float64(soln[pe.I]) * float64(soln[pe.J])
		}
	}
	return e
}
