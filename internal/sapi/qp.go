// This file implements the "qp" wire encoding used for problem data and
// answers: dense little-endian vectors carried as base64 strings.

package sapi

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const formatQP = "qp"

// ProblemData is the encoded form of a Problem.
type ProblemData struct {
	Format string `json:"format"`
	Lin    string `json:"lin"`  // float64 per qubit, NaN when inactive
	Quad   string `json:"quad"` // float64 per coupler with both ends active
}

// AnswerData is the encoded form of an IsingResult.
type AnswerData struct {
	Format          string             `json:"format"`
	NumVariables    int                `json:"num_variables"`
	ActiveVariables string             `json:"active_variables"` // int32 per active qubit
	Solutions       string             `json:"solutions"`        // bit-packed rows, MSB first
	Energies        string             `json:"energies"`         // float64 per row
	NumOccurrences  string             `json:"num_occurrences"`  // int32 per row
	Timing          map[string]float64 `json:"timing,omitempty"`
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// EncodeProblem converts a Problem into the qp format for the given solver.
// Every referenced qubit must be working and every quadratic term must sit on
// a working coupler.
func EncodeProblem(p Problem, props *SolverProperties) (ProblemData, error) {
	working := props.workingSet()
	couplers := props.couplerSet()

	lin := make([]float64, props.NumQubits)
	for i := range lin {
		lin[i] = math.NaN()
	}
	active := make(map[int]bool)
	for _, q := range p.ActiveQubits() {
		if !working[q] {
			return ProblemData{}, fmt.Errorf("qubit %d is not a working qubit", q)
		}
		active[q] = true
		lin[q] = 0
	}

	quad := make(map[[2]int]float64)
	for _, pe := range p {
		if pe.I == pe.J {
			lin[pe.I] += pe.Value
			continue
		}
		k := pairKey(pe.I, pe.J)
		if !couplers[k] {
			return ProblemData{}, fmt.Errorf("coupler (%d, %d) is not a working coupler", k[0], k[1])
		}
		quad[k] += pe.Value
	}

	var quadVals []float64
	for _, c := range props.Couplers {
		if active[c[0]] && active[c[1]] {
			quadVals = append(quadVals, quad[pairKey(c[0], c[1])])
		}
	}

	return ProblemData{
		Format: formatQP,
		Lin:    encodeFloats(lin),
		Quad:   encodeFloats(quadVals),
	}, nil
}

// DecodeProblem is the inverse of EncodeProblem. It also returns the active
// qubits, since an active qubit may carry no nonzero coefficient.
func DecodeProblem(d ProblemData, props *SolverProperties) (Problem, []int, error) {
	if d.Format != formatQP {
		return nil, nil, fmt.Errorf("unsupported problem format %q", d.Format)
	}
	lin, err := decodeFloats(d.Lin)
	if err != nil {
		return nil, nil, fmt.Errorf("lin: %w", err)
	}
	if len(lin) != props.NumQubits {
		return nil, nil, fmt.Errorf("lin has %d entries, solver has %d qubits", len(lin), props.NumQubits)
	}
	quad, err := decodeFloats(d.Quad)
	if err != nil {
		return nil, nil, fmt.Errorf("quad: %w", err)
	}

	working := props.workingSet()
	var prob Problem
	var active []int
	isActive := make(map[int]bool)
	for q, v := range lin {
		if math.IsNaN(v) {
			continue
		}
		if !working[q] {
			return nil, nil, fmt.Errorf("qubit %d is not a working qubit", q)
		}
		isActive[q] = true
		active = append(active, q)
		if v != 0 {
			prob = append(prob, ProblemEntry{I: q, J: q, Value: v})
		}
	}

	i := 0
	for _, c := range props.Couplers {
		if !isActive[c[0]] || !isActive[c[1]] {
			continue
		}
		if i >= len(quad) {
			return nil, nil, fmt.Errorf("quad has %d entries, expected more", len(quad))
		}
		if quad[i] != 0 {
			prob = append(prob, ProblemEntry{I: c[0], J: c[1], Value: quad[i]})
		}
		i++
	}
	if i != len(quad) {
		return nil, nil, fmt.Errorf("quad has %d entries, expected %d", len(quad), i)
	}
	return prob, active, nil
}

// EncodeAnswer packs the solutions of r restricted to the active qubits.
func EncodeAnswer(r IsingResult, active []int, numQubits int) AnswerData {
	bytesPerRow := (len(active) + 7) / 8
	packed := make([]byte, bytesPerRow*len(r.Solutions))
	for row, soln := range r.Solutions {
		base := row * bytesPerRow
		for i, q := range active {
			if soln[q] > 0 {
				packed[base+i/8] |= 0x80 >> uint(i%8)
			}
		}
	}

	act := make([]int32, len(active))
	for i, q := range active {
		act[i] = int32(q)
	}
	occ := make([]int32, len(r.Occurrences))
	for i, o := range r.Occurrences {
		occ[i] = int32(o)
	}

	return AnswerData{
		Format:          formatQP,
		NumVariables:    numQubits,
		ActiveVariables: encodeInt32s(act),
		Solutions:       base64.StdEncoding.EncodeToString(packed),
		Energies:        encodeFloats(r.Energies),
		NumOccurrences:  encodeInt32s(occ),
		Timing:          r.Timing,
	}
}

// DecodeAnswer unpacks an answer into qubit-indexed solutions. Qubits that
// are not active are set to Unused.
func DecodeAnswer(a AnswerData) (IsingResult, error) {
	if a.Format != formatQP {
		return IsingResult{}, fmt.Errorf("unsupported answer format %q", a.Format)
	}
	if a.NumVariables < 0 {
		return IsingResult{}, fmt.Errorf("num_variables is negative: %d", a.NumVariables)
	}
	active, err := decodeInt32s(a.ActiveVariables)
	if err != nil {
		return IsingResult{}, fmt.Errorf("active_variables: %w", err)
	}
	energies, err := decodeFloats(a.Energies)
	if err != nil {
		return IsingResult{}, fmt.Errorf("energies: %w", err)
	}
	occ, err := decodeInt32s(a.NumOccurrences)
	if err != nil {
		return IsingResult{}, fmt.Errorf("num_occurrences: %w", err)
	}
	packed, err := base64.StdEncoding.DecodeString(a.Solutions)
	if err != nil {
		return IsingResult{}, fmt.Errorf("solutions: %w", err)
	}

	rows := len(energies)
	if len(occ) != rows {
		return IsingResult{}, fmt.Errorf("answer has %d energies but %d occurrence counts", rows, len(occ))
	}
	bytesPerRow := (len(active) + 7) / 8
	if len(packed) != rows*bytesPerRow {
		return IsingResult{}, fmt.Errorf("solutions hold %d bytes, expected %d", len(packed), rows*bytesPerRow)
	}
	for _, q := range active {
		if q < 0 || int(q) >= a.NumVariables {
			return IsingResult{}, fmt.Errorf("active variable %d outside [0, %d)", q, a.NumVariables)
		}
	}

	solns := make([][]int8, rows)
	occurs := make([]int, rows)
	for row := range solns {
		soln := make([]int8, a.NumVariables)
		for i := range soln {
			soln[i] = Unused
		}
		base := row * bytesPerRow
		for i, q := range active {
			if packed[base+i/8]&(0x80>>uint(i%8)) != 0 {
				soln[q] = 1
			} else {
				soln[q] = -1
			}
		}
		solns[row] = soln
		occurs[row] = int(occ[row])
	}

	return IsingResult{
		Solutions:   solns,
		Energies:    energies,
		Occurrences: occurs,
		Timing:      a.Timing,
	}, nil
}

func encodeFloats(v []float64) string {
	b := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(f))
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeFloats(s string) ([]float64, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}

func encodeInt32s(v []int32) string {
	b := make([]byte, 4*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(n))
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeInt32s(s string) ([]int32, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(b))
	}
	v := make([]int32, len(b)/4)
	for i := range v {
		v[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
