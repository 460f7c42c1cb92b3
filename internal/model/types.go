/*
PURPOSE:
  Defines the core data structures used throughout Anneal Runner.
  These models represent problem instances read from the dataset,
  sample sets returned by the solver, and per-instance summaries.

REQUIREMENTS:
  User-specified:
  - Instances carry solver, embedding, J and h.
  - Persist {sampleset: ...} records, one per successful instance.

  Implementation-discovered:
  - Need codec tags for the MessagePack record stream.
  - Need JSON tags for the JSON Lines summaries.
  - The loader must remember which keys were present so that missing
    fields can be reported per instance instead of aborting the run.

ARCHITECTURE INTEGRATION:
  - Used by: internal/dataset, internal/engine, internal/output, internal/cli
  - Shared across boundaries.

ERROR HANDLING:
  - Validate() returns *MissingFieldError. Everything else is pure data.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Instances are never mutated after loading.

USAGE:
  inst := model.ProblemInstance{...}
  if err := inst.Validate(); err != nil { ... }

SELF-HEALING INSTRUCTIONS:
  - If new per-instance metrics are needed, add a field to Summary and
    update the CSV/JSON writers.

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go
  - internal/dataset/loader.go

MAINTENANCE:
  - Update when the dataset record layout changes.
*/

package model

import (
	"math"
	"sort"
	"time"
)

// Required dataset keys.
const (
	FieldSolver    = "solver"
	FieldEmbedding = "embedding"
	FieldJ         = "J"
	FieldH         = "h"
)

// Coupling is a single logical coupling strength between variables I and J.
type Coupling struct {
	I     int     `codec:"i" json:"i"`
	J     int     `codec:"j" json:"j"`
	Value float64 `codec:"value" json:"value"`
}

// Couplings is a list of logical couplings.
type Couplings []Coupling

// Embedding maps a logical variable to its chain of physical qubits.
type Embedding map[int][]int

// ProblemInstance is one record of the input dataset.
type ProblemInstance struct {
	Index     int             // 1-based position in the input stream
	Solver    string          // Solver identifier (only the first record's value is used)
	Embedding Embedding       // Logical variable -> physical chain
	J         Couplings       // Logical couplings
	H         map[int]float64 // Physical qubit -> flux bias
	Missing   []string        // Required keys absent from the record
}

// Has reports whether the record carried the given key.
func (p ProblemInstance) Has(field string) bool {
	for _, m := range p.Missing {
		if m == field {
			return false
		}
	}
	return true
}

// Validate checks that the keys needed to submit the instance are present.
// The solver key is only required on the first record and is checked by the
// caller that acquires the sampler.
func (p ProblemInstance) Validate() error {
	var missing []string
	for _, f := range []string{FieldEmbedding, FieldJ, FieldH} {
		if !p.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Index: p.Index, Fields: missing}
	}
	return nil
}

// Variables returns the sorted logical variables referenced by J.
func (p ProblemInstance) Variables() []int {
	seen := make(map[int]struct{}, len(p.J))
	for _, c := range p.J {
		seen[c.I] = struct{}{}
		seen[c.J] = struct{}{}
	}
	vars := make([]int, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}

// NumQubits returns the number of distinct physical qubits used by the
// embedding.
func (p ProblemInstance) NumQubits() int {
	seen := make(map[int]struct{})
	for _, chain := range p.Embedding {
		for _, q := range chain {
			seen[q] = struct{}{}
		}
	}
	return len(seen)
}

// Canonicalize ensures that each Coupling has I <= J and that all {I, J}
// pairs are unique, summing the values of duplicates.
func (c Couplings) Canonicalize() Couplings {
	c1 := make(Couplings, len(c))
	for i, e := range c {
		if e.I > e.J {
			e.I, e.J = e.J, e.I
		}
		c1[i] = e
	}
	sort.Slice(c1, func(i, j int) bool {
		if c1[i].I != c1[j].I {
			return c1[i].I < c1[j].I
		}
		return c1[i].J < c1[j].J
	})

	c2 := make(Couplings, 0, len(c1))
	for i, e := range c1 {
		if i > 0 && e.I == c1[i-1].I && e.J == c1[i-1].J {
			c2[len(c2)-1].Value += e.Value
		} else {
			c2 = append(c2, e)
		}
	}
	return c2
}

// Energy returns the Ising energy sum(J_ij * s_i * s_j) of an assignment.
// pos maps each variable to its column in spins.
func (c Couplings) Energy(pos map[int]int, spins []int8) float64 {
	e := 0.0
	for _, cp := range c {
		e += cp.Value * float64(spins[pos[cp.I]]) * float64(spins[pos[cp.J]])
	}
	return e
}

// Sample is one row of a sample set.
type Sample struct {
	Spins              []int8  `codec:"sample" json:"sample"`
	Energy             float64 `codec:"energy" json:"energy"`
	NumOccurrences     int     `codec:"num_occurrences" json:"num_occurrences"`
	ChainBreakFraction float64 `codec:"chain_break_fraction" json:"chain_break_fraction"`
}

// SampleInfo carries metadata returned alongside the samples.
type SampleInfo struct {
	ProblemID string             `codec:"problem_id" json:"problem_id"`
	Solver    string             `codec:"solver" json:"solver"`
	Timing    map[string]float64 `codec:"timing" json:"timing,omitempty"`
}

// SampleSet is a solver response mapped back onto logical variables.
type SampleSet struct {
	Variables []int      `codec:"variables" json:"variables"`
	Records   []Sample   `codec:"records" json:"records"`
	Info      SampleInfo `codec:"info" json:"info"`
}

// NumReads returns the total number of occurrences across all rows.
func (s *SampleSet) NumReads() int {
	n := 0
	for _, r := range s.Records {
		n += r.NumOccurrences
	}
	return n
}

// LowestEnergy returns the minimum energy, or NaN for an empty set.
func (s *SampleSet) LowestEnergy() float64 {
	if len(s.Records) == 0 {
		return math.NaN()
	}
	low := s.Records[0].Energy
	for _, r := range s.Records[1:] {
		if r.Energy < low {
			low = r.Energy
		}
	}
	return low
}

// MeanChainBreak returns the occurrence-weighted mean chain break fraction.
func (s *SampleSet) MeanChainBreak() float64 {
	total := s.NumReads()
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range s.Records {
		sum += r.ChainBreakFraction * float64(r.NumOccurrences)
	}
	return sum / float64(total)
}

// ResultRecord is the unit appended to the results file.
type ResultRecord struct {
	SampleSet *SampleSet `codec:"sampleset" json:"sampleset"`
}

// Instance outcome labels used in summaries.
const (
	StatusSaved   = "saved"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Summary represents the outcome of a single instance.
type Summary struct {
	RunID          string        `json:"run_id"`
	Index          int           `json:"index"`
	Status         string        `json:"status"`
	Solver         string        `json:"solver"`
	ProblemID      string        `json:"problem_id,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
	Duration       time.Duration `json:"duration"`
	NumRows        int           `json:"num_rows"`
	NumReads       int           `json:"num_reads"`
	LowestEnergy   float64       `json:"lowest_energy"`
	MeanChainBreak float64       `json:"mean_chain_break"`
	Error          string        `json:"error,omitempty"`
}
