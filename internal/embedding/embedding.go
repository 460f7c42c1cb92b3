/*
PURPOSE:
  Maps a logical Ising problem onto a solver's qubit graph through a fixed,
  precomputed embedding, and maps the solver's answers back.

REQUIREMENTS:
  User-specified:
  - Each logical variable is represented by a chain of physical qubits.
  - Chains are held together with a fixed chain strength.

  Implementation-discovered:
  - A logical coupling is spread over every solver coupler between the two
    chains, so the total strength is preserved.
  - Chain couplers are ferromagnetic (-chain_strength) in the Ising sign
    convention used by the solver.
  - Broken chains need a policy; majority vote is the default.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (submit)
  - Consumes: internal/model, internal/sapi

ERROR HANDLING:
  - Invalid embeddings (empty, overlapping, non-working qubits, missing
    variables, no couplers between coupled chains) return errors.

IMPLEMENTATION RULES:
  - Pure functions; no I/O.

USAGE:
  adj := embedding.NewAdjacency(solver.Properties())
  prob, err := embedding.EmbedIsing(j, emb, adj, 2)
  rows, err := embedding.Unembed(result, emb, vars, j, embedding.MajorityVote)

SELF-HEALING INSTRUCTIONS:
  - If energies look off by a constant, check chain coupler signs first.

RELATED FILES:
  - internal/engine/submit.go
  - internal/sapi/problem.go

MAINTENANCE:
  - Add new chain-break policies to ParseChainBreakMethod.
*/

package embedding

import (
	"fmt"
	"sort"

	"github.com/daryltucker/anneal-runner/internal/model"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// Adjacency is the working graph of a solver.
type Adjacency struct {
	working map[int]bool
	edges   map[int]map[int]bool
}

// NewAdjacency builds the working graph from solver properties.
func NewAdjacency(props *sapi.SolverProperties) *Adjacency {
	a := &Adjacency{
		working: make(map[int]bool, len(props.Qubits)),
		edges:   make(map[int]map[int]bool),
	}
	for _, q := range props.Qubits {
		a.working[q] = true
	}
	for _, c := range props.Couplers {
		a.add(c[0], c[1])
	}
	return a
}

func (a *Adjacency) add(u, v int) {
	if a.edges[u] == nil {
		a.edges[u] = make(map[int]bool)
	}
	if a.edges[v] == nil {
		a.edges[v] = make(map[int]bool)
	}
	a.edges[u][v] = true
	a.edges[v][u] = true
}

// Working reports whether q is a working qubit.
func (a *Adjacency) Working(q int) bool {
	return a.working[q]
}

// Coupled reports whether u and v share a working coupler.
func (a *Adjacency) Coupled(u, v int) bool {
	return a.edges[u][v]
}

// Validate checks that every variable in vars has a non-empty chain of
// working qubits and that no two of those chains share a qubit. Chains for
// variables outside vars are ignored.
func Validate(emb model.Embedding, vars []int, adj *Adjacency) error {
	owner := make(map[int]int)
	for _, v := range vars {
		chain, ok := emb[v]
		if !ok {
			return fmt.Errorf("variable %d has no chain in the embedding", v)
		}
		if len(chain) == 0 {
			return fmt.Errorf("chain for variable %d is empty", v)
		}
		for _, q := range chain {
			if !adj.Working(q) {
				return fmt.Errorf("chain for variable %d uses qubit %d, which is not working", v, q)
			}
			if o, ok := owner[q]; ok && o != v {
				return fmt.Errorf("qubit %d is in the chains of both variable %d and variable %d", q, o, v)
			}
			owner[q] = v
		}
	}
	return nil
}

// EmbedIsing places the logical couplings j onto the solver graph. Logical
// linear biases are not supported; flux biases travel separately.
func EmbedIsing(j model.Couplings, emb model.Embedding, adj *Adjacency, chainStrength float64) (sapi.Problem, error) {
	j = j.Canonicalize()
	vars := variables(j)
	if err := Validate(emb, vars, adj); err != nil {
		return nil, err
	}

	quad := make(map[[2]int]float64)
	for _, c := range j {
		if c.I == c.J {
			return nil, fmt.Errorf("coupling (%d, %d) is a self-loop", c.I, c.J)
		}
		var edges [][2]int
		for _, p := range emb[c.I] {
			for _, q := range emb[c.J] {
				if adj.Coupled(p, q) {
					edges = append(edges, pair(p, q))
				}
			}
		}
		if len(edges) == 0 {
			return nil, fmt.Errorf("no coupler joins the chains of variables %d and %d", c.I, c.J)
		}
		share := c.Value / float64(len(edges))
		for _, e := range edges {
			quad[e] += share
		}
	}

	// Chain couplers.
	for _, v := range vars {
		chain := emb[v]
		for x := 0; x < len(chain); x++ {
			for y := x + 1; y < len(chain); y++ {
				if adj.Coupled(chain[x], chain[y]) {
					quad[pair(chain[x], chain[y])] -= chainStrength
				}
			}
		}
	}

	keys := make([][2]int, 0, len(quad))
	active := make(map[int]bool)
	for k := range quad {
		keys = append(keys, k)
		active[k[0]] = true
		active[k[1]] = true
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	prob := make(sapi.Problem, 0, len(keys))
	for _, k := range keys {
		prob = append(prob, sapi.ProblemEntry{I: k[0], J: k[1], Value: quad[k]})
	}
	// Qubits with no coupler still have to be sampled so their chain can be
	// read back.
	for _, v := range vars {
		for _, q := range emb[v] {
			if !active[q] {
				active[q] = true
				prob = append(prob, sapi.ProblemEntry{I: q, J: q, Value: 0})
			}
		}
	}
	return prob, nil
}

func pair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func variables(j model.Couplings) []int {
	seen := make(map[int]struct{})
	for _, c := range j {
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
