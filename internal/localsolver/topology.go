package localsolver

import (
	"fmt"
	"slices"

	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// Chimera returns the properties of a Chimera C(m, n, t) graph: an m x n
// grid of complete bipartite K_{t,t} cells. Qubit (i, j, u, k) sits in row
// i, column j, shore u, offset k and has linear index ((i*n+j)*2+u)*t+k.
// Vertical shores (u=0) couple down the column, horizontal shores (u=1)
// along the row. Broken qubits are left out together with their couplers.
func Chimera(m, n, t int, broken ...int) (*sapi.SolverProperties, error) {
	if m <= 0 || n <= 0 || t <= 0 {
		return nil, fmt.Errorf("chimera dimensions must be positive, got C(%d, %d, %d)", m, n, t)
	}
	num := m * n * 2 * t
	dead := make(map[int]bool, len(broken))
	for _, q := range broken {
		if q < 0 || q >= num {
			return nil, fmt.Errorf("broken qubit %d outside [0, %d)", q, num)
		}
		dead[q] = true
	}

	index := func(i, j, u, k int) int {
		return ((i*n+j)*2+u)*t + k
	}

	var qubits []int
	for q := 0; q < num; q++ {
		if !dead[q] {
			qubits = append(qubits, q)
		}
	}

	var couplers [][2]int
	add := func(a, b int) {
		if dead[a] || dead[b] {
			return
		}
		if a > b {
			a, b = b, a
		}
		couplers = append(couplers, [2]int{a, b})
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < t; k++ {
				for l := 0; l < t; l++ {
					add(index(i, j, 0, k), index(i, j, 1, l))
				}
				if i+1 < m {
					add(index(i, j, 0, k), index(i+1, j, 0, k))
				}
				if j+1 < n {
					add(index(i, j, 1, k), index(i, j+1, 1, k))
				}
			}
		}
	}
	slices.SortFunc(couplers, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})

	return &sapi.SolverProperties{
		NumQubits:             num,
		Qubits:                qubits,
		Couplers:              couplers,
		SupportedProblemTypes: []string{"ising"},
		HRange:                [2]float64{-2, 2},
		JRange:                [2]float64{-1, 1},
		AnnealingTimeRange:    [2]float64{0.005, 2000},
		Topology:              &sapi.Topology{Type: "chimera", Shape: []int{m, n, t}},
		Parameters: map[string]interface{}{
			"num_reads":      "Number of states to read.",
			"annealing_time": "Quantum annealing duration, in microseconds.",
			"fast_anneal":    "Use the fast-anneal protocol.",
			"auto_scale":     "Scale h and J to the solver's ranges.",
			"answer_mode":    "raw or histogram.",
			"flux_biases":    "Per-qubit flux-bias offsets.",
		},
	}, nil
}
