package localsolver

import (
	"math"
	"math/rand/v2"

	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// annealer runs single-spin-flip Metropolis simulated annealing over the
// active qubits of one problem.
type annealer struct {
	active []int         // qubit of each local spin
	field  []float64     // linear field per local spin, flux bias included
	nbrs   [][]neighbour // couplings per local spin
	sweeps int
	rng    *rand.Rand
}

type neighbour struct {
	spin int
	j    float64
}

func newAnnealer(p sapi.Problem, active []int, flux []float64, sweeps int, rng *rand.Rand) *annealer {
	local := make(map[int]int, len(active))
	for i, q := range active {
		local[q] = i
	}
	a := &annealer{
		active: active,
		field:  make([]float64, len(active)),
		nbrs:   make([][]neighbour, len(active)),
		sweeps: sweeps,
		rng:    rng,
	}
	for _, pe := range p {
		if pe.I == pe.J {
			a.field[local[pe.I]] += pe.Value
			continue
		}
		u, v := local[pe.I], local[pe.J]
		a.nbrs[u] = append(a.nbrs[u], neighbour{spin: v, j: pe.Value})
		a.nbrs[v] = append(a.nbrs[v], neighbour{spin: u, j: pe.Value})
	}
	if len(flux) > 0 {
		for i, q := range active {
			a.field[i] += flux[q]
		}
	}
	return a
}

// schedule returns a geometric inverse-temperature ramp scaled to the
// problem's largest coefficient.
func (a *annealer) schedule() []float64 {
	scale := 0.0
	for i := range a.field {
		s := math.Abs(a.field[i])
		for _, nb := range a.nbrs[i] {
			s += math.Abs(nb.j)
		}
		scale = math.Max(scale, s)
	}
	if scale == 0 {
		scale = 1
	}
	hot, cold := 0.1/scale, 10/scale
	betas := make([]float64, a.sweeps)
	for s := range betas {
		frac := 0.0
		if a.sweeps > 1 {
			frac = float64(s) / float64(a.sweeps-1)
		}
		betas[s] = hot * math.Pow(cold/hot, frac)
	}
	return betas
}

// sample returns one read as a qubit-indexed solution of length numQubits,
// with inactive qubits set to sapi.Unused.
func (a *annealer) sample(betas []float64, numQubits int) []int8 {
	spins := make([]int8, len(a.active))
	for i := range spins {
		if a.rng.IntN(2) == 0 {
			spins[i] = -1
		} else {
			spins[i] = 1
		}
	}
	for _, beta := range betas {
		for i := range spins {
			local := a.field[i]
			for _, nb := range a.nbrs[i] {
				local += nb.j * float64(spins[nb.spin])
			}
			// Energy change of flipping spin i.
			delta := -2 * float64(spins[i]) * local
			if delta <= 0 || a.rng.Float64() < math.Exp(-beta*delta) {
				spins[i] = -spins[i]
			}
		}
	}

	soln := make([]int8, numQubits)
	for q := range soln {
		soln[q] = sapi.Unused
	}
	for i, q := range a.active {
		soln[q] = spins[i]
	}
	return soln
}
