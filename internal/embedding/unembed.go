package embedding

import (
	"fmt"

	"github.com/daryltucker/anneal-runner/internal/model"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

// A ChainBreakMethod resolves chains whose qubits disagree.
type ChainBreakMethod string

// Supported chain-break methods.
const (
	// MajorityVote takes the sign of the chain sum; a tie resolves to +1.
	MajorityVote ChainBreakMethod = "majority_vote"
	// Discard drops every row with at least one broken chain.
	Discard ChainBreakMethod = "discard"
)

// ParseChainBreakMethod converts a configuration string into a method.
func ParseChainBreakMethod(s string) (ChainBreakMethod, error) {
	switch ChainBreakMethod(s) {
	case MajorityVote, Discard:
		return ChainBreakMethod(s), nil
	case "":
		return MajorityVote, nil
	default:
		return "", fmt.Errorf("unknown chain break method %q", s)
	}
}

// Unembed maps each row of res back onto vars and recomputes logical
// energies from j. Row order and occurrence counts are preserved; Discard
// may drop rows.
func Unembed(res sapi.IsingResult, emb model.Embedding, vars []int, j model.Couplings, method ChainBreakMethod) ([]model.Sample, error) {
	if len(res.Occurrences) != len(res.Solutions) {
		return nil, fmt.Errorf("result has %d solutions but %d occurrence counts", len(res.Solutions), len(res.Occurrences))
	}
	pos := make(map[int]int, len(vars))
	for i, v := range vars {
		pos[v] = i
		if _, ok := emb[v]; !ok {
			return nil, fmt.Errorf("variable %d has no chain in the embedding", v)
		}
	}

	samples := make([]model.Sample, 0, len(res.Solutions))
	for row, soln := range res.Solutions {
		spins := make([]int8, len(vars))
		broken := 0
		for i, v := range vars {
			sum := 0
			for _, q := range emb[v] {
				if q < 0 || q >= len(soln) {
					return nil, fmt.Errorf("row %d: qubit %d outside the answer", row, q)
				}
				s := soln[q]
				if s != 1 && s != -1 {
					return nil, fmt.Errorf("row %d: qubit %d was not sampled", row, q)
				}
				sum += int(s)
			}
			if sum != len(emb[v]) && sum != -len(emb[v]) {
				broken++
			}
			if sum >= 0 {
				spins[i] = 1
			} else {
				spins[i] = -1
			}
		}
		if broken > 0 && method == Discard {
			continue
		}
		frac := 0.0
		if len(vars) > 0 {
			frac = float64(broken) / float64(len(vars))
		}
		samples = append(samples, model.Sample{
			Spins:              spins,
			Energy:             j.Energy(pos, spins),
			NumOccurrences:     res.Occurrences[row],
			ChainBreakFraction: frac,
		})
	}
	return samples, nil
}
