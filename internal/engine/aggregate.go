package engine

import (
	"strings"

	"github.com/daryltucker/anneal-runner/internal/model"
)

// Aggregate merges rows with identical spins, summing their occurrences.
// Rows keep the order in which each assignment was first seen, along with
// that first row's energy and chain break fraction. The input is not
// modified.
func Aggregate(ss *model.SampleSet) *model.SampleSet {
	out := &model.SampleSet{
		Variables: append([]int(nil), ss.Variables...),
		Info:      ss.Info,
	}

	seen := make(map[string]int, len(ss.Records))
	for _, r := range ss.Records {
		k := spinKey(r.Spins)
		if i, ok := seen[k]; ok {
			out.Records[i].NumOccurrences += r.NumOccurrences
			continue
		}
		seen[k] = len(out.Records)
		r.Spins = append([]int8(nil), r.Spins...)
		out.Records = append(out.Records, r)
	}
	return out
}

func spinKey(spins []int8) string {
	var b strings.Builder
	b.Grow(len(spins))
	for _, s := range spins {
		if s > 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
