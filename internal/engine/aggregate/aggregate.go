// Package aggregate merges per-image probability distributions into one
// ranked list per attribute.
package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Entry is one ranked candidate after aggregation.
type Entry struct {
	Label string
	Prob  float64
}

// Mean computes the arithmetic mean of each candidate's probability across
// all distributions. Candidates absent from a distribution contribute zero.
// The mean is order-invariant, so permuting the input images cannot change
// the result.
func Mean(dists []map[string]float64) map[string]float64 {
	if len(dists) == 0 {
		return map[string]float64{}
	}

	keys := unionKeys(dists)
	sum := make([]float64, len(keys))
	vec := make([]float64, len(keys))
	for _, dist := range dists {
		for i, k := range keys {
			vec[i] = dist[k]
		}
		floats.Add(sum, vec)
	}
	floats.Scale(1/float64(len(dists)), sum)

	out := make(map[string]float64, len(keys))
	for i, k := range keys {
		out[k] = sum[i]
	}
	return out
}

// TopK ranks a distribution, descending by probability with alphabetical
// tie-breaking so the ordering is deterministic.
func TopK(dist map[string]float64, k int) []Entry {
	entries := make([]Entry, 0, len(dist))
	for label, p := range dist {
		entries = append(entries, Entry{Label: label, Prob: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Prob != entries[j].Prob {
			return entries[i].Prob > entries[j].Prob
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// unionKeys returns the sorted union of all keys across distributions.
func unionKeys(dists []map[string]float64) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, dist := range dists {
		for k := range dist {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
