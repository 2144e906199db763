// Package canonical maps raw predicted labels onto the nearest member of a
// caller-supplied valid-value set.
package canonical

import "strings"

// DefaultCutoff is the similarity-ratio acceptance threshold for the fuzzy
// tier. A tunable heuristic, not a derived constant.
const DefaultCutoff = 0.8

// Matcher resolves raw labels against valid-value sets through an ordered
// tier chain: exact match, case-insensitive match, then similarity ratio.
// First tier to match wins; no tier matching means no guess is made.
type Matcher struct {
	Cutoff float64
}

// New creates a Matcher. A non-positive cutoff falls back to DefaultCutoff.
func New(cutoff float64) Matcher {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return Matcher{Cutoff: cutoff}
}

// Normalize returns the canonical form of raw from valid, and whether any
// tier matched. The returned value is always drawn from valid.
func (m Matcher) Normalize(raw string, valid []string) (string, bool) {
	if raw == "" || len(valid) == 0 {
		return "", false
	}
	for _, tier := range []func(string, []string) (string, bool){
		exact,
		caseInsensitive,
		m.fuzzy,
	} {
		if v, ok := tier(raw, valid); ok {
			return v, true
		}
	}
	return "", false
}

func exact(raw string, valid []string) (string, bool) {
	for _, v := range valid {
		if raw == v {
			return v, true
		}
	}
	return "", false
}

func caseInsensitive(raw string, valid []string) (string, bool) {
	folded := strings.ToLower(raw)
	for _, v := range valid {
		if folded == strings.ToLower(v) {
			return v, true
		}
	}
	return "", false
}

// fuzzy picks the valid value with the highest similarity ratio to raw,
// accepting it only at or above the cutoff.
func (m Matcher) fuzzy(raw string, valid []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, v := range valid {
		if score := Similarity(raw, v); score > bestScore {
			best = v
			bestScore = score
		}
	}
	if bestScore >= m.Cutoff {
		return best, true
	}
	return "", false
}

// Similarity is a difflib-style ratio: 2·LCS(a,b) / (len(a)+len(b)) over
// casefolded runes. 1 for identical strings, 0 for disjoint ones.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 2 * float64(lcs(ra, rb)) / float64(len(ra)+len(rb))
}

// lcs computes longest-common-subsequence length with a rolling row.
func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
