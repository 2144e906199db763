package detect

import (
	"fmt"
	"sort"

	"github.com/parkbench/autovision/internal/engine/classifier"
	"github.com/parkbench/autovision/internal/model"
)

// modelStageMakes caps how many candidate makes feed the model stage.
// Conditioning on the top makes keeps the candidate space bounded as the
// catalog grows; a flat pass over every (make, model) pair does not.
const modelStageMakes = 5

// Model runs the two-stage make→model classification for one image. For
// each of the top makes it classifies that make's models with a make-aware
// prompt, weights each model's score by the parent make's confidence, and
// merges into a single distribution keyed by model label.
func Model(s Scorer, imageVec []float32, makeDist map[string]float64, catalog *model.Catalog) (map[string]float64, error) {
	merged := make(map[string]float64)

	for _, mk := range topLabels(makeDist, modelStageMakes) {
		models := catalog.Models(mk)
		if len(models) == 0 {
			continue
		}

		cands := make([]classifier.Candidate, len(models))
		for i, md := range models {
			cands[i] = classifier.Candidate{
				Label:  md,
				Prompt: fmt.Sprintf(modelPrompt, mk, md),
			}
		}

		dist, err := s.Scores(imageVec, cands)
		if err != nil {
			return nil, err
		}

		weight := makeDist[mk]
		for md, p := range dist {
			merged[md] += weight * p
		}
	}

	normalize(merged)
	return merged, nil
}

// topLabels returns the k highest-probability labels, ties broken
// alphabetically for determinism.
func topLabels(dist map[string]float64, k int) []string {
	labels := make([]string, 0, len(dist))
	for label := range dist {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if dist[labels[i]] != dist[labels[j]] {
			return dist[labels[i]] > dist[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > k {
		labels = labels[:k]
	}
	return labels
}

// normalize rescales a distribution in place to sum to 1. A zero-mass
// distribution is left untouched.
func normalize(dist map[string]float64) {
	var sum float64
	for _, p := range dist {
		sum += p
	}
	if sum <= 0 {
		return
	}
	for label := range dist {
		dist[label] /= sum
	}
}
