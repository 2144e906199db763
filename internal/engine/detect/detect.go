// Package detect holds the per-attribute classification routines built on
// the zero-shot classifier and the label catalog.
package detect

import (
	"fmt"

	"github.com/parkbench/autovision/internal/engine/classifier"
)

// Scorer is the slice of the classifier the detectors need.
type Scorer interface {
	Scores(imageVec []float32, cands []classifier.Candidate) (map[string]float64, error)
}

// Prompt templates per attribute.
const (
	makePrompt  = "a photo of a %s vehicle"
	modelPrompt = "a photo of a %s %s vehicle"
	colorPrompt = "a photo of a %s car in daylight"
	yearPrompt  = "a photo of a car made between %d and %d"
)

func makeCandidates(labels []string, render func(string) string) []classifier.Candidate {
	cands := make([]classifier.Candidate, len(labels))
	for i, label := range labels {
		cands[i] = classifier.Candidate{Label: label, Prompt: render(label)}
	}
	return cands
}

// Make classifies the image against every catalog make and returns the full
// probability distribution.
func Make(s Scorer, imageVec []float32, makes []string) (map[string]float64, error) {
	return s.Scores(imageVec, makeCandidates(makes, func(m string) string {
		return fmt.Sprintf(makePrompt, m)
	}))
}
