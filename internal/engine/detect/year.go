package detect

import (
	"fmt"

	"github.com/parkbench/autovision/internal/engine/classifier"
)

// Year buckets span the plausible manufacturing window in 5-year ranges.
// Per-year visual discrimination is unreliable; ranges classify well and the
// winner is expanded to specific years afterwards.
type YearBucket struct {
	Label string
	Start int
	End   int
}

// DefaultYearFloor is the bucket confidence below which no specific best
// year is committed (suggestions are still returned).
const DefaultYearFloor = 0.55

const (
	yearWindowStart = 1992
	yearWindowEnd   = 2026
	yearBucketSpan  = 5
)

// YearBuckets returns the fixed bucket list covering the window.
func YearBuckets() []YearBucket {
	var buckets []YearBucket
	for start := yearWindowStart; start < yearWindowEnd; start += yearBucketSpan {
		end := start + yearBucketSpan - 1
		if end > yearWindowEnd {
			end = yearWindowEnd
		}
		buckets = append(buckets, YearBucket{
			Label: fmt.Sprintf("%d-%d", start, end),
			Start: start,
			End:   end,
		})
	}
	return buckets
}

// Year classifies the image against the year-range buckets and returns the
// distribution keyed by bucket label.
func Year(s Scorer, imageVec []float32) (map[string]float64, error) {
	buckets := YearBuckets()
	cands := make([]classifier.Candidate, len(buckets))
	for i, b := range buckets {
		cands[i] = classifier.Candidate{
			Label:  b.Label,
			Prompt: fmt.Sprintf(yearPrompt, b.Start, b.End),
		}
	}
	return s.Scores(imageVec, cands)
}

// BucketByLabel resolves a bucket label back to its range.
func BucketByLabel(label string) (YearBucket, bool) {
	for _, b := range YearBuckets() {
		if b.Label == label {
			return b, true
		}
	}
	return YearBucket{}, false
}

// ExpandYears maps a winning bucket to 5 representative specific years
// centered within the range, with confidences decaying from the center.
// Returned in descending confidence order (center first).
func ExpandYears(b YearBucket, confidence float64) ([]int, []float64) {
	center := (b.Start + b.End) / 2
	years := []int{center, center + 1, center - 1, center + 2, center - 2}
	weights := []float64{1.0, 0.85, 0.85, 0.7, 0.7}

	outYears := make([]int, 0, len(years))
	outConfs := make([]float64, 0, len(years))
	for i, y := range years {
		if y < yearWindowStart || y > yearWindowEnd {
			continue
		}
		outYears = append(outYears, y)
		outConfs = append(outConfs, confidence*weights[i])
	}
	return outYears, outConfs
}
