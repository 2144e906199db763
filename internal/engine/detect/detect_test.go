package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkbench/autovision/internal/engine/classifier"
	"github.com/parkbench/autovision/internal/model"
)

// fakeScorer records the prompts it sees and returns canned distributions
// keyed by the first candidate's prompt.
type fakeScorer struct {
	responses map[string]map[string]float64
	prompts   [][]string
	uniform   bool
}

func (f *fakeScorer) Scores(imageVec []float32, cands []classifier.Candidate) (map[string]float64, error) {
	seen := make([]string, len(cands))
	for i, c := range cands {
		seen[i] = c.Prompt
	}
	f.prompts = append(f.prompts, seen)

	if f.uniform || len(cands) == 0 {
		out := make(map[string]float64, len(cands))
		for _, c := range cands {
			out[c.Label] = 1.0 / float64(len(cands))
		}
		return out, nil
	}
	return f.responses[cands[0].Prompt], nil
}

func TestMakePromptRendering(t *testing.T) {
	s := &fakeScorer{uniform: true}
	dist, err := Make(s, []float32{1}, []string{"Toyota", "Honda"})
	require.NoError(t, err)

	require.Len(t, s.prompts, 1)
	assert.Equal(t, []string{
		"a photo of a Toyota vehicle",
		"a photo of a Honda vehicle",
	}, s.prompts[0])
	assert.InDelta(t, 0.5, dist["Toyota"], 1e-9)
}

func TestColorUsesDefaultVocabulary(t *testing.T) {
	s := &fakeScorer{uniform: true}
	dist, err := Color(s, []float32{1}, nil)
	require.NoError(t, err)

	assert.Len(t, dist, len(DefaultColors))
	require.Len(t, s.prompts, 1)
	assert.Contains(t, s.prompts[0], "a photo of a silver car in daylight")
}

func TestColorCustomVocabulary(t *testing.T) {
	s := &fakeScorer{uniform: true}
	dist, err := Color(s, []float32{1}, []string{"teal"})
	require.NoError(t, err)

	assert.Len(t, dist, 1)
	assert.Equal(t, []string{"a photo of a teal car in daylight"}, s.prompts[0])
}

func TestModelTwoStageWeighting(t *testing.T) {
	catalog := &model.Catalog{
		Makes: []string{"Honda", "Toyota"},
		ModelsByMake: map[string][]string{
			"Toyota": {"Camry"},
			"Honda":  {"Civic"},
		},
	}
	makeDist := map[string]float64{"Toyota": 0.8, "Honda": 0.2}

	s := &fakeScorer{responses: map[string]map[string]float64{
		"a photo of a Toyota Camry vehicle": {"Camry": 1.0},
		"a photo of a Honda Civic vehicle":  {"Civic": 1.0},
	}}

	dist, err := Model(s, []float32{1}, makeDist, catalog)
	require.NoError(t, err)

	// Merged mass follows the make weights and is renormalized to 1.
	assert.InDelta(t, 0.8, dist["Camry"], 1e-9)
	assert.InDelta(t, 0.2, dist["Civic"], 1e-9)

	var sum float64
	for _, p := range dist {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestModelSkipsMakesWithoutModels(t *testing.T) {
	catalog := &model.Catalog{
		Makes:        []string{"Ferrari", "Toyota"},
		ModelsByMake: map[string][]string{"Toyota": {"Camry"}},
	}
	makeDist := map[string]float64{"Ferrari": 0.9, "Toyota": 0.1}

	s := &fakeScorer{responses: map[string]map[string]float64{
		"a photo of a Toyota Camry vehicle": {"Camry": 1.0},
	}}

	dist, err := Model(s, []float32{1}, makeDist, catalog)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, dist["Camry"], 1e-9)
	require.Len(t, s.prompts, 1, "the modelless make must not reach the scorer")
}

func TestModelCapsStageMakes(t *testing.T) {
	makeDist := make(map[string]float64)
	modelsByMake := make(map[string][]string)
	responses := make(map[string]map[string]float64)
	names := []string{"Audi", "BMW", "Fiat", "Honda", "Kia", "Mazda", "Seat"}
	for i, mk := range names {
		makeDist[mk] = float64(len(names)-i) / 10
		md := mk + "-1"
		modelsByMake[mk] = []string{md}
		responses["a photo of a "+mk+" "+md+" vehicle"] = map[string]float64{md: 1.0}
	}
	catalog := &model.Catalog{Makes: names, ModelsByMake: modelsByMake}

	s := &fakeScorer{responses: responses}
	dist, err := Model(s, []float32{1}, makeDist, catalog)
	require.NoError(t, err)

	assert.Len(t, s.prompts, modelStageMakes)
	assert.NotContains(t, dist, "Mazda-1")
	assert.NotContains(t, dist, "Seat-1")
}

func TestTopLabelsTieBreak(t *testing.T) {
	dist := map[string]float64{"b": 0.4, "a": 0.4, "c": 0.2}
	assert.Equal(t, []string{"a", "b", "c"}, topLabels(dist, 3))
	assert.Equal(t, []string{"a", "b"}, topLabels(dist, 2))
}

func TestNormalize(t *testing.T) {
	dist := map[string]float64{"a": 2, "b": 6}
	normalize(dist)
	assert.InDelta(t, 0.25, dist["a"], 1e-9)
	assert.InDelta(t, 0.75, dist["b"], 1e-9)

	zero := map[string]float64{"a": 0}
	normalize(zero)
	assert.Equal(t, 0.0, zero["a"])
}

func TestYearBucketsCoverWindow(t *testing.T) {
	buckets := YearBuckets()
	require.NotEmpty(t, buckets)

	assert.Equal(t, "1992-1996", buckets[0].Label)
	assert.Equal(t, 1992, buckets[0].Start)

	last := buckets[len(buckets)-1]
	assert.GreaterOrEqual(t, last.End, 2026)

	// Contiguous, non-overlapping ranges.
	for i := 1; i < len(buckets); i++ {
		assert.Equal(t, buckets[i-1].End+1, buckets[i].Start)
	}
}

func TestYearPromptRendering(t *testing.T) {
	s := &fakeScorer{uniform: true}
	dist, err := Year(s, []float32{1})
	require.NoError(t, err)

	assert.Len(t, dist, len(YearBuckets()))
	require.Len(t, s.prompts, 1)
	assert.Contains(t, s.prompts[0], "a photo of a car made between 1992 and 1996")
}

func TestBucketByLabel(t *testing.T) {
	b, ok := BucketByLabel("2012-2016")
	require.True(t, ok)
	assert.Equal(t, 2012, b.Start)
	assert.Equal(t, 2016, b.End)

	_, ok = BucketByLabel("nope")
	assert.False(t, ok)
}

func TestExpandYears(t *testing.T) {
	b, ok := BucketByLabel("2012-2016")
	require.True(t, ok)

	years, confs := ExpandYears(b, 0.8)
	require.Equal(t, []int{2014, 2015, 2013, 2016, 2012}, years)
	require.Len(t, confs, 5)

	assert.InDelta(t, 0.8, confs[0], 1e-9)
	assert.InDelta(t, 0.8*0.85, confs[1], 1e-9)
	assert.InDelta(t, 0.8*0.7, confs[4], 1e-9)
}

func TestExpandYearsClampsToWindow(t *testing.T) {
	buckets := YearBuckets()
	last := buckets[len(buckets)-1]

	years, confs := ExpandYears(last, 1.0)
	require.Equal(t, len(years), len(confs))
	for _, y := range years {
		assert.LessOrEqual(t, y, 2026)
		assert.GreaterOrEqual(t, y, 1992)
	}
}
