// Package classifier scores an image embedding against natural-language
// label prompts, zero-shot style.
package classifier

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/parkbench/autovision/internal/engine/embedder"
)

// logitScale is CLIP's learned temperature, applied before the softmax.
const logitScale = 100.0

// Candidate pairs a label with the prompt rendered for it.
type Candidate struct {
	Label  string
	Prompt string
}

// Classifier turns cosine similarities between an image embedding and
// prompt embeddings into a probability distribution over candidates.
// Prompt embeddings are memoized: the taxonomy prompt set is stable across
// calls, so each prompt is embedded at most once per process.
type Classifier struct {
	emb embedder.Embedder

	mu      sync.RWMutex
	prompts map[string][]float32
}

// New creates a Classifier backed by the given embedder.
func New(emb embedder.Embedder) *Classifier {
	return &Classifier{emb: emb, prompts: make(map[string][]float32)}
}

// Scores returns a probability simplex over the candidate labels for the
// given image embedding. The returned map sums to 1.
func (c *Classifier) Scores(imageVec []float32, cands []Candidate) (map[string]float64, error) {
	if len(cands) == 0 {
		return map[string]float64{}, nil
	}

	vecs, err := c.promptVectors(cands)
	if err != nil {
		return nil, err
	}

	logits := make([]float64, len(cands))
	for i, vec := range vecs {
		logits[i] = logitScale * cosine(imageVec, vec)
	}
	probs := softmax(logits)

	out := make(map[string]float64, len(cands))
	for i, cand := range cands {
		// Duplicate labels keep the higher-scoring prompt.
		if p, ok := out[cand.Label]; !ok || probs[i] > p {
			out[cand.Label] = probs[i]
		}
	}
	if len(out) < len(cands) {
		// Collapsing duplicates shed probability mass; restore the simplex.
		var sum float64
		for _, p := range out {
			sum += p
		}
		for label := range out {
			out[label] /= sum
		}
	}
	return out, nil
}

// promptVectors returns embeddings for each candidate prompt, embedding
// only those not yet cached.
func (c *Classifier) promptVectors(cands []Candidate) ([][]float32, error) {
	c.mu.RLock()
	var missing []string
	for _, cand := range cands {
		if _, ok := c.prompts[cand.Prompt]; !ok {
			missing = append(missing, cand.Prompt)
		}
	}
	c.mu.RUnlock()

	if len(missing) > 0 {
		vecs, err := c.emb.EmbedTexts(missing)
		if err != nil {
			return nil, fmt.Errorf("classifier: embed prompts: %w", err)
		}
		c.mu.Lock()
		for i, prompt := range missing {
			c.prompts[prompt] = vecs[i]
		}
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([][]float32, len(cands))
	for i, cand := range cands {
		out[i] = c.prompts[cand.Prompt]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// softmax converts logits to a probability simplex, shifted by the max
// logit for numeric stability.
func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	max := floats.Max(logits)
	for i, l := range logits {
		out[i] = math.Exp(l - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
