package embedder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// contextLength is CLIP's fixed text sequence length.
const contextLength = 77

// tokenizer performs CLIP-style byte-pair encoding over a vocab.json /
// merges.txt pair. Label prompts are short ASCII strings, so the byte-level
// fallback table of the reference implementation is not carried; unknown
// symbols are dropped.
type tokenizer struct {
	vocab   map[string]int64
	merges  map[[2]string]int
	startID int64
	endID   int64
}

func newTokenizer(vocabPath, mergesPath string) (*tokenizer, error) {
	data, err := os.ReadFile(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	var vocab map[string]int64
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("tokenizer: parse vocab: %w", err)
	}

	startID, ok := vocab["<|startoftext|>"]
	if !ok {
		return nil, fmt.Errorf("tokenizer: vocab missing <|startoftext|>")
	}
	endID, ok := vocab["<|endoftext|>"]
	if !ok {
		return nil, fmt.Errorf("tokenizer: vocab missing <|endoftext|>")
	}

	merges, err := loadMerges(mergesPath)
	if err != nil {
		return nil, err
	}

	return &tokenizer{vocab: vocab, merges: merges, startID: startID, endID: endID}, nil
}

// loadMerges reads merges.txt: one "left right" pair per line, ordered by
// priority. Lines starting with "#" are header comments.
func loadMerges(path string) (map[[2]string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	defer f.Close()

	merges := make(map[[2]string]int)
	rank := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		merges[[2]string{parts[0], parts[1]}] = rank
		rank++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tokenizer: read merges: %w", err)
	}
	return merges, nil
}

// encodeBatch tokenizes texts into a flat [len(texts) * contextLength]
// int64 slice, each row wrapped in start/end tokens and zero-padded.
func (t *tokenizer) encodeBatch(texts []string) []int64 {
	out := make([]int64, len(texts)*contextLength)
	for i, text := range texts {
		row := out[i*contextLength : (i+1)*contextLength]
		t.encode(text, row)
	}
	return out
}

// encode fills row (length contextLength) with the token IDs for text.
func (t *tokenizer) encode(text string, row []int64) {
	tokens := []int64{t.startID}
	for _, word := range strings.Fields(cleanText(text)) {
		for _, piece := range t.bpe(word) {
			if id, ok := t.vocab[piece]; ok {
				tokens = append(tokens, id)
			}
		}
		if len(tokens) >= contextLength-1 {
			tokens = tokens[:contextLength-1]
			break
		}
	}
	tokens = append(tokens, t.endID)
	copy(row, tokens)
	// Remaining positions stay zero (padding).
}

// bpe applies byte-pair merges to a single word. The word's last symbol
// carries the "</w>" end-of-word marker, per the CLIP vocabulary.
func (t *tokenizer) bpe(word string) []string {
	runes := []rune(word)
	if len(runes) == 0 {
		return nil
	}

	symbols := make([]string, len(runes))
	for i, r := range runes {
		symbols[i] = string(r)
	}
	symbols[len(symbols)-1] += "</w>"

	for len(symbols) > 1 {
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(symbols)-1; i++ {
			rank, ok := t.merges[[2]string{symbols[i], symbols[i+1]}]
			if ok && (bestRank < 0 || rank < bestRank) {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		merged := symbols[bestIdx] + symbols[bestIdx+1]
		symbols = append(symbols[:bestIdx], append([]string{merged}, symbols[bestIdx+2:]...)...)
	}
	return symbols
}

// cleanText lowercases, strips accents and control characters, and
// normalizes whitespace, matching the prompt preprocessing of the text
// encoder's training pipeline.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case unicode.In(r, unicode.Mn):
			// Combining mark from NFD decomposition.
		case r == 0 || r == 0xFFFD || unicode.IsControl(r):
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
