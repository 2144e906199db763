package embedder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTokenizer builds a tokenizer over a tiny vocabulary that can merge
// "a", "red", and "car".
func newTestTokenizer(t *testing.T) *tokenizer {
	t.Helper()
	dir := t.TempDir()

	vocab := `{
		"<|startoftext|>": 49406,
		"<|endoftext|>": 49407,
		"a</w>": 320,
		"red</w>": 736,
		"car</w>": 1615,
		"re": 10,
		"ca": 11
	}`
	merges := "#version: 0.2\nr e\nre d</w>\nc a\nca r</w>\n"

	vocabPath := filepath.Join(dir, "vocab.json")
	mergesPath := filepath.Join(dir, "merges.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte(vocab), 0o644))
	require.NoError(t, os.WriteFile(mergesPath, []byte(merges), 0o644))

	tok, err := newTokenizer(vocabPath, mergesPath)
	require.NoError(t, err)
	return tok
}

func TestEncodeWrapsAndPads(t *testing.T) {
	tok := newTestTokenizer(t)

	row := make([]int64, contextLength)
	tok.encode("a red car", row)

	assert.Equal(t, []int64{49406, 320, 736, 1615, 49407}, row[:5])
	for i := 5; i < contextLength; i++ {
		assert.Zero(t, row[i], "position %d must be padding", i)
	}
}

func TestEncodeIsCaseInsensitive(t *testing.T) {
	tok := newTestTokenizer(t)

	lower := make([]int64, contextLength)
	upper := make([]int64, contextLength)
	tok.encode("a red car", lower)
	tok.encode("A Red CAR", upper)

	assert.Equal(t, lower, upper)
}

func TestEncodeDropsUnknownWords(t *testing.T) {
	tok := newTestTokenizer(t)

	row := make([]int64, contextLength)
	tok.encode("a zzz car", row)

	// "zzz" has no vocabulary entry at any merge level and is dropped.
	assert.Equal(t, []int64{49406, 320, 1615, 49407}, row[:4])
}

func TestEncodeTruncatesLongText(t *testing.T) {
	tok := newTestTokenizer(t)

	row := make([]int64, contextLength)
	tok.encode(strings.Repeat("a ", 200), row)

	assert.Equal(t, int64(49406), row[0])
	assert.Equal(t, int64(49407), row[contextLength-1], "end token survives truncation")
	assert.Equal(t, int64(320), row[contextLength-2])
}

func TestEncodeBatchLayout(t *testing.T) {
	tok := newTestTokenizer(t)

	flat := tok.encodeBatch([]string{"a", "red car"})
	require.Len(t, flat, 2*contextLength)

	assert.Equal(t, []int64{49406, 320, 49407}, flat[:3])
	assert.Equal(t, []int64{49406, 736, 1615, 49407}, flat[contextLength:contextLength+4])
}

func TestBPEMergeOrder(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, []string{"red</w>"}, tok.bpe("red"))
	assert.Equal(t, []string{"car</w>"}, tok.bpe("car"))
	assert.Equal(t, []string{"a</w>"}, tok.bpe("a"))
	assert.Nil(t, tok.bpe(""))
}

func TestNewTokenizerMissingSpecialTokens(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.json")
	mergesPath := filepath.Join(dir, "merges.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte(`{"a</w>": 1}`), 0o644))
	require.NoError(t, os.WriteFile(mergesPath, []byte(""), 0o644))

	_, err := newTokenizer(vocabPath, mergesPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startoftext")
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"A Red CAR", "a red car"},
		{"  spaced \t out \n", "spaced out"},
		{"café", "cafe"},
		{"tab\x00null", "tabnull"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanText(tc.in), "cleanText(%q)", tc.in)
	}
}
