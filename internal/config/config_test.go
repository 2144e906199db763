package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"AUTOVISION_MODEL_DIR", "AUTOVISION_DATASET_PATH", "AUTOVISION_VOCAB_FILE",
		"AUTOVISION_MIN_SUPPORT", "AUTOVISION_MAX_MODEL_LEN", "AUTOVISION_FUZZY_CUTOFF",
		"AUTOVISION_YEAR_FLOOR", "AUTOVISION_DEBUG", "AUTOVISION_CACHE_PATH",
		"AUTOVISION_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "models", cfg.Engine.ModelDir)
	assert.Equal(t, "data/listings.csv", cfg.Engine.DatasetPath)
	assert.Equal(t, 10, cfg.Engine.MinSupport)
	assert.Equal(t, 25, cfg.Engine.MaxModelLen)
	assert.Equal(t, 0.8, cfg.Engine.FuzzyCutoff)
	assert.Equal(t, 0.55, cfg.Engine.YearFloor)
	assert.False(t, cfg.Engine.Debug)
	assert.Equal(t, "autovision.db", cfg.Cache.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTOVISION_MODEL_DIR", "/opt/clip")
	t.Setenv("AUTOVISION_MIN_SUPPORT", "5")
	t.Setenv("AUTOVISION_FUZZY_CUTOFF", "0.9")
	t.Setenv("AUTOVISION_DEBUG", "true")

	cfg := Load()
	assert.Equal(t, "/opt/clip", cfg.Engine.ModelDir)
	assert.Equal(t, 5, cfg.Engine.MinSupport)
	assert.Equal(t, 0.9, cfg.Engine.FuzzyCutoff)
	assert.True(t, cfg.Engine.Debug)
}

func TestLoadIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("AUTOVISION_MIN_SUPPORT", "not-a-number")
	t.Setenv("AUTOVISION_YEAR_FLOOR", "high")
	t.Setenv("AUTOVISION_DEBUG", "maybe")

	cfg := Load()
	assert.Equal(t, 10, cfg.Engine.MinSupport)
	assert.Equal(t, 0.55, cfg.Engine.YearFloor)
	assert.False(t, cfg.Engine.Debug)
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors:\n  - teal\n  - maroon\n"), 0o644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"teal", "maroon"}, v.Colors)
}

func TestLoadValidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	content := "makes:\n  - Toyota\nmodels:\n  - Camry\nyears:\n  - 2014\n  - 2015\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := LoadValidValues(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Toyota"}, v.Makes)
	assert.Equal(t, []string{"Camry"}, v.Models)
	assert.Empty(t, v.Colors)
	assert.Equal(t, []int{2014, 2015}, v.Years)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadVocabularyInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors: [unclosed"), 0o644))

	_, err := LoadVocabulary(path)
	require.Error(t, err)
}
