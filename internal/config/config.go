// Package config reads autovision configuration from environment variables.
// A .env file, when present, is loaded by the CLI before this runs.
package config

import (
	"os"
	"strconv"
)

// Config holds all autovision configuration.
type Config struct {
	Engine EngineConfig
	Cache  CacheConfig
	Log    LogConfig
}

// EngineConfig holds detection engine settings.
type EngineConfig struct {
	ModelDir    string
	DatasetPath string
	VocabFile   string // optional YAML color vocabulary override
	MinSupport  int
	MaxModelLen int
	FuzzyCutoff float64
	YearFloor   float64
	Debug       bool // attaches Meta.Debug payloads; never a request flag
}

// CacheConfig holds detection cache settings.
type CacheConfig struct {
	Path string // empty disables caching
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Engine: EngineConfig{
			ModelDir:    getenv("AUTOVISION_MODEL_DIR", "models"),
			DatasetPath: getenv("AUTOVISION_DATASET_PATH", "data/listings.csv"),
			VocabFile:   os.Getenv("AUTOVISION_VOCAB_FILE"),
			MinSupport:  getenvInt("AUTOVISION_MIN_SUPPORT", 10),
			MaxModelLen: getenvInt("AUTOVISION_MAX_MODEL_LEN", 25),
			FuzzyCutoff: getenvFloat("AUTOVISION_FUZZY_CUTOFF", 0.8),
			YearFloor:   getenvFloat("AUTOVISION_YEAR_FLOOR", 0.55),
			Debug:       getenvBool("AUTOVISION_DEBUG", false),
		},
		Cache: CacheConfig{
			Path: getenv("AUTOVISION_CACHE_PATH", "autovision.db"),
		},
		Log: LogConfig{
			Level: getenv("AUTOVISION_LOG_LEVEL", "info"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
