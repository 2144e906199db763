package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the optional deployment override for the fixed detection
// vocabularies. Fields left empty keep the built-in defaults.
type Vocabulary struct {
	Colors []string `yaml:"colors"`
}

// LoadVocabulary reads a YAML vocabulary file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("config: vocabulary: %w", err)
	}
	return &v, nil
}

// ValidValues are caller-owned option lists for canonicalization, typically
// exported from the listing form's select fields. Empty lists fall back to
// the catalog and built-in vocabularies.
type ValidValues struct {
	Makes  []string `yaml:"makes"`
	Models []string `yaml:"models"`
	Colors []string `yaml:"colors"`
	Years  []int    `yaml:"years"`
}

// LoadValidValues reads a YAML valid-values file.
func LoadValidValues(path string) (*ValidValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: valid values: %w", err)
	}
	var v ValidValues
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("config: valid values: %w", err)
	}
	return &v, nil
}
