package model

import (
	"strconv"
	"time"
)

// Level is the overall confidence tier of a detection.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Prediction is one string-valued attribute candidate. Value is nil when
// canonicalization could not map the raw label onto the valid-value set; in
// that case Original retains the raw label for observability.
type Prediction struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
	Original   string  `json:"original,omitempty"`
}

// YearPrediction is a specific-year candidate. Value is nil when the winning
// year range scored below the configured floor.
type YearPrediction struct {
	Value      *int    `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Ranking is up to five predictions in descending confidence order.
type Ranking []Prediction

// YearRanking is up to five year predictions in descending confidence order.
type YearRanking []YearPrediction

// Best holds the rank-1 prediction per attribute.
type Best struct {
	Make  Prediction     `json:"make"`
	Model Prediction     `json:"model"`
	Color Prediction     `json:"color"`
	Year  YearPrediction `json:"year"`
}

// TopK holds the full per-attribute rankings.
type TopK struct {
	Make  Ranking     `json:"make"`
	Model Ranking     `json:"model"`
	Color Ranking     `json:"color"`
	Year  YearRanking `json:"year"`
}

// Debug carries raw pipeline internals for offline threshold tuning.
// Attached only when debug mode is enabled in configuration.
type Debug struct {
	PerImageTop1 []map[string]string           `json:"per_image_top1"`
	Aggregated   map[string]map[string]float64 `json:"aggregated_probabilities"`
}

// Meta describes how a detection was produced.
type Meta struct {
	ConfidenceLevel Level     `json:"confidence_level"`
	NumImages       int       `json:"num_images"`
	ImageHash       string    `json:"image_hash"`
	LabelsVersion   string    `json:"labels_version"`
	RuntimeMS       int64     `json:"runtime_ms"`
	Device          string    `json:"device"`
	CreatedAt       time.Time `json:"created_at"`
	Debug           *Debug    `json:"debug,omitempty"`
}

// Result is an immutable detection outcome for one (image set, taxonomy
// version) pair. A changed image set or taxonomy supersedes it with a new
// Result; it is never mutated in place.
type Result struct {
	ID   string `json:"id"`
	Best Best   `json:"best"`
	TopK TopK   `json:"topk"`
	Meta Meta   `json:"meta"`
}

// Prefill projects Best into the flat form-field map. Empty when the
// confidence tier is low; nil values are never written.
func (r *Result) Prefill() map[string]string {
	m := make(map[string]string, 4)
	if r.Meta.ConfidenceLevel == LevelLow {
		return m
	}
	if r.Best.Make.Value != nil {
		m["make"] = *r.Best.Make.Value
	}
	if r.Best.Model.Value != nil {
		m["model"] = *r.Best.Model.Value
	}
	if r.Best.Color.Value != nil {
		m["color"] = *r.Best.Color.Value
	}
	if r.Best.Year.Value != nil {
		m["year"] = strconv.Itoa(*r.Best.Year.Value)
	}
	return m
}

// Override records human edits to auto-filled fields. Written only after a
// result has been surfaced and a user changed a prefilled value.
type Override struct {
	SelectedByUser map[string]string `json:"selected_by_user"`
	UserOverrode   bool              `json:"user_overrode"`
}

// StringPtr returns a pointer to s. Convenience for building predictions.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
