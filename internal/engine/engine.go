// Package engine orchestrates the detection pipeline: image loading, dedup,
// optional cropping, per-attribute classification, aggregation,
// canonicalization, and the confidence gate.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parkbench/autovision/internal/engine/aggregate"
	"github.com/parkbench/autovision/internal/engine/canonical"
	"github.com/parkbench/autovision/internal/engine/cropper"
	"github.com/parkbench/autovision/internal/engine/dedup"
	"github.com/parkbench/autovision/internal/engine/detect"
	"github.com/parkbench/autovision/internal/engine/embedder"
	"github.com/parkbench/autovision/internal/model"
)

// Confidence tier thresholds.
const (
	highMakeThreshold  = 0.80
	highModelThreshold = 0.75
	highYearThreshold  = 0.70
	lowMakeThreshold   = 0.55
)

const topK = 5

// ImageEmbedder is the slice of the embedder the engine needs.
type ImageEmbedder interface {
	EmbedImage(img image.Image) ([]float32, error)
	Device() string
}

// CatalogSource supplies the label catalog and its version fingerprint.
type CatalogSource interface {
	Load() (*model.Catalog, error)
	Version() (string, error)
}

// ValidValues are the caller-owned sets the canonicalizer snaps predictions
// onto, typically the exact option lists backing the listing form. Empty
// sets fall back to the catalog (makes/models), the color vocabulary, and
// the full year window.
type ValidValues struct {
	Makes  []string
	Models []string
	Colors []string
	Years  []int
}

// Config holds engine tunables.
type Config struct {
	Colors      []string // color vocabulary; nil means detect.DefaultColors
	FuzzyCutoff float64
	YearFloor   float64
	Debug       bool
}

// Engine is stateless per call; the embedder and catalog source it holds
// are process-wide shared singletons.
type Engine struct {
	emb      ImageEmbedder
	scorer   detect.Scorer
	catalogs CatalogSource
	matcher  canonical.Matcher
	cfg      Config
}

// New creates an Engine.
func New(emb ImageEmbedder, scorer detect.Scorer, catalogs CatalogSource, cfg Config) *Engine {
	if cfg.YearFloor <= 0 {
		cfg.YearFloor = detect.DefaultYearFloor
	}
	if len(cfg.Colors) == 0 {
		cfg.Colors = detect.DefaultColors
	}
	return &Engine{
		emb:      emb,
		scorer:   scorer,
		catalogs: catalogs,
		matcher:  canonical.New(cfg.FuzzyCutoff),
		cfg:      cfg,
	}
}

// perImage holds one image's per-attribute distributions.
type perImage struct {
	makeDist  map[string]float64
	modelDist map[string]float64
	colorDist map[string]float64
	yearDist  map[string]float64
}

// Detect runs the full pipeline over the supplied image files and returns
// a structured result. Zero images and an unloadable taxonomy are fatal;
// individual unreadable images are skipped.
func (e *Engine) Detect(ctx context.Context, paths []string, valid ValidValues) (*model.Result, error) {
	start := time.Now()

	if len(paths) == 0 {
		return nil, fmt.Errorf("engine: %w", model.ErrNoImages)
	}

	catalog, err := e.catalogs.Load()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	images := loadImages(paths)
	if len(images) == 0 {
		return nil, fmt.Errorf("engine: %w", model.ErrNoReadableImages)
	}

	results := make([]perImage, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pi, err := e.classifyImage(img, catalog)
		if err != nil {
			return nil, fmt.Errorf("engine: %w: %v", model.ErrClassifier, err)
		}
		results = append(results, pi)
	}

	agg := aggregateAll(results)
	res := e.assemble(agg, catalog, valid)

	res.ID = uuid.NewString()
	res.Meta.NumImages = len(images)
	res.Meta.LabelsVersion = catalog.Version
	res.Meta.Device = e.emb.Device()
	res.Meta.RuntimeMS = time.Since(start).Milliseconds()
	res.Meta.CreatedAt = time.Now().UTC()
	if hash, err := Fingerprint(paths); err == nil {
		res.Meta.ImageHash = hash
	}
	if e.cfg.Debug {
		res.Meta.Debug = debugPayload(results, agg)
	}

	slog.Debug("detection complete",
		"images", len(images),
		"level", res.Meta.ConfidenceLevel,
		"runtime_ms", res.Meta.RuntimeMS)

	return res, nil
}

// loadImages decodes, dedups, and crops the input set. Per-image failures
// are recovered by skipping the image. All images are decoded before
// duplicate selection so that the surviving representatives depend on
// content alone, not on the order the paths were supplied in.
func loadImages(paths []string) []image.Image {
	var decoded []image.Image
	for _, path := range paths {
		img, err := embedder.DecodeFile(path)
		if err != nil {
			slog.Warn("skipping unreadable image", "path", path, "err", err)
			continue
		}
		decoded = append(decoded, img)
	}

	images := dedup.Select(decoded)
	if dropped := len(decoded) - len(images); dropped > 0 {
		slog.Debug("dropped near-duplicate images", "count", dropped)
	}
	for i, img := range images {
		images[i] = cropper.CropToVehicle(img)
	}
	return images
}

// classifyImage embeds one image once and runs all four attribute
// detectors against that embedding.
func (e *Engine) classifyImage(img image.Image, catalog *model.Catalog) (perImage, error) {
	vec, err := e.emb.EmbedImage(img)
	if err != nil {
		return perImage{}, err
	}

	makeDist, err := detect.Make(e.scorer, vec, catalog.Makes)
	if err != nil {
		return perImage{}, err
	}
	modelDist, err := detect.Model(e.scorer, vec, makeDist, catalog)
	if err != nil {
		return perImage{}, err
	}
	colorDist, err := detect.Color(e.scorer, vec, e.cfg.Colors)
	if err != nil {
		return perImage{}, err
	}
	yearDist, err := detect.Year(e.scorer, vec)
	if err != nil {
		return perImage{}, err
	}

	return perImage{
		makeDist:  makeDist,
		modelDist: modelDist,
		colorDist: colorDist,
		yearDist:  yearDist,
	}, nil
}

// aggregated holds the mean distributions across images.
type aggregated struct {
	makeDist  map[string]float64
	modelDist map[string]float64
	colorDist map[string]float64
	yearDist  map[string]float64
}

func aggregateAll(results []perImage) aggregated {
	pick := func(get func(perImage) map[string]float64) []map[string]float64 {
		dists := make([]map[string]float64, len(results))
		for i, r := range results {
			dists[i] = get(r)
		}
		return dists
	}
	return aggregated{
		makeDist:  aggregate.Mean(pick(func(r perImage) map[string]float64 { return r.makeDist })),
		modelDist: aggregate.Mean(pick(func(r perImage) map[string]float64 { return r.modelDist })),
		colorDist: aggregate.Mean(pick(func(r perImage) map[string]float64 { return r.colorDist })),
		yearDist:  aggregate.Mean(pick(func(r perImage) map[string]float64 { return r.yearDist })),
	}
}

// assemble canonicalizes the aggregated rankings, fills best/topk, and
// applies the confidence gate.
func (e *Engine) assemble(agg aggregated, catalog *model.Catalog, valid ValidValues) *model.Result {
	validMakes := valid.Makes
	if len(validMakes) == 0 {
		validMakes = catalog.Makes
	}
	validModels := valid.Models
	if len(validModels) == 0 {
		validModels = allModels(catalog)
	}
	validColors := valid.Colors
	if len(validColors) == 0 {
		validColors = e.cfg.Colors
	}

	makes := e.ranking(agg.makeDist, validMakes)
	models := e.ranking(agg.modelDist, validModels)
	colors := e.ranking(agg.colorDist, validColors)
	years, bestYear := e.yearRanking(agg.yearDist, valid.Years)

	res := &model.Result{
		Best: model.Best{
			Make:  first(makes),
			Model: first(models),
			Color: first(colors),
			Year:  bestYear,
		},
		TopK: model.TopK{
			Make:  makes,
			Model: models,
			Color: colors,
			Year:  years,
		},
	}
	res.Meta.ConfidenceLevel = tier(res.Best)
	return res
}

// ranking canonicalizes the top-k entries of a distribution. Entries that
// miss every tier keep a nil value with the raw label in Original.
func (e *Engine) ranking(dist map[string]float64, valid []string) model.Ranking {
	entries := aggregate.TopK(dist, topK)
	out := make(model.Ranking, 0, len(entries))
	for _, entry := range entries {
		pred := model.Prediction{Confidence: entry.Prob}
		if v, ok := e.matcher.Normalize(entry.Label, valid); ok {
			pred.Value = model.StringPtr(v)
		} else {
			pred.Original = entry.Label
		}
		out = append(out, pred)
	}
	return out
}

// yearRanking expands the winning year bucket into specific years. The best
// year is committed only when the bucket cleared the configured floor.
func (e *Engine) yearRanking(dist map[string]float64, validYears []int) (model.YearRanking, model.YearPrediction) {
	entries := aggregate.TopK(dist, 1)
	if len(entries) == 0 {
		return nil, model.YearPrediction{}
	}

	bucket, ok := detect.BucketByLabel(entries[0].Label)
	if !ok {
		return nil, model.YearPrediction{}
	}
	confidence := entries[0].Prob

	years, confs := detect.ExpandYears(bucket, confidence)
	ranking := make(model.YearRanking, 0, len(years))
	for i, y := range years {
		if len(validYears) > 0 && !containsInt(validYears, y) {
			continue
		}
		ranking = append(ranking, model.YearPrediction{
			Value:      model.IntPtr(y),
			Confidence: confs[i],
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Confidence > ranking[j].Confidence
	})

	best := model.YearPrediction{Confidence: confidence}
	if confidence >= e.cfg.YearFloor && len(ranking) > 0 {
		best.Value = ranking[0].Value
	}
	return ranking, best
}

// tier applies the confidence gate. Low is driven by make alone; high
// requires make, model, and year (or an abstained year) together.
func tier(best model.Best) model.Level {
	if best.Make.Confidence < lowMakeThreshold {
		return model.LevelLow
	}
	yearOK := best.Year.Value == nil || best.Year.Confidence >= highYearThreshold
	if best.Make.Confidence >= highMakeThreshold &&
		best.Model.Confidence >= highModelThreshold &&
		yearOK {
		return model.LevelHigh
	}
	return model.LevelMedium
}

func first(r model.Ranking) model.Prediction {
	if len(r) == 0 {
		return model.Prediction{}
	}
	return r[0]
}

func allModels(catalog *model.Catalog) []string {
	var out []string
	for _, models := range catalog.ModelsByMake {
		out = append(out, models...)
	}
	sort.Strings(out)
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// debugPayload captures per-image top-1 labels and the aggregated
// probability vectors for offline threshold tuning.
func debugPayload(results []perImage, agg aggregated) *model.Debug {
	top1 := func(dist map[string]float64) string {
		entries := aggregate.TopK(dist, 1)
		if len(entries) == 0 {
			return ""
		}
		return entries[0].Label
	}

	perImageTop1 := make([]map[string]string, len(results))
	for i, r := range results {
		perImageTop1[i] = map[string]string{
			"make":  top1(r.makeDist),
			"model": top1(r.modelDist),
			"color": top1(r.colorDist),
			"year":  top1(r.yearDist),
		}
	}

	return &model.Debug{
		PerImageTop1: perImageTop1,
		Aggregated: map[string]map[string]float64{
			"make":  agg.makeDist,
			"model": agg.modelDist,
			"color": agg.colorDist,
			"year":  agg.yearDist,
		},
	}
}

// Fingerprint hashes the input image set's identity: sorted (base name,
// size, mtime) triples. Content changes and set changes both change it;
// image order does not.
func Fingerprint(paths []string) (string, error) {
	entries := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s|%d|%d",
			filepath.Base(path), info.Size(), info.ModTime().UnixNano()))
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("engine: %w", model.ErrNoReadableImages)
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintln(h, e)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
