package autovision

import (
	"context"
	"fmt"
	"sync"

	"github.com/parkbench/autovision/internal/cache"
	"github.com/parkbench/autovision/internal/engine"
	"github.com/parkbench/autovision/internal/engine/classifier"
	"github.com/parkbench/autovision/internal/engine/embedder"
	"github.com/parkbench/autovision/internal/model"
	"github.com/parkbench/autovision/internal/taxonomy"
)

// Re-exported result types and failure kinds, so callers depend only on
// this package.
type (
	Result      = model.Result
	Prediction  = model.Prediction
	Level       = model.Level
	Override    = model.Override
	ValidValues = engine.ValidValues
)

var (
	ErrNoImages         = model.ErrNoImages
	ErrNoReadableImages = model.ErrNoReadableImages
	ErrTaxonomy         = model.ErrTaxonomy
	ErrClassifier       = model.ErrClassifier
)

// Detector is the public entry point to the detection engine. Construction
// is cheap; the embedding model and taxonomy are loaded lazily on first
// use, once per Detector, guarded against concurrent first callers. Safe
// for concurrent use after that.
type Detector struct {
	opts options

	initOnce sync.Once
	initErr  error
	emb      *embedder.CLIP
	loader   *taxonomy.Loader
	eng      *engine.Engine
	store    *cache.Store
}

// New creates a Detector. Nothing is loaded until the first detection.
func New(opts ...Option) *Detector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Detector{opts: o}
}

// init loads the model, taxonomy, and cache store exactly once.
func (d *Detector) init() error {
	d.initOnce.Do(func() {
		emb, err := embedder.New(d.opts.modelDir)
		if err != nil {
			d.initErr = fmt.Errorf("autovision: %w", err)
			return
		}

		loader := taxonomy.NewLoader(d.opts.datasetPath, d.opts.minSupport, d.opts.maxModelLen)

		var store *cache.Store
		if d.opts.cachePath != "" {
			store, err = cache.Open(d.opts.cachePath)
			if err != nil {
				emb.Close()
				d.initErr = fmt.Errorf("autovision: %w", err)
				return
			}
		}

		d.emb = emb
		d.loader = loader
		d.store = store
		d.eng = engine.New(emb, classifier.New(emb), loader, engine.Config{
			Colors:      d.opts.colors,
			FuzzyCutoff: d.opts.fuzzyCutoff,
			YearFloor:   d.opts.yearFloor,
			Debug:       d.opts.debug,
		})
	})
	return d.initErr
}

// Detect runs detection over the image files, using the cache when
// enabled. Valid-value sets default to the catalog and built-in
// vocabularies; pass caller-owned sets with DetectWithValues when the
// listing form's option lists differ.
func (d *Detector) Detect(ctx context.Context, paths []string) (*Result, error) {
	return d.DetectWithValues(ctx, paths, ValidValues{})
}

// DetectWithValues is Detect with explicit canonicalization targets.
func (d *Detector) DetectWithValues(ctx context.Context, paths []string, valid ValidValues) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("autovision: %w", ErrNoImages)
	}
	if err := d.init(); err != nil {
		return nil, err
	}

	run := func(ctx context.Context) (*Result, error) {
		return d.eng.Detect(ctx, paths, valid)
	}

	if d.store == nil {
		return run(ctx)
	}

	version, err := d.loader.Version()
	if err != nil {
		return nil, fmt.Errorf("autovision: %w", err)
	}
	fingerprint, err := engine.Fingerprint(paths)
	if err != nil {
		return nil, fmt.Errorf("autovision: %w", err)
	}
	return d.store.GetOrCompute(ctx, cache.Key(fingerprint, version), cache.Runner(run))
}

// Prefill projects a result into the flat form-field map. Empty when
// confidence is low.
func (d *Detector) Prefill(res *Result) map[string]string {
	return res.Prefill()
}

// SaveOverride records a human edit to an auto-filled field. No-op without
// a cache store.
func (d *Detector) SaveOverride(resultID, field, value string) error {
	if d.store == nil {
		return nil
	}
	return d.store.SaveOverride(resultID, field, value)
}

// Overrides returns the override record for a result.
func (d *Detector) Overrides(resultID string) (*Override, error) {
	if d.store == nil {
		return &Override{SelectedByUser: map[string]string{}}, nil
	}
	return d.store.Overrides(resultID)
}

// Close releases model and cache resources.
func (d *Detector) Close() error {
	var first error
	if d.emb != nil {
		first = d.emb.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
