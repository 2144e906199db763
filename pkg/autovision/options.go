package autovision

type options struct {
	modelDir    string
	datasetPath string
	cachePath   string
	colors      []string
	minSupport  int
	maxModelLen int
	fuzzyCutoff float64
	yearFloor   float64
	debug       bool
}

// Option configures a Detector.
type Option func(*options)

// WithModelDir sets the directory containing model files. Expects:
// visual.onnx, textual.onnx, vocab.json, merges.txt, libonnxruntime.so.
func WithModelDir(dir string) Option {
	return func(o *options) { o.modelDir = dir }
}

// WithDatasetPath sets the taxonomy reference dataset (.csv or .parquet).
func WithDatasetPath(path string) Option {
	return func(o *options) { o.datasetPath = path }
}

// WithCachePath sets the sqlite cache file. Empty disables caching.
func WithCachePath(path string) Option {
	return func(o *options) { o.cachePath = path }
}

// WithColors replaces the built-in exterior color vocabulary.
func WithColors(colors []string) Option {
	return func(o *options) { o.colors = colors }
}

// WithMinSupport sets the minimum (make, model) occurrence count required
// in the reference dataset. Default: 10.
func WithMinSupport(n int) Option {
	return func(o *options) { o.minSupport = n }
}

// WithMaxModelLen sets the model string length ceiling. Default: 25.
func WithMaxModelLen(n int) Option {
	return func(o *options) { o.maxModelLen = n }
}

// WithFuzzyCutoff sets the canonicalization similarity cutoff. Default: 0.8.
func WithFuzzyCutoff(c float64) Option {
	return func(o *options) { o.fuzzyCutoff = c }
}

// WithYearFloor sets the year-bucket confidence below which no specific
// best year is committed. Default: 0.55.
func WithYearFloor(f float64) Option {
	return func(o *options) { o.yearFloor = f }
}

// WithDebug attaches raw pipeline internals to results. Intended to be
// sourced from process configuration, never from a request.
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

func defaultOptions() options {
	return options{
		modelDir:    "models",
		datasetPath: "data/listings.csv",
		fuzzyCutoff: 0.8,
		yearFloor:   0.55,
	}
}
