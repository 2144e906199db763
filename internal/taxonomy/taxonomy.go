// Package taxonomy loads the catalog of valid vehicle makes and models from
// a tabular reference dataset of historical listings.
package taxonomy

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/parquet-go/parquet-go"

	"github.com/parkbench/autovision/internal/model"
)

const (
	// DefaultMinSupport is the minimum number of occurrences a (make, model)
	// pair needs in the reference dataset to survive filtering.
	DefaultMinSupport = 10

	// DefaultMaxModelLen is the length ceiling (in runes) above which a model
	// string is discarded as likely noise.
	DefaultMaxModelLen = 25
)

// record is one row of the reference dataset. Parquet column names follow
// the listing export schema; CSV headers are matched case-insensitively.
type record struct {
	Make  string `parquet:"make"`
	Model string `parquet:"model"`
}

// Loader reads and memoizes the label catalog. The catalog is rebuilt only
// when the dataset fingerprint changes. Safe for concurrent use.
type Loader struct {
	path        string
	minSupport  int
	maxModelLen int

	mu      sync.Mutex
	catalog *model.Catalog
}

// NewLoader creates a Loader for the dataset at path. minSupport and
// maxModelLen fall back to the package defaults when non-positive.
func NewLoader(path string, minSupport, maxModelLen int) *Loader {
	if minSupport <= 0 {
		minSupport = DefaultMinSupport
	}
	if maxModelLen <= 0 {
		maxModelLen = DefaultMaxModelLen
	}
	return &Loader{path: path, minSupport: minSupport, maxModelLen: maxModelLen}
}

// Version computes the dataset fingerprint from file metadata without
// reading the file body. Used for cache-key computation.
func (l *Loader) Version() (string, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return "", fmt.Errorf("taxonomy: %w: %v", model.ErrTaxonomy, err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", l.path, info.Size(), info.ModTime().UnixNano())
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Load returns the memoized catalog, rebuilding it if the dataset
// fingerprint changed since the last load. A dataset that cannot be read or
// parsed is a hard error; there is no fallback catalog.
func (l *Loader) Load() (*model.Catalog, error) {
	version, err := l.Version()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.catalog != nil && l.catalog.Version == version {
		return l.catalog, nil
	}

	records, err := l.readRecords()
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w: %v", model.ErrTaxonomy, err)
	}

	catalog := l.build(records, version)
	if len(catalog.Makes) == 0 {
		return nil, fmt.Errorf("taxonomy: %w: dataset %s yielded no makes", model.ErrTaxonomy, l.path)
	}

	slog.Info("taxonomy loaded",
		"path", l.path,
		"version", version,
		"makes", len(catalog.Makes),
		"models", catalog.NumModels())

	l.catalog = catalog
	return catalog, nil
}

// readRecords dispatches on file extension.
func (l *Loader) readRecords() ([]record, error) {
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".csv":
		return readCSV(l.path)
	case ".parquet":
		return readParquet(l.path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (supported: .csv, .parquet)", ext)
	}
}

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	makeIdx, modelIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "make", "manufacturer":
			if makeIdx < 0 {
				makeIdx = i
			}
		case "model":
			if modelIdx < 0 {
				modelIdx = i
			}
		}
	}
	if makeIdx < 0 || modelIdx < 0 {
		return nil, fmt.Errorf("dataset missing make/model columns (header: %v)", header)
	}

	var records []record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if makeIdx >= len(row) || modelIdx >= len(row) {
			continue
		}
		records = append(records, record{Make: row[makeIdx], Model: row[modelIdx]})
	}
	return records, nil
}

func readParquet(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[record](pf)
	defer reader.Close()

	var records []record
	rows := make([]record, 256)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
	}
	return records, nil
}

// build normalizes records into a catalog, applying the support threshold
// and length ceiling.
func (l *Loader) build(records []record, version string) *model.Catalog {
	type pairKey struct{ mk, md string }

	makeDisplay := make(map[string]string)          // folded make -> display form
	modelDisplay := make(map[pairKey]string)        // folded pair -> display model
	pairCount := make(map[pairKey]int)

	for _, rec := range records {
		mk := Normalize(rec.Make)
		if mk == "" {
			continue
		}
		fmk := strings.ToLower(mk)
		if _, seen := makeDisplay[fmk]; !seen {
			makeDisplay[fmk] = mk
		}

		md := Normalize(rec.Model)
		if md == "" || len([]rune(md)) > l.maxModelLen {
			continue
		}
		key := pairKey{fmk, strings.ToLower(md)}
		if _, seen := modelDisplay[key]; !seen {
			modelDisplay[key] = md
		}
		pairCount[key]++
	}

	modelsByMake := make(map[string][]string)
	dropped := 0
	for key, count := range pairCount {
		if count < l.minSupport {
			dropped++
			continue
		}
		display := makeDisplay[key.mk]
		modelsByMake[display] = append(modelsByMake[display], modelDisplay[key])
	}
	if dropped > 0 {
		slog.Debug("taxonomy dropped rare pairs", "count", dropped, "min_support", l.minSupport)
	}

	makes := make([]string, 0, len(makeDisplay))
	for _, display := range makeDisplay {
		makes = append(makes, display)
	}
	sort.Strings(makes)
	for mk := range modelsByMake {
		sort.Strings(modelsByMake[mk])
	}

	return &model.Catalog{
		Makes:        makes,
		ModelsByMake: modelsByMake,
		Version:      version,
	}
}

// Normalize cleans a raw label: trims, collapses internal whitespace, and
// strips characters outside ASCII alphanumerics, space, and hyphen. Casing
// is retained for display.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
