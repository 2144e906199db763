// Package cache persists detection results keyed on image content
// fingerprints plus the taxonomy version, and records user overrides of
// auto-filled fields.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/parkbench/autovision/internal/model"
)

// Store is a sqlite-backed result cache. Safe for concurrent use;
// database/sql serializes access.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS detections (
			cache_key  TEXT PRIMARY KEY,
			result_id  TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS user_overrides (
			result_id  TEXT NOT NULL,
			field      TEXT NOT NULL,
			value      TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (result_id, field)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Key combines the image-set fingerprint with the taxonomy version. Either
// changing invalidates the cached entry.
func Key(imageHash, labelsVersion string) string {
	return imageHash + "-" + labelsVersion
}

// Get returns the cached result for key, if any.
func (s *Store) Get(key string) (*model.Result, bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM detections WHERE cache_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	var res model.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, false, fmt.Errorf("cache: decode: %w", err)
	}
	return &res, true, nil
}

// Put stores a result under key. An existing entry for the same key is
// replaced; results themselves are immutable, so this only happens when a
// superseded entry is recomputed.
func (s *Store) Put(key string, res *model.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO detections (cache_key, result_id, payload) VALUES (?, ?, ?)`,
		key, res.ID, string(payload))
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Runner computes a detection on cache miss.
type Runner func(ctx context.Context) (*model.Result, error)

// GetOrCompute returns the cached result for key or runs the pipeline and
// stores the outcome. A cache hit performs zero recomputation; a failed
// store is logged but does not fail the detection.
func (s *Store) GetOrCompute(ctx context.Context, key string, run Runner) (*model.Result, error) {
	if res, ok, err := s.Get(key); err != nil {
		slog.Warn("cache lookup failed, recomputing", "err", err)
	} else if ok {
		slog.Debug("cache hit", "key", key)
		return res, nil
	}

	res, err := run(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Put(key, res); err != nil {
		slog.Warn("failed to store detection", "err", err)
	}
	return res, nil
}

// SaveOverride records that a human replaced an auto-filled field value.
func (s *Store) SaveOverride(resultID, field, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO user_overrides (result_id, field, value) VALUES (?, ?, ?)`,
		resultID, field, value)
	if err != nil {
		return fmt.Errorf("cache: save override: %w", err)
	}
	return nil
}

// Overrides returns the override record for a result.
func (s *Store) Overrides(resultID string) (*model.Override, error) {
	rows, err := s.db.Query(
		`SELECT field, value FROM user_overrides WHERE result_id = ?`, resultID)
	if err != nil {
		return nil, fmt.Errorf("cache: overrides: %w", err)
	}
	defer rows.Close()

	o := &model.Override{SelectedByUser: make(map[string]string)}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("cache: overrides: %w", err)
		}
		o.SelectedByUser[field] = value
		o.UserOverrode = true
	}
	return o, rows.Err()
}

// Purge removes all cached detections. Override records are kept; they
// belong to listings, not to the cache.
func (s *Store) Purge() error {
	_, err := s.db.Exec(`DELETE FROM detections`)
	if err != nil {
		return fmt.Errorf("cache: purge: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
