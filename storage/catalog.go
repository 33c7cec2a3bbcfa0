// Package storage caches provider model catalogs in SQLite so repeated
// lookups don't hit every backend's listing endpoint. Entries age out after
// a TTL and are refreshed from the live backend, falling back to stale data
// when the backend is unreachable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTTL is how long a cached catalog counts as fresh. Model listings
// change rarely; a day keeps the CLI snappy without going noticeably stale.
const DefaultTTL = 24 * time.Hour

// Catalog is a SQLite-backed cache of model ids per provider.
type Catalog struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTTL sets the freshness window for cached entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open creates or opens the catalog database at path, creating parent
// directories as needed.
func Open(path string, opts ...Option) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Catalog{
		db:     db,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return c, nil
}

func (c *Catalog) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS models (
		provider TEXT NOT NULL,
		model_id TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (provider, model_id)
	)`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute query %s: %w", query, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put replaces the cached catalog for a provider with the given model ids,
// stamped now. An empty list clears the provider's cache.
func (c *Catalog) Put(ctx context.Context, provider string, models []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("failed to clear cached models: %w", err)
	}

	now := time.Now().UnixNano()
	for _, model := range models {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO models (provider, model_id, fetched_at)
			VALUES (?, ?, ?)
		`, provider, model, now)
		if err != nil {
			return fmt.Errorf("failed to insert model %s: %w", model, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Get returns the cached model ids for a provider, sorted, along with when
// they were fetched. A miss returns an empty slice and a zero time, not an
// error.
func (c *Catalog) Get(ctx context.Context, provider string) ([]string, time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT model_id, fetched_at FROM models
		WHERE provider = ?
		ORDER BY model_id
	`, provider)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var models []string
	var latest int64
	for rows.Next() {
		var model string
		var fetched int64
		if err := rows.Scan(&model, &fetched); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan model row: %w", err)
		}
		models = append(models, model)
		if fetched > latest {
			latest = fetched
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read model rows: %w", err)
	}

	if len(models) == 0 {
		return nil, time.Time{}, nil
	}
	return models, time.Unix(0, latest), nil
}

// Models returns the provider's catalog, from cache when fresh, otherwise
// from refresh. A refresh that comes back empty (the adapters report listing
// failures that way) falls back to stale cached data rather than wiping it.
func (c *Catalog) Models(ctx context.Context, provider string, refresh func(context.Context) []string) ([]string, error) {
	cached, fetchedAt, err := c.Get(ctx, provider)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 && time.Since(fetchedAt) < c.ttl {
		c.logger.Debug("model catalog cache hit", "provider", provider, "models", len(cached))
		return cached, nil
	}

	fresh := refresh(ctx)
	if len(fresh) == 0 {
		if len(cached) > 0 {
			c.logger.Warn("model listing failed, serving stale catalog",
				"provider", provider, "age", time.Since(fetchedAt).Round(time.Second))
			return cached, nil
		}
		return nil, nil
	}
	sort.Strings(fresh)

	if err := c.Put(ctx, provider, fresh); err != nil {
		return nil, err
	}
	c.logger.Debug("model catalog refreshed", "provider", provider, "models", len(fresh))
	return fresh, nil
}
