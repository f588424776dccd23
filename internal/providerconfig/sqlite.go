package providerconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"assetmatch/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS asset_providers (
	name TEXT PRIMARY KEY,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	api_key TEXT NOT NULL DEFAULT '',
	api_endpoint TEXT NOT NULL DEFAULT '',
	priority INTEGER NOT NULL DEFAULT 0,
	requests_per_minute INTEGER,
	requests_per_day INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const (
	sqliteSelectColumns = `SELECT name, enabled, api_key, api_endpoint, priority, requests_per_minute, requests_per_day FROM asset_providers`
	sqliteUpsert        = `INSERT INTO asset_providers (name, enabled, api_key, api_endpoint, priority, requests_per_minute, requests_per_day)
	VALUES (:name, :enabled, :api_key, :api_endpoint, :priority, :requests_per_minute, :requests_per_day)
	ON CONFLICT(name) DO UPDATE SET
		enabled = excluded.enabled,
		api_key = excluded.api_key,
		api_endpoint = excluded.api_endpoint,
		priority = excluded.priority,
		requests_per_minute = excluded.requests_per_minute,
		requests_per_day = excluded.requests_per_day,
		updated_at = CURRENT_TIMESTAMP`
)

type providerRow struct {
	Name              string `db:"name"`
	Enabled           bool   `db:"enabled"`
	APIKey            string `db:"api_key"`
	APIEndpoint       string `db:"api_endpoint"`
	Priority          int    `db:"priority"`
	RequestsPerMinute *int64 `db:"requests_per_minute"`
	RequestsPerDay    *int64 `db:"requests_per_day"`
}

func (r providerRow) config() domain.ProviderConfig {
	return domain.ProviderConfig{
		Name:        r.Name,
		Enabled:     r.Enabled,
		APIKey:      r.APIKey,
		APIEndpoint: r.APIEndpoint,
		Priority:    r.Priority,
		RateLimit:   rateLimitFromColumns(r.RequestsPerMinute, r.RequestsPerDay),
	}
}

func rowFromConfig(cfg domain.ProviderConfig) providerRow {
	perMinute, perDay := rateLimitColumns(cfg.RateLimit)
	return providerRow{
		Name:              cfg.Name,
		Enabled:           cfg.Enabled,
		APIKey:            cfg.APIKey,
		APIEndpoint:       cfg.APIEndpoint,
		Priority:          cfg.Priority,
		RequestsPerMinute: perMinute,
		RequestsPerDay:    perDay,
	}
}

// SQLiteStore keeps configs in a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLiteStore opens or creates the database at path and ensures the schema.
// Parent directories are created if they do not exist.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("providerconfig: create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("providerconfig: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("providerconfig: enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("providerconfig: initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	var rows []providerRow
	if err := s.db.SelectContext(ctx, &rows, sqliteSelectColumns+" ORDER BY name"); err != nil {
		return nil, fmt.Errorf("providerconfig: list: %w", err)
	}
	out := make([]domain.ProviderConfig, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.config())
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (domain.ProviderConfig, error) {
	var row providerRow
	err := s.db.GetContext(ctx, &row, sqliteSelectColumns+" WHERE name = ?", normalizeName(name))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProviderConfig{}, notFound(name)
	}
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("providerconfig: get %q: %w", name, err)
	}
	return row.config(), nil
}

func (s *SQLiteStore) Put(ctx context.Context, cfg domain.ProviderConfig) error {
	cfg = cfg.Normalize()
	if _, err := s.db.NamedExecContext(ctx, sqliteUpsert, rowFromConfig(cfg)); err != nil {
		return fmt.Errorf("providerconfig: put %q: %w", cfg.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM asset_providers WHERE name = ?", normalizeName(name)); err != nil {
		return fmt.Errorf("providerconfig: delete %q: %w", name, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
