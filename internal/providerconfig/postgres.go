package providerconfig

import (
	"context"
	"fmt"

	"assetmatch/internal/domain"
	"assetmatch/internal/infra"
	"assetmatch/internal/sqlinline"
)

// PostgresStore keeps configs in the asset_providers table.
type PostgresStore struct {
	sql infra.SQLExecutor
}

// NewPostgresStore runs marker-tagged queries through sql.
func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (domain.ProviderConfig, error) {
	var (
		cfg               domain.ProviderConfig
		perMinute, perDay *int64
	)
	if err := row.Scan(&cfg.Name, &cfg.Enabled, &cfg.APIKey, &cfg.APIEndpoint, &cfg.Priority, &perMinute, &perDay); err != nil {
		return domain.ProviderConfig{}, err
	}
	cfg.RateLimit = rateLimitFromColumns(perMinute, perDay)
	return cfg, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListAssetProviders)
	if err != nil {
		return nil, fmt.Errorf("providerconfig: list: %w", err)
	}
	defer rows.Close()
	var out []domain.ProviderConfig
	for rows.Next() {
		cfg, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("providerconfig: scan: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providerconfig: list: %w", err)
	}
	if out == nil {
		out = []domain.ProviderConfig{}
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) (domain.ProviderConfig, error) {
	cfg, err := scanProvider(s.sql.QueryRow(ctx, sqlinline.QSelectAssetProvider, normalizeName(name)))
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.ProviderConfig{}, notFound(name)
		}
		return domain.ProviderConfig{}, fmt.Errorf("providerconfig: get %q: %w", name, err)
	}
	return cfg, nil
}

func (s *PostgresStore) Put(ctx context.Context, cfg domain.ProviderConfig) error {
	cfg = cfg.Normalize()
	perMinute, perDay := rateLimitColumns(cfg.RateLimit)
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertAssetProvider,
		cfg.Name, cfg.Enabled, cfg.APIKey, cfg.APIEndpoint, cfg.Priority, perMinute, perDay,
	); err != nil {
		return fmt.Errorf("providerconfig: put %q: %w", cfg.Name, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QDeleteAssetProvider, normalizeName(name)); err != nil {
		return fmt.Errorf("providerconfig: delete %q: %w", name, err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
