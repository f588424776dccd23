package providerconfig

import (
	"context"
	"fmt"

	"assetmatch/internal/infra"
	"assetmatch/internal/storage"
	"assetmatch/migrations"
)

// OpenStore builds the store selected by cfg.ProviderStore. The returned
// close function releases whatever the store holds open.
func OpenStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (Store, func(), error) {
	noop := func() {}
	switch cfg.ProviderStore {
	case infra.StoreMemory:
		return NewMemoryStore(), noop, nil
	case infra.StoreFile, "":
		files, err := storage.NewFileStore(cfg.ProviderStorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("providerconfig: open file store: %w", err)
		}
		return NewFileStore(files, ""), noop, nil
	case infra.StoreSQLite:
		store, err := OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case infra.StorePostgres:
		if cfg.AutoMigrate {
			if err := migrations.Up(cfg.DatabaseURL); err != nil {
				return nil, nil, fmt.Errorf("providerconfig: %w", err)
			}
			logger.Info().Msg("provider schema migrated")
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(infra.NewSQLRunner(pool, logger)), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("providerconfig: unknown store %q", cfg.ProviderStore)
	}
}
