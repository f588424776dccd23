package providerconfig

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"assetmatch/internal/domain"
	"assetmatch/internal/infra"
)

// ConnectionTester verifies a config against its upstream API.
type ConnectionTester interface {
	TestConnection(ctx context.Context, cfg domain.ProviderConfig) error
}

// Manager owns the persisted provider configuration records.
type Manager struct {
	store  Store
	tester ConnectionTester
	logger infra.Logger
}

// NewManager builds a manager over store. tester may be nil, in which case
// TestConnection reports a configuration error.
func NewManager(store Store, tester ConnectionTester, logger *infra.Logger) *Manager {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "provider_config").Logger()
	}
	return &Manager{store: store, tester: tester, logger: l}
}

// GetConfigs returns every persisted config ordered by priority, then name.
func (m *Manager) GetConfigs(ctx context.Context) ([]domain.ProviderConfig, error) {
	configs, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortByPriority(configs)
	return configs, nil
}

// GetConfig returns the config stored under name or domain.ErrNotFound.
func (m *Manager) GetConfig(ctx context.Context, name string) (domain.ProviderConfig, error) {
	return m.store.Get(ctx, name)
}

// UpdateConfig creates or overwrites the config for cfg.Name.
func (m *Manager) UpdateConfig(ctx context.Context, cfg domain.ProviderConfig) error {
	cfg = cfg.Normalize()
	if cfg.Name == "" {
		return fmt.Errorf("%w: provider name is required", domain.ErrConfiguration)
	}
	if cfg.RateLimit != nil && (cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.RequestsPerDay < 0) {
		return fmt.Errorf("%w: rate limits must not be negative", domain.ErrConfiguration)
	}
	if err := m.store.Put(ctx, cfg); err != nil {
		return err
	}
	m.logger.Info().Str("provider", cfg.Name).Bool("enabled", cfg.Enabled).Msg("provider config saved")
	return nil
}

// RemoveConfig deletes the config for name. Removing an absent config succeeds.
func (m *Manager) RemoveConfig(ctx context.Context, name string) error {
	if err := m.store.Delete(ctx, name); err != nil {
		return err
	}
	m.logger.Info().Str("provider", normalizeName(name)).Msg("provider config removed")
	return nil
}

// TestConnection checks cfg against its upstream without persisting anything.
func (m *Manager) TestConnection(ctx context.Context, cfg domain.ProviderConfig) error {
	if m.tester == nil {
		return fmt.Errorf("%w: no connection tester configured", domain.ErrConfiguration)
	}
	return m.tester.TestConnection(ctx, cfg.Normalize())
}

// TestStored loads the config for name and checks it against its upstream.
func (m *Manager) TestStored(ctx context.Context, name string) error {
	cfg, err := m.store.Get(ctx, name)
	if err != nil {
		return err
	}
	return m.TestConnection(ctx, cfg)
}
