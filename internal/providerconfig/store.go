// Package providerconfig persists asset provider configurations and exposes
// the management operations the settings surface needs.
package providerconfig

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"assetmatch/internal/domain"
)

// Store is the durable collaborator holding one ProviderConfig per name.
// Get returns domain.ErrNotFound for unknown names; Delete of an unknown
// name is not an error.
type Store interface {
	List(ctx context.Context) ([]domain.ProviderConfig, error)
	Get(ctx context.Context, name string) (domain.ProviderConfig, error)
	Put(ctx context.Context, cfg domain.ProviderConfig) error
	Delete(ctx context.Context, name string) error
}

// MemoryStore keeps configs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]domain.ProviderConfig
}

// NewMemoryStore returns a store seeded with configs.
func NewMemoryStore(configs ...domain.ProviderConfig) *MemoryStore {
	s := &MemoryStore{configs: make(map[string]domain.ProviderConfig)}
	for _, cfg := range configs {
		cfg = cfg.Normalize()
		s.configs[cfg.Name] = cloneConfig(cfg)
	}
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProviderConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cloneConfig(cfg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) (domain.ProviderConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProviderConfig{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[normalizeName(name)]
	if !ok {
		return domain.ProviderConfig{}, notFound(name)
	}
	return cloneConfig(cfg), nil
}

func (s *MemoryStore) Put(ctx context.Context, cfg domain.ProviderConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.Name] = cloneConfig(cfg)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, normalizeName(name))
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func notFound(name string) error {
	return fmt.Errorf("provider config %q: %w", normalizeName(name), domain.ErrNotFound)
}

func cloneConfig(cfg domain.ProviderConfig) domain.ProviderConfig {
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		cfg.RateLimit = &rl
	}
	return cfg
}

// rateLimitFromColumns rebuilds the optional rate limit from nullable columns.
func rateLimitFromColumns(perMinute, perDay *int64) *domain.RateLimit {
	if perMinute == nil && perDay == nil {
		return nil
	}
	rl := &domain.RateLimit{}
	if perMinute != nil {
		rl.RequestsPerMinute = int(*perMinute)
	}
	if perDay != nil {
		rl.RequestsPerDay = int(*perDay)
	}
	return rl
}

// rateLimitColumns flattens the optional rate limit into nullable columns.
func rateLimitColumns(rl *domain.RateLimit) (perMinute, perDay *int64) {
	if rl == nil {
		return nil, nil
	}
	m, d := int64(rl.RequestsPerMinute), int64(rl.RequestsPerDay)
	return &m, &d
}

var _ Store = (*MemoryStore)(nil)
