// Package matching turns a scene description into a ranked list of candidate
// assets gathered from every live provider, and owns the provider lifecycle.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"assetmatch/internal/domain"
	"assetmatch/internal/infra"
	"assetmatch/internal/providers/asset"
	"assetmatch/internal/providers/scene"
)

// ProviderBuilder turns configs into live providers.
type ProviderBuilder interface {
	Supports(name string) bool
	Build(cfg domain.ProviderConfig) (*asset.Base, error)
	TestConnection(ctx context.Context, cfg domain.ProviderConfig) error
}

// ConfigManager persists provider configs.
type ConfigManager interface {
	GetConfigs(ctx context.Context) ([]domain.ProviderConfig, error)
	UpdateConfig(ctx context.Context, cfg domain.ProviderConfig) error
	RemoveConfig(ctx context.Context, name string) error
}

// Options wires the service collaborators.
type Options struct {
	Builder  ProviderBuilder
	Configs  ConfigManager
	Analyzer scene.Analyzer
	// Trusted configs come from the deployment environment and win over
	// persisted configs with the same name.
	Trusted []domain.ProviderConfig
	// ProviderTimeout bounds each provider search. Zero disables the bound.
	ProviderTimeout time.Duration
	Logger          *infra.Logger
}

// ProviderStatus reports how one provider fared in a FindAssets call.
type ProviderStatus struct {
	Provider  string `json:"provider"`
	OK        bool   `json:"ok"`
	Results   int    `json:"results"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// FindResult is the merged outcome of a FindAssets call.
type FindResult struct {
	Assets       []domain.AssetSearchResult `json:"assets"`
	TotalResults int                        `json:"totalResults"`
	Providers    []string                   `json:"providers"`
	Statuses     []ProviderStatus           `json:"providerStatus,omitempty"`
}

// Service is the asset matching orchestrator.
type Service struct {
	builder  ProviderBuilder
	configs  ConfigManager
	analyzer scene.Analyzer
	trusted  []domain.ProviderConfig
	timeout  time.Duration
	logger   infra.Logger

	reconcileMu sync.Mutex

	mu   sync.RWMutex
	live map[string]*asset.Base
}

// New builds the service and initializes the live provider set.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Builder == nil {
		return nil, fmt.Errorf("matching: %w: provider builder is required", domain.ErrConfiguration)
	}
	if opts.Configs == nil {
		return nil, fmt.Errorf("matching: %w: config manager is required", domain.ErrConfiguration)
	}
	l := zerolog.Nop()
	if opts.Logger != nil {
		l = opts.Logger.With().Str("component", "asset_matching").Logger()
	}
	trusted := make([]domain.ProviderConfig, 0, len(opts.Trusted))
	for _, cfg := range opts.Trusted {
		trusted = append(trusted, cfg.Normalize())
	}
	s := &Service{
		builder:  opts.Builder,
		configs:  opts.Configs,
		analyzer: opts.Analyzer,
		trusted:  trusted,
		timeout:  opts.ProviderTimeout,
		logger:   l,
		live:     make(map[string]*asset.Base),
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize reconciles the live providers with the trusted and persisted
// configs. Instances whose config did not change are kept, so their rate
// limiter counters survive.
func (s *Service) Initialize(ctx context.Context) error {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	persisted, err := s.configs.GetConfigs(ctx)
	if err != nil {
		return fmt.Errorf("matching: load provider configs: %w", err)
	}

	desired := make([]domain.ProviderConfig, 0, len(s.trusted)+len(persisted))
	seen := make(map[string]struct{})
	consider := func(cfg domain.ProviderConfig, source string) {
		cfg = cfg.Normalize()
		if cfg.Name == "" {
			return
		}
		if _, ok := seen[cfg.Name]; ok {
			return
		}
		seen[cfg.Name] = struct{}{}
		if !cfg.Enabled {
			s.logger.Warn().Str("provider", cfg.Name).Str("source", source).Msg("provider disabled, skipping")
			return
		}
		if !s.builder.Supports(cfg.Name) {
			s.logger.Warn().Str("provider", cfg.Name).Str("source", source).Msg("no implementation for provider, skipping")
			return
		}
		desired = append(desired, cfg)
	}
	for _, cfg := range s.trusted {
		consider(cfg, "trusted")
	}
	for _, cfg := range persisted {
		consider(cfg, "persisted")
	}

	s.mu.RLock()
	current := s.live
	s.mu.RUnlock()

	next := make(map[string]*asset.Base, len(desired))
	for _, cfg := range desired {
		if existing, ok := current[cfg.Name]; ok && existing.Config().Equal(cfg) {
			next[cfg.Name] = existing
			continue
		}
		provider, err := s.builder.Build(cfg)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", cfg.Name).Msg("provider build failed, skipping")
			continue
		}
		next[cfg.Name] = provider
	}

	names := sortedKeys(next)
	s.mu.Lock()
	s.live = next
	s.mu.Unlock()

	s.logger.Info().Strs("providers", names).Msg("asset providers initialized")
	return nil
}

// FindAssets resolves full criteria for sceneDescription, searches every live
// provider concurrently and returns the merged results sorted by confidence.
// Provider failures never fail the call; they show up in Statuses. Scene
// analysis failures are returned to the caller.
func (s *Service) FindAssets(ctx context.Context, sceneDescription string, partial *domain.VisualSearchCriteria) (FindResult, error) {
	description := strings.TrimSpace(sceneDescription)
	criteria := domain.VisualSearchCriteria{}
	if partial != nil {
		criteria = *partial
	}
	criteria.SceneDescription = description
	if err := criteria.Validate(); err != nil {
		return FindResult{}, err
	}

	criteria, err := scene.EnhanceSearchCriteria(ctx, s.analyzer, criteria)
	if err != nil {
		return FindResult{}, err
	}
	criteria.SceneDescription = description

	providers := s.snapshot()
	started := time.Now()

	perProvider := make([][]domain.AssetSearchResult, len(providers))
	statuses := make([]ProviderStatus, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p asset.Provider) {
			defer wg.Done()
			results, err := s.search(ctx, p, criteria)
			status := ProviderStatus{Provider: p.Name(), OK: err == nil, Results: len(results)}
			if err != nil {
				status.Error = err.Error()
				status.ErrorKind = domain.ErrorKind(err)
				s.logger.Warn().Err(err).Str("provider", p.Name()).Str("kind", status.ErrorKind).Msg("provider search failed")
			}
			perProvider[i] = results
			statuses[i] = status
		}(i, p)
	}
	wg.Wait()

	merged := make([]domain.AssetSearchResult, 0)
	names := make([]string, 0, len(providers))
	counts := zerolog.Dict()
	for i, p := range providers {
		merged = append(merged, perProvider[i]...)
		names = append(names, p.Name())
		counts.Int(p.Name(), len(perProvider[i]))
	}
	asset.SortByConfidence(merged)

	s.logger.Debug().
		Dict("results", counts).
		Int("total", len(merged)).
		Dur("elapsed", time.Since(started)).
		Msg("asset search settled")

	return FindResult{
		Assets:       merged,
		TotalResults: len(merged),
		Providers:    names,
		Statuses:     statuses,
	}, nil
}

func (s *Service) search(ctx context.Context, p asset.Provider, criteria domain.VisualSearchCriteria) (results []domain.AssetSearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = domain.NewProviderError(p.Name(), domain.ErrUpstream, fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Search(ctx, criteria)
}

// AddProvider validates cfg, checks it against the upstream and persists it
// before rebuilding the live provider set. Expected validation and
// connectivity failures return false with the reason; they are never fatal.
func (s *Service) AddProvider(ctx context.Context, cfg domain.ProviderConfig) (bool, error) {
	cfg = cfg.Normalize()
	reject := func(err error) (bool, error) {
		s.logger.Info().Str("provider", cfg.Name).Str("reason", err.Error()).Msg("provider rejected")
		return false, err
	}
	if cfg.Name == "" {
		return reject(fmt.Errorf("%w: provider name is required", domain.ErrConfiguration))
	}
	if cfg.APIKey == "" {
		return reject(fmt.Errorf("%w: api key is required", domain.ErrConfiguration))
	}
	if !s.builder.Supports(cfg.Name) {
		return reject(fmt.Errorf("%w: %q", asset.ErrUnknownProvider, cfg.Name))
	}
	if err := s.builder.TestConnection(ctx, cfg); err != nil {
		return reject(err)
	}
	if err := s.configs.UpdateConfig(ctx, cfg); err != nil {
		return reject(err)
	}
	if err := s.Initialize(ctx); err != nil {
		s.logger.Warn().Err(err).Str("provider", cfg.Name).Msg("provider saved but reinitialization failed")
	}
	return true, nil
}

// RemoveProvider drops the live instance and the persisted config for name.
// Removing an unknown provider succeeds. A trusted provider returns at the
// next initialization.
//
// The live map is never mutated in place: removal publishes a copy, so
// readers holding the previous map are unaffected.
func (s *Service) RemoveProvider(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	if err := s.configs.RemoveConfig(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.mu.RLock()
	current := s.live
	s.mu.RUnlock()
	next := make(map[string]*asset.Base, len(current))
	for key, provider := range current {
		if key != name {
			next[key] = provider
		}
	}
	s.mu.Lock()
	s.live = next
	s.mu.Unlock()
	s.logger.Info().Str("provider", name).Msg("provider removed")
	return nil
}

// GetProviders returns the names of the live providers in lexical order.
func (s *Service) GetProviders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.live)
}

// GetProviderConfigs returns every persisted config, enabled or not.
func (s *Service) GetProviderConfigs(ctx context.Context) ([]domain.ProviderConfig, error) {
	return s.configs.GetConfigs(ctx)
}

func (s *Service) snapshot() []asset.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]asset.Provider, 0, len(s.live))
	for _, name := range sortedKeys(s.live) {
		out = append(out, s.live[name])
	}
	return out
}

func sortedKeys(m map[string]*asset.Base) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
