package asset

import (
	"context"
	"errors"
	"time"

	"assetmatch/internal/domain"
)

// Provider is the contract the matching service dispatches searches to.
type Provider interface {
	Name() string
	Search(ctx context.Context, criteria domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error)
}

// Source adapts one upstream media search API. Sources return unscored
// results; Base applies authentication, rate limiting and scoring around them.
type Source interface {
	Name() string
	RequiresAuth() bool
	SearchAssets(ctx context.Context, criteria domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error)
	TestConnection(ctx context.Context) error
}

// Base gives every Source the same auth, rate-limit and ranking treatment.
type Base struct {
	source  Source
	config  domain.ProviderConfig
	limiter *RateLimiter
}

// NewBase wraps source with the policy derived from cfg.
func NewBase(source Source, cfg domain.ProviderConfig, now func() time.Time) *Base {
	return &Base{
		source:  source,
		config:  cfg,
		limiter: NewRateLimiter(source.Name(), cfg.RateLimit, now),
	}
}

// Name returns the provider name.
func (b *Base) Name() string {
	return b.source.Name()
}

// Config returns the configuration this instance was built from.
func (b *Base) Config() domain.ProviderConfig {
	return b.config
}

// Limiter exposes the provider's rate limiter.
func (b *Base) Limiter() *RateLimiter {
	return b.limiter
}

// Search validates credentials, consumes rate-limit budget, runs the upstream
// search and returns the results scored and sorted by confidence.
func (b *Base) Search(ctx context.Context, criteria domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error) {
	name := b.Name()
	if b.source.RequiresAuth() && b.config.APIKey == "" {
		return nil, domain.NewProviderError(name, domain.ErrAuthentication, "provider requires authentication", nil)
	}
	if err := b.limiter.Allow(); err != nil {
		return nil, err
	}
	results, err := b.source.SearchAssets(ctx, criteria)
	if err != nil {
		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, domain.NewProviderError(name, domain.ErrUpstream, "", err)
	}
	for i := range results {
		if results[i].Provider == "" {
			results[i].Provider = name
		}
	}
	return ScoreAndSort(results, criteria), nil
}

// TestConnection checks that the upstream accepts the configured credentials.
func (b *Base) TestConnection(ctx context.Context) error {
	if b.source.RequiresAuth() && b.config.APIKey == "" {
		return domain.NewProviderError(b.Name(), domain.ErrConfiguration, "api key is required", nil)
	}
	return b.source.TestConnection(ctx)
}

var _ Provider = (*Base)(nil)
