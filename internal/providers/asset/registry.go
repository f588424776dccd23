package asset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"assetmatch/internal/domain"
)

const (
	defaultPerPage     = 15
	defaultOrientation = "landscape"
)

// ErrUnknownProvider is returned when no implementation exists for a provider name.
var ErrUnknownProvider = errors.New("unknown asset provider")

// Options are the shared dependencies handed to every provider factory.
type Options struct {
	HTTPClient  *http.Client
	PerPage     int
	Orientation string
	// Now drives rate-limiter windows; tests inject a fake clock.
	Now func() time.Time
}

// Factory builds the Source for a named provider from its configuration.
type Factory func(cfg Config, opts Options) (Source, error)

// Config is the subset of provider configuration a factory needs.
type Config struct {
	APIKey      string
	APIEndpoint string
}

// Registry maps provider names onto their implementations.
type Registry struct {
	opts Options

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in Pexels and Unsplash providers.
func NewRegistry(opts Options) *Registry {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Registry{opts: opts, factories: make(map[string]Factory)}
	r.Register(PexelsName, func(cfg Config, o Options) (Source, error) {
		return NewPexels(PexelsOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.APIEndpoint,
			HTTPClient:  o.HTTPClient,
			PerPage:     o.PerPage,
			Orientation: o.Orientation,
		}), nil
	})
	r.Register(UnsplashName, func(cfg Config, o Options) (Source, error) {
		return NewUnsplash(UnsplashOptions{
			AccessKey:   cfg.APIKey,
			BaseURL:     cfg.APIEndpoint,
			HTTPClient:  o.HTTPClient,
			PerPage:     o.PerPage,
			Orientation: o.Orientation,
		}), nil
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(strings.TrimSpace(name))] = factory
}

// Supports reports whether an implementation is registered for name.
func (r *Registry) Supports(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names lists the registered provider names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs a policy-wrapped provider for cfg.
func (r *Registry) Build(cfg domain.ProviderConfig) (*Base, error) {
	cfg = cfg.Normalize()
	r.mu.RLock()
	factory, ok := r.factories[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
	}
	source, err := factory(Config{APIKey: cfg.APIKey, APIEndpoint: cfg.APIEndpoint}, r.opts)
	if err != nil {
		return nil, fmt.Errorf("build provider %q: %w", cfg.Name, err)
	}
	return NewBase(source, cfg, r.opts.Now), nil
}

// TestConnection builds a throwaway instance for cfg and checks it against the upstream.
func (r *Registry) TestConnection(ctx context.Context, cfg domain.ProviderConfig) error {
	provider, err := r.Build(cfg)
	if err != nil {
		return err
	}
	return provider.TestConnection(ctx)
}
