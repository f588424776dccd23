package infra

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"assetmatch/internal/domain"
)

type providersFile struct {
	Providers []providerEntry `yaml:"providers"`
}

type providerEntry struct {
	Name        string            `yaml:"name"`
	Enabled     *bool             `yaml:"enabled"`
	APIKey      string            `yaml:"api_key"`
	APIEndpoint string            `yaml:"api_endpoint"`
	Priority    int               `yaml:"priority"`
	RateLimit   *domain.RateLimit `yaml:"rate_limit"`
}

// TrustedProviders returns the provider configs supplied by the deployment:
// entries from PROVIDERS_FILE, overridden per name by the PEXELS_* and
// UNSPLASH_* variables. The result is ordered by name.
func TrustedProviders(cfg *Config) ([]domain.ProviderConfig, error) {
	byName := make(map[string]domain.ProviderConfig)

	if cfg.ProvidersFile != "" {
		entries, err := loadProvidersFile(cfg.ProvidersFile)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			byName[e.Name] = e
		}
	}

	if cfg.PexelsAPIKey != "" {
		byName["pexels"] = envProvider("pexels", cfg.PexelsAPIKey, cfg.PexelsPerMinute, cfg.PexelsPerDay, byName["pexels"])
	}
	if cfg.UnsplashAccessKey != "" {
		byName["unsplash"] = envProvider("unsplash", cfg.UnsplashAccessKey, cfg.UnsplashPerMinute, cfg.UnsplashPerDay, byName["unsplash"])
	}

	out := make([]domain.ProviderConfig, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// envProvider keeps the endpoint and priority of a file entry with the same name.
func envProvider(name, key string, perMinute, perDay int, fromFile domain.ProviderConfig) domain.ProviderConfig {
	c := domain.ProviderConfig{
		Name:        name,
		Enabled:     true,
		APIKey:      key,
		APIEndpoint: fromFile.APIEndpoint,
		Priority:    fromFile.Priority,
		RateLimit:   fromFile.RateLimit,
	}
	if perMinute > 0 || perDay > 0 {
		c.RateLimit = &domain.RateLimit{RequestsPerMinute: perMinute, RequestsPerDay: perDay}
	}
	return c.Normalize()
}

func loadProvidersFile(path string) ([]domain.ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var doc providersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse providers file %s: %w", path, err)
	}
	out := make([]domain.ProviderConfig, 0, len(doc.Providers))
	for i, e := range doc.Providers {
		c := domain.ProviderConfig{
			Name:        e.Name,
			Enabled:     e.Enabled == nil || *e.Enabled,
			APIKey:      os.ExpandEnv(e.APIKey),
			APIEndpoint: e.APIEndpoint,
			Priority:    e.Priority,
			RateLimit:   e.RateLimit,
		}.Normalize()
		if c.Name == "" {
			return nil, fmt.Errorf("providers file %s: entry %d has no name", path, i)
		}
		out = append(out, c)
	}
	return out, nil
}
