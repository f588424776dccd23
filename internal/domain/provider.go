package domain

import (
	"sort"
	"strings"
)

// RateLimit holds the request ceilings of a provider. Zero means unlimited for that window.
type RateLimit struct {
	RequestsPerMinute int `json:"requestsPerMinute" yaml:"requests_per_minute"`
	RequestsPerDay    int `json:"requestsPerDay" yaml:"requests_per_day"`
}

// ProviderConfig describes one configured asset provider. Name is the unique key.
type ProviderConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Enabled     bool       `json:"enabled" yaml:"enabled"`
	APIKey      string     `json:"apiKey,omitempty" yaml:"api_key"`
	APIEndpoint string     `json:"apiEndpoint,omitempty" yaml:"api_endpoint"`
	Priority    int        `json:"priority" yaml:"priority"`
	RateLimit   *RateLimit `json:"rateLimit,omitempty" yaml:"rate_limit"`
}

// Normalize trims the free-text fields and lower-cases the name.
func (c ProviderConfig) Normalize() ProviderConfig {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APIEndpoint = strings.TrimRight(strings.TrimSpace(c.APIEndpoint), "/")
	return c
}

// Masked returns a copy safe to hand to a UI: only the last four key characters survive.
func (c ProviderConfig) Masked() ProviderConfig {
	if n := len(c.APIKey); n > 0 {
		if n <= 4 {
			c.APIKey = strings.Repeat("*", n)
		} else {
			c.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
		}
	}
	return c
}

// Equal reports whether two configs would build identical provider instances.
func (c ProviderConfig) Equal(o ProviderConfig) bool {
	if c.Name != o.Name || c.Enabled != o.Enabled || c.APIKey != o.APIKey ||
		c.APIEndpoint != o.APIEndpoint || c.Priority != o.Priority {
		return false
	}
	if c.RateLimit == nil || o.RateLimit == nil {
		return c.RateLimit == nil && o.RateLimit == nil
	}
	return *c.RateLimit == *o.RateLimit
}

// SortByPriority orders configs by priority descending, then by name.
// Priority is informational; it only drives listing order.
func SortByPriority(configs []ProviderConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Priority != configs[j].Priority {
			return configs[i].Priority > configs[j].Priority
		}
		return configs[i].Name < configs[j].Name
	})
}
