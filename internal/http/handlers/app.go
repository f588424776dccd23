package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"assetmatch/internal/domain"
	"assetmatch/internal/infra"
	"assetmatch/internal/matching"
)

const maxBodyBytes = 1 << 20

// AssetMatcher is the matching service surface the handlers need.
type AssetMatcher interface {
	FindAssets(ctx context.Context, sceneDescription string, partial *domain.VisualSearchCriteria) (matching.FindResult, error)
	AddProvider(ctx context.Context, cfg domain.ProviderConfig) (bool, error)
	RemoveProvider(ctx context.Context, name string) error
	GetProviders() []string
	GetProviderConfigs(ctx context.Context) ([]domain.ProviderConfig, error)
}

// ProviderTester checks a stored provider config against its upstream.
type ProviderTester interface {
	TestStored(ctx context.Context, name string) error
}

type App struct {
	Matcher AssetMatcher
	Tester  ProviderTester
	Logger  infra.Logger
}

func NewApp(matcher AssetMatcher, tester ProviderTester, logger *infra.Logger) *App {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &App{Matcher: matcher, Tester: tester, Logger: l}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, details string) {
	a.json(w, code, errorResponse{Error: errCode, Details: details})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// analysisError maps a FindAssets failure onto a status and error code.
func analysisError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCriteria):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable, "configuration"
	case errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway, "parse_error"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "analysis_failed"
	}
	return http.StatusInternalServerError, "internal"
}
