package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"assetmatch/internal/domain"
)

// ProvidersList returns the names of the live providers.
func (a *App) ProvidersList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"providers": a.Matcher.GetProviders()})
}

// ProvidersConfigs returns every stored provider config with masked keys.
func (a *App) ProvidersConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := a.Matcher.GetProviderConfigs(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("load provider configs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load provider configs")
		return
	}
	items := make([]domain.ProviderConfig, 0, len(configs))
	for _, c := range configs {
		items = append(items, c.Masked())
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) ProvidersAdd(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ProviderConfig
	if !a.decode(w, r, &cfg) {
		return
	}
	ok, err := a.Matcher.AddProvider(r.Context(), cfg)
	if !ok {
		kind := domain.ErrorKind(err)
		if kind == "" {
			kind = "rejected"
		}
		details := ""
		if err != nil {
			details = err.Error()
		}
		a.json(w, http.StatusBadRequest, map[string]any{"success": false, "error": kind, "details": details})
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"success": true})
}

func (a *App) ProvidersDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.Matcher.RemoveProvider(r.Context(), name); err != nil {
		a.Logger.Error().Err(err).Str("provider", name).Msg("remove provider")
		a.error(w, http.StatusInternalServerError, "internal", "failed to remove provider")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProvidersTest runs the connectivity check for a stored provider config.
func (a *App) ProvidersTest(w http.ResponseWriter, r *http.Request) {
	if a.Tester == nil {
		a.error(w, http.StatusServiceUnavailable, "configuration", "connection testing is not configured")
		return
	}
	name := chi.URLParam(r, "name")
	err := a.Tester.TestStored(r.Context(), name)
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	default:
		a.json(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "errorKind": domain.ErrorKind(err)})
	}
}
