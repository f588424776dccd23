package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"assetmatch/internal/domain"
	"assetmatch/internal/middleware"
)

type assetSearchRequest struct {
	SceneDescription string                       `json:"sceneDescription"`
	Options          *domain.VisualSearchCriteria `json:"options"`
}

// AssetsSearch finds ranked assets for a scene description.
func (a *App) AssetsSearch(w http.ResponseWriter, r *http.Request) {
	var req assetSearchRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SceneDescription) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "sceneDescription is required")
		return
	}
	if req.Options == nil {
		req.Options = &domain.VisualSearchCriteria{}
	}
	if req.Options.Locale == "" {
		req.Options.Locale = middleware.LocaleFromContext(r.Context())
	}

	res, err := a.Matcher.FindAssets(r.Context(), req.SceneDescription, req.Options)
	if err != nil {
		code, errCode := analysisError(err)
		if code >= http.StatusInternalServerError {
			a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("asset search failed")
		}
		a.error(w, code, errCode, err.Error())
		return
	}

	if include, _ := strconv.ParseBool(r.URL.Query().Get("includeStatus")); !include {
		res.Statuses = nil
	}
	a.json(w, http.StatusOK, res)
}
