package handlers

import (
	"net/http"
)

// Health reports liveness and how many providers are currently serving searches.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	live := 0
	if a.Matcher != nil {
		live = len(a.Matcher.GetProviders())
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "providers": live})
}
