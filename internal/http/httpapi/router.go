package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"assetmatch/internal/http/handlers"
	"assetmatch/internal/infra"
	"assetmatch/internal/middleware"
)

// Options configures the cross-cutting middleware of the router.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	DocsEnabled     bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)

	if opts.DocsEnabled {
		r.Get("/v1/openapi.json", app.OpenAPIJSON)
		r.Get("/v1/docs", app.OpenAPIDocs)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/v1/assets/search", app.AssetsSearch)
	})

	r.Route("/v1/providers", func(r chi.Router) {
		r.Get("/", app.ProvidersList)
		r.Post("/", app.ProvidersAdd)
		r.Get("/configs", app.ProvidersConfigs)
		r.Delete("/{name}", app.ProvidersDelete)
		r.Post("/{name}/test", app.ProvidersTest)
	})

	return r
}
