package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"assetmatch/internal/http/handlers"
	httpapi "assetmatch/internal/http/httpapi"
	"assetmatch/internal/infra"
	"assetmatch/internal/infra/geoip"
	"assetmatch/internal/matching"
	"assetmatch/internal/middleware"
	"assetmatch/internal/providerconfig"
	"assetmatch/internal/providers/asset"
	"assetmatch/internal/providers/scene"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()

	store, closeStore, err := providerconfig.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.ProviderStore).Msg("failed to open provider store")
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	registry := asset.NewRegistry(asset.Options{HTTPClient: httpClient})
	manager := providerconfig.NewManager(store, registry, &logger)

	analyzer, err := scene.New(scene.Config{
		Backend: cfg.SceneAnalyzer,
		OpenAI: scene.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai model adjusted")
			},
		},
		Gemini: scene.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		},
		Remote: scene.RemoteOptions{URL: cfg.SceneAnalyzerURL, HTTPClient: httpClient},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build scene analyzer")
	}

	trusted, err := infra.TrustedProviders(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load trusted providers")
	}

	svc, err := matching.New(ctx, matching.Options{
		Builder:         registry,
		Configs:         manager,
		Analyzer:        analyzer,
		Trusted:         trusted,
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize asset matching")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	app := handlers.NewApp(svc, manager, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		DocsEnabled:     cfg.DocsEnabled,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Strs("providers", svc.GetProviders()).Str("port", cfg.Port).Msg("asset matching API starting")
	server := infra.NewHTTPServer(cfg, router, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}
