package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"assetmatch/internal/infra"
	"assetmatch/internal/providerconfig"
	"assetmatch/internal/providers/asset"
)

func main() {
	_ = godotenv.Load()

	root := newRootCmd(openFromEnv)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openFromEnv opens the configured provider store the same way the API does.
func openFromEnv(ctx context.Context) (*providerconfig.Manager, func(), error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	store, closeStore, err := providerconfig.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	registry := asset.NewRegistry(asset.Options{})
	return providerconfig.NewManager(store, registry, &logger), closeStore, nil
}
