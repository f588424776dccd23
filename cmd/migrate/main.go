package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"assetmatch/internal/infra"
	"assetmatch/migrations"
)

func main() {
	_ = godotenv.Load()

	logger := infra.NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	dir := flag.String("dir", "up", "migration direction: up, down or version")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	switch *dir {
	case "up":
		if err := migrations.Up(dsn); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	case "down":
		if err := migrations.Down(dsn); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	case "version":
	default:
		logger.Fatal().Str("dir", *dir).Msg("unknown direction")
	}

	version, dirty, err := migrations.Version(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Str("dir", *dir).Msg("schema ready")
}
