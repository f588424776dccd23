package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	LogLevel         string
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	GeoIPDBPath      string
	DefaultLocale    string
	DocsEnabled      bool

	ProviderStore     string
	ProviderStorePath string
	SQLitePath        string
	DatabaseURL       string
	AutoMigrate       bool
	DBMaxConns        int
	ProviderTimeout   time.Duration

	PexelsAPIKey      string
	PexelsPerMinute   int
	PexelsPerDay      int
	UnsplashAccessKey string
	UnsplashPerMinute int
	UnsplashPerDay    int
	ProvidersFile     string

	SceneAnalyzer    string
	SceneAnalyzerURL string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Port:             getEnv("PORT", "8080"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		DocsEnabled:      getEnvBool("API_DOCS_ENABLED", true),

		ProviderStore:     strings.ToLower(getEnv("PROVIDER_STORE", StoreFile)),
		ProviderStorePath: getEnv("PROVIDER_STORE_PATH", "./data"),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/providers.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		ProviderTimeout:   time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 20)),

		PexelsAPIKey:      strings.TrimSpace(os.Getenv("PEXELS_API_KEY")),
		PexelsPerMinute:   getEnvInt("PEXELS_REQUESTS_PER_MINUTE", 0),
		PexelsPerDay:      getEnvInt("PEXELS_REQUESTS_PER_DAY", 0),
		UnsplashAccessKey: strings.TrimSpace(os.Getenv("UNSPLASH_ACCESS_KEY")),
		UnsplashPerMinute: getEnvInt("UNSPLASH_REQUESTS_PER_MINUTE", 0),
		UnsplashPerDay:    getEnvInt("UNSPLASH_REQUESTS_PER_DAY", 0),
		ProvidersFile:     os.Getenv("PROVIDERS_FILE"),

		SceneAnalyzer:    strings.ToLower(getEnv("SCENE_ANALYZER", "openai")),
		SceneAnalyzerURL: os.Getenv("SCENE_ANALYZER_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),
	}

	switch cfg.ProviderStore {
	case StoreFile, StoreSQLite, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when PROVIDER_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("PROVIDER_STORE %q is not supported", cfg.ProviderStore)
	}

	switch cfg.SceneAnalyzer {
	case "openai", "gemini", "remote":
	default:
		return nil, fmt.Errorf("SCENE_ANALYZER %q is not supported", cfg.SceneAnalyzer)
	}

	if cfg.ProviderTimeout < 0 {
		cfg.ProviderTimeout = 0
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		return v == "1" || v == "true" || v == "yes" || v == "y"
	}
	return fallback
}

func splitAndTrim(input string) []string {
	if input == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
