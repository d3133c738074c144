package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"clubhub/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Catalog       CatalogConfig
	Usage         UsageConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"clubhub"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	// Redis is optional: only used when RATE_LIMIT_STORE=redis
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig configures the external model-catalog API and its sync cadence
type CatalogConfig struct {
	BaseURL      string        `envconfig:"CATALOG_API_BASE_URL" default:"https://openrouter.ai/api/v1"`
	APIKey       string        `envconfig:"CATALOG_API_KEY"`
	FetchTimeout time.Duration `envconfig:"CATALOG_FETCH_TIMEOUT" default:"30s"`
	SyncInterval time.Duration `envconfig:"CATALOG_SYNC_INTERVAL" default:"6h"`
	SyncEnabled  bool          `envconfig:"CATALOG_SYNC_ENABLED" default:"true"`
}

// UsageConfig configures the token-status cache and the request rate limiter.
// Defaults mirror what the web handlers historically hardcoded.
type UsageConfig struct {
	StatusCacheTTL   time.Duration `envconfig:"USAGE_STATUS_CACHE_TTL" default:"30s"`
	RateLimitMax     int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"10"`
	RateLimitWindow  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitStore   string        `envconfig:"RATE_LIMIT_STORE" default:"memory"` // memory|redis
	DefaultUserLimit int           `envconfig:"USAGE_DEFAULT_USER_LIMIT" default:"100000"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
