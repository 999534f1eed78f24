// Package config loads service configuration from .env, an optional YAML file
// and environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the fact-check service.
// Environment variables override YAML values. Secrets only come from the environment.
type Config struct {
	Port    string `yaml:"port" env:"PORT" env-default:"8080"`
	GinMode string `yaml:"gin_mode" env:"GIN_MODE" env-default:"debug"`
	LogMode string `yaml:"log_mode" env:"LOG_MODE" env-default:"dev"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Redis    RedisConfig    `yaml:"redis"`
	Worker   WorkerConfig   `yaml:"worker"`

	// CORSOrigins is a comma-separated allow list; "*" allows all
	CORSOrigins string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"-" env:"DB_PASSWORD"`
	DBName   string `yaml:"name" env:"DB_NAME" env-default:"open_factcheck"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	// LogSQL turns on GORM statement logging
	LogSQL bool `yaml:"log_sql" env:"DB_LOG_SQL" env-default:"false"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"-" env:"JWT_SECRET"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"open-factcheck"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"24h"`
}

// RankingConfig controls the trending/leaderboard cache.
// A cached list is never older than CacheTTL; zero disables caching.
type RankingConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"RANKING_CACHE_TTL" env-default:"30s"`
}

// RedisConfig enables cross-instance event fan-out when Addr is set
type RedisConfig struct {
	Addr    string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"factcheck-events"`
}

// WorkerConfig holds background task settings
type WorkerConfig struct {
	Enabled          bool          `yaml:"enabled" env:"WORKER_ENABLED" env-default:"true"`
	PreviewInterval  time.Duration `yaml:"preview_interval" env:"WORKER_PREVIEW_INTERVAL" env-default:"5m"`
	PreviewBatchSize int           `yaml:"preview_batch_size" env:"WORKER_PREVIEW_BATCH" env-default:"20"`
	PreviewRate      float64       `yaml:"preview_rate" env:"WORKER_PREVIEW_RATE" env-default:"1"` // fetches per second
	RescoreInterval  time.Duration `yaml:"rescore_interval" env:"WORKER_RESCORE_INTERVAL" env-default:"15m"`
}

// Load reads .env (if any), then the YAML file at path (if it exists), then
// environment overrides
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, cfg.validate()
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Ranking.CacheTTL < 0 {
		return fmt.Errorf("ranking cache ttl must not be negative")
	}
	if c.Worker.PreviewRate <= 0 {
		return fmt.Errorf("worker preview rate must be positive")
	}
	return nil
}

// DSN builds the PostgreSQL connection string, omitting an empty password
func (d DatabaseConfig) DSN() string {
	if d.Password == "" {
		return fmt.Sprintf(
			"host=%s port=%s user=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.DBName, d.SSLMode,
		)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
