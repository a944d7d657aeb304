package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Platform PlatformConfig
	Job      JobConfig
}

type AppConfig struct {
	Environment string
	Port        string
	JWTSecret   string
}

type RedisConfig struct {
	URL string
}

// PlatformConfig carries fallback marketplace credentials. Per-store
// credentials in api_config take precedence.
type PlatformConfig struct {
	BaseURL       string
	ServiceSecret string
	LicenseKey    string
	ProxyURL      string
	Timeout       time.Duration
}

// JobConfig tunes the periodic pipelines.
type JobConfig struct {
	PollInterval       time.Duration
	PollWindow         time.Duration
	RetryDrainInterval time.Duration
	PushInterval       time.Duration
	Concurrency        int
	PushFanout         int
}

func Load() (*Config, error) {
	// .env is optional, real deployments use environment variables
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("ENVIRONMENT", "dev"),
			Port:        getEnv("PORT", "8080"),
			JWTSecret:   getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Platform: PlatformConfig{
			BaseURL:       getEnv("PLATFORM_BASE_URL", "https://api.rms.rakuten.co.jp"),
			ServiceSecret: getEnv("PLATFORM_DEFAULT_SERVICE_SECRET", ""),
			LicenseKey:    getEnv("PLATFORM_DEFAULT_LICENSE_KEY", ""),
			ProxyURL:      getEnv("PLATFORM_PROXY", ""),
			Timeout:       getEnvDuration("PLATFORM_TIMEOUT", 30*time.Second),
		},
		Job: JobConfig{
			PollInterval:       getEnvDuration("JOB_POLL_INTERVAL", 10*time.Minute),
			PollWindow:         getEnvDuration("JOB_POLL_WINDOW", 2*time.Hour),
			RetryDrainInterval: getEnvDuration("JOB_RETRY_DRAIN_INTERVAL", 5*time.Minute),
			PushInterval:       getEnvDuration("JOB_PUSH_INTERVAL", time.Hour),
			Concurrency:        getEnvInt("WORKER_CONCURRENCY", 10),
			PushFanout:         getEnvInt("JOB_PUSH_FANOUT", 16),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.App, validation.Required),
		validation.Field(&c.Database, validation.Required),
	)
}

func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&c.Port, validation.Required),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required),
	)
}

// IsProd reports whether stores flagged environment=prod should be polled.
func (c *Config) IsProd() bool {
	return c.App.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
