package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvTesting     = "testing"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env     string
	AppPort string

	DatabaseURL string

	RedisAddr string
	RedisDB   int

	AMQPURL string

	StatsCacheTTL   time.Duration
	IdempotencyTTL  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DefaultLimit int
	MaxLimit     int
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("app_port", "8080")
	v.SetDefault("redis_db", 0)
	v.SetDefault("stats_cache_ttl", "30s")
	v.SetDefault("idempotency_ttl", "5m")
	v.SetDefault("request_timeout", "2s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("pagination_default_limit", 50)
	v.SetDefault("pagination_max_limit", 100)

	v.AutomaticEnv()
	// FLASK_ENV is still honoured for deployments that predate APP_ENV.
	_ = v.BindEnv("env", "APP_ENV", "FLASK_ENV")
	return v
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := newViper()
	c := &Config{
		Env:             strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		AppPort:         v.GetString("app_port"),
		DatabaseURL:     v.GetString("database_url"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisDB:         v.GetInt("redis_db"),
		AMQPURL:         v.GetString("amqp_url"),
		StatsCacheTTL:   v.GetDuration("stats_cache_ttl"),
		IdempotencyTTL:  v.GetDuration("idempotency_ttl"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		DefaultLimit:    v.GetInt("pagination_default_limit"),
		MaxLimit:        v.GetInt("pagination_max_limit"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvTesting, EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q: want testing, development or production", c.Env)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.DatabaseURL == "" {
		return errors.New("missing DATABASE_URL")
	}
	if _, err := DatabaseScheme(c.DatabaseURL); err != nil {
		return err
	}
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 {
		return errors.New("pagination limits must be positive")
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("PAGINATION_DEFAULT_LIMIT (%d) exceeds PAGINATION_MAX_LIMIT (%d)", c.DefaultLimit, c.MaxLimit)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// DatabaseScheme returns the normalized dialect of a DATABASE_URL:
// "postgres", "mysql" or "sqlite". A "+driver" suffix such as
// postgresql+psycopg2 is accepted and ignored.
func DatabaseScheme(url string) (string, error) {
	i := strings.Index(url, "://")
	if i <= 0 {
		return "", fmt.Errorf("invalid DATABASE_URL: missing scheme")
	}
	scheme := strings.ToLower(url[:i])
	if j := strings.IndexByte(scheme, '+'); j >= 0 {
		scheme = scheme[:j]
	}
	switch scheme {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", scheme)
}
