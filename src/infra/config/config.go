// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and go-playground/validator for
// cross-field checks such as pool bounds.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_DB_MAX_CONNS=20
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Health   HealthConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080" validate:"gt=0,lte=65535"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port     int    `envconfig:"DB_PORT" default:"5432" validate:"gt=0,lte=65535"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"fixrx" validate:"required"`

	// SSLMode is passed through to libpq-style connection strings (default: disable)
	SSLMode string `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// MaxConns is the upper bound on open connections (default: 20)
	MaxConns int `envconfig:"DB_MAX_CONNS" default:"20" validate:"gte=1"`

	// MinConns is the number of connections kept open while idle (default: 2)
	MinConns int `envconfig:"DB_MIN_CONNS" default:"2" validate:"gte=0,ltefield=MaxConns"`

	// IdleTimeout is how long a connection may sit idle before eviction (default: 30s)
	IdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"30s" validate:"gt=0"`

	// AcquireTimeout bounds how long a caller waits for a free connection (default: 5s)
	AcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s" validate:"gt=0"`

	// EvictionInterval is how often idle connections are checked (default: 1s)
	EvictionInterval time.Duration `envconfig:"DB_EVICTION_INTERVAL" default:"1s" validate:"gt=0"`

	// ConnectTimeout bounds establishing a single connection (default: 2s)
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"2s" validate:"gt=0"`

	// SlowQueryThreshold is the duration above which statements are logged at warn level.
	SlowQueryThreshold time.Duration `envconfig:"DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// CacheConfig holds cache-aside settings shared by all backends.
type CacheConfig struct {
	// Driver selects the backend: redis or memory (default: redis)
	Driver string `envconfig:"CACHE_DRIVER" default:"redis" validate:"oneof=redis memory"`

	// TTLDefault applies when a caller passes a non-positive TTL (default: 1h)
	TTLDefault time.Duration `envconfig:"CACHE_TTL_DEFAULT" default:"1h" validate:"gt=0"`

	// KeyPrefix namespaces every key written by this process (default: fixrx:)
	KeyPrefix string `envconfig:"CACHE_KEY_PREFIX" default:"fixrx:"`

	// MemoryCapacity is the entry capacity of the in-process backend.
	MemoryCapacity int `envconfig:"CACHE_MEMORY_CAPACITY" default:"10000" validate:"gt=0"`

	// MemoryMaxTTL caps entry lifetimes in the in-process backend.
	MemoryMaxTTL time.Duration `envconfig:"CACHE_MEMORY_MAX_TTL" default:"24h" validate:"gtefield=TTLDefault"`
}

// RedisConfig holds the Redis connection used by the redis cache driver.
type RedisConfig struct {
	Addr         string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"500ms"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"500ms"`
}

// HealthConfig controls the background health monitor.
type HealthConfig struct {
	// Interval between samples (default: 60s)
	Interval time.Duration `envconfig:"HEALTH_INTERVAL" default:"60s" validate:"gt=0"`

	// ProbeTTL is the expiry of the cache round-trip probe entry (default: 60s)
	ProbeTTL time.Duration `envconfig:"HEALTH_PROBE_TTL" default:"60s" validate:"gt=0"`

	// SampleHost adds host memory usage to each snapshot.
	SampleHost bool `envconfig:"HEALTH_SAMPLE_HOST" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, connectTimeoutSeconds(c.ConnectTimeout),
	)
}

// connect_timeout is expressed in whole seconds, minimum one.
func connectTimeoutSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config

	// Each section is processed with the same prefix so env vars stay flat:
	// APP_DB_HOST rather than APP_DATABASE_DB_HOST.
	sections := []struct {
		name string
		dst  any
	}{
		{"server", &cfg.Server},
		{"database", &cfg.Database},
		{"cache", &cfg.Cache},
		{"redis", &cfg.Redis},
		{"health", &cfg.Health},
		{"log", &cfg.Log},
	}
	for _, s := range sections {
		if err := envconfig.Process("APP", s.dst); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field invariants such as MinConns <= MaxConns.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
