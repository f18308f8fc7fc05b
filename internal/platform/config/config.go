package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	LogLevel        slog.Level
	Database        DatabaseConfig
	Redis           RedisConfig
	// RegistryCacheTTL bounds how stale a reference listing may be.
	RegistryCacheTTL time.Duration
	// TxTimeout applies to case transactions whose context has no deadline.
	TxTimeout time.Duration
}

// DatabaseConfig selects PostgreSQL. An empty URL runs on in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Migrate applies pending schema migrations at startup.
	Migrate bool
}

// RedisConfig selects Redis for the reference cache. An empty URL keeps the
// cache in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	env := envReader{errs: &errs}

	cfg := Server{
		Addr:             env.str("CASEDESK_ADDR", ":8080"),
		ShutdownTimeout:  env.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		RequestTimeout:   env.duration("REQUEST_TIMEOUT", 30*time.Second),
		RegistryCacheTTL: env.duration("REGISTRY_CACHE_TTL", 5*time.Minute),
		TxTimeout:        env.duration("TX_TIMEOUT", 5*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    env.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			Migrate:         env.boolean("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			errs = append(errs, fmt.Sprintf("LOG_LEVEL: %v", err))
		}
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// envReader reads typed variables and collects every parse failure, so a
// misconfigured deployment reports all its problems at once.
type envReader struct {
	errs *[]string
}

func (e envReader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: must be a non-negative integer", key))
		return def
	}
	return v
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: must be a duration such as 5s", key))
		return def
	}
	return v
}

func (e envReader) boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: must be true or false", key))
		return def
	}
	return v
}
