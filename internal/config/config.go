// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers an optional YAML file and SKILLUP_* env vars on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ProfileStore selects the user document backend: memory or postgres.
	ProfileStore string `koanf:"profile_store"`
	// PostgresDSN is used when ProfileStore is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// PrefsStore selects the per-user key-value backend: memory or redis.
	PrefsStore    string `koanf:"prefs_store"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// JWTSecret signs bearer tokens (HS256).
	JWTSecret       string `koanf:"jwt_secret"`
	JWTIssuer       string `koanf:"jwt_issuer"`
	TokenTTLMinutes int    `koanf:"token_ttl_minutes"`
	BcryptCost      int    `koanf:"bcrypt_cost"`
	// MinPasswordLength is the shortest accepted signup password.
	MinPasswordLength int `koanf:"min_password_length"`

	// WriteQueueSize bounds the profile write-behind queue.
	WriteQueueSize int `koanf:"write_queue_size"`
	// WriterCount sets the number of profile writer workers.
	WriterCount int `koanf:"writer_count"`

	// BiometricTickMS is the simulator tick period in milliseconds.
	BiometricTickMS int `koanf:"biometric_tick_ms"`
	// SessionHistoryLimit caps the stored biometric sessions per user.
	SessionHistoryLimit int `koanf:"session_history_limit"`

	// CatalogPath optionally replaces the embedded catalog with a YAML file.
	CatalogPath string `koanf:"catalog_path"`
	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins string `koanf:"cors_origins"`
	// INRRate converts catalog USD prices for display.
	INRRate float64 `koanf:"inr_rate"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ProfileStore:        BackendMemory,
		PrefsStore:          BackendMemory,
		RedisAddr:           "localhost:6379",
		JWTSecret:           "change-me",
		JWTIssuer:           "skillup",
		TokenTTLMinutes:     24 * 60,
		BcryptCost:          10,
		MinPasswordLength:   6,
		WriteQueueSize:      1024,
		WriterCount:         4,
		BiometricTickMS:     2000,
		SessionHistoryLimit: 10,
		CORSOrigins:         "*",
		INRRate:             83,
	}
}

// TokenTTL returns the bearer token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// BiometricTick returns the simulator tick period.
func (c *Config) BiometricTick() time.Duration {
	return time.Duration(c.BiometricTickMS) * time.Millisecond
}

// AllowedOrigins splits CORSOrigins into a list, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProfileStore != BackendMemory && c.ProfileStore != BackendPostgres:
		return fmt.Errorf("%w: unknown profile_store %q", ErrInvalidConfig, c.ProfileStore)
	case c.ProfileStore == BackendPostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres profile store", ErrInvalidConfig)
	case c.PrefsStore != BackendMemory && c.PrefsStore != BackendRedis:
		return fmt.Errorf("%w: unknown prefs_store %q", ErrInvalidConfig, c.PrefsStore)
	case c.PrefsStore == BackendRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis prefs store", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be positive", ErrInvalidConfig)
	case c.MinPasswordLength < 1:
		return fmt.Errorf("%w: min_password_length must be positive", ErrInvalidConfig)
	case c.BiometricTickMS <= 0:
		return fmt.Errorf("%w: biometric_tick_ms must be positive", ErrInvalidConfig)
	case c.INRRate <= 0:
		return fmt.Errorf("%w: inr_rate must be positive", ErrInvalidConfig)
	}
	return nil
}
