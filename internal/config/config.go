// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the portal configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"portal-jwt-secret-change-me-now!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver string `env:"PORTAL_DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"PORTAL_DB_PATH" envDefault:"./data/portal.db"`

	JWTSecret       string        `env:"PORTAL_JWT_SECRET,required"`
	JWTTTL          time.Duration `env:"PORTAL_JWT_TTL" envDefault:"24h"`
	ResetTokenTTL   time.Duration `env:"PORTAL_RESET_TOKEN_TTL" envDefault:"1h"`
	ServerHost      string        `env:"PORTAL_SERVER_HOST" envDefault:"localhost"`
	ServerPort      int           `env:"PORTAL_SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"PORTAL_ENV" envDefault:"development"`
	LogLevel        string        `env:"PORTAL_LOG_LEVEL" envDefault:"info"`
	UploadsDir      string        `env:"PORTAL_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadMB     int64         `env:"PORTAL_MAX_UPLOAD_MB" envDefault:"10"`
	RequestTimeout  time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins     []string      `env:"PORTAL_CORS_ORIGINS" envDefault:"*" envSeparator:","`
	APIRateLimit    float64       `env:"PORTAL_API_RATE_LIMIT" envDefault:"20"` // requests per second per IP
	APIRateBurst    int           `env:"PORTAL_API_RATE_BURST" envDefault:"40"`
	WSMaxClients    int           `env:"PORTAL_WS_MAX_CLIENTS" envDefault:"1000"`
	EventLogMaxAge  time.Duration `env:"PORTAL_EVENT_LOG_MAX_AGE" envDefault:"2160h"`     // 90 days
	ReadNotifMaxAge time.Duration `env:"PORTAL_READ_NOTIFICATION_MAX_AGE" envDefault:"720h"` // 30 days

	// Cache configuration
	RedisURL     string `env:"PORTAL_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"PORTAL_CACHE_PREFIX" envDefault:"portal:"` // Redis key prefix
	CacheTTL     int    `env:"PORTAL_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"PORTAL_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MaxUploadBytes is the upload cap in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinJWTSecretLength is the minimum required length for the token signing key.
// HS256 should be keyed with at least 32 bytes.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("PORTAL_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("PORTAL_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "sqlite3" {
		return nil, fmt.Errorf("PORTAL_DB_DRIVER must be sqlite or sqlite3, got %q", cfg.DBDriver)
	}
	if cfg.JWTTTL <= 0 || cfg.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("PORTAL_MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.WSMaxClients <= 0 {
		return nil, fmt.Errorf("PORTAL_WS_MAX_CLIENTS must be positive, got %d", cfg.WSMaxClients)
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("PORTAL_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
