// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "PORTAL_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "sqlite")
	}
	if cfg.DBPath != "./data/portal.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/portal.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.ResetTokenTTL != time.Hour {
		t.Errorf("ResetTokenTTL = %v, want 1h", cfg.ResetTokenTTL)
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes(), 10<<20)
	}
	if cfg.WSMaxClients != 1000 {
		t.Errorf("WSMaxClients = %d, want 1000", cfg.WSMaxClients)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.CachePrefix != "portal:" || cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("cache = %q/%v, want portal:/5m", cfg.CachePrefix, cfg.CacheTTLDuration())
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without PORTAL_REDIS_URL")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "PORTAL_JWT_SECRET", testSecret)
	setEnv(t, "PORTAL_DB_DRIVER", "sqlite3")
	setEnv(t, "PORTAL_SERVER_HOST", "0.0.0.0")
	setEnv(t, "PORTAL_SERVER_PORT", "3000")
	setEnv(t, "PORTAL_ENV", "production")
	setEnv(t, "PORTAL_LOG_LEVEL", "debug")
	setEnv(t, "PORTAL_JWT_TTL", "2h")
	setEnv(t, "PORTAL_CORS_ORIGINS", "http://localhost:3000,https://portal.example.com")
	setEnv(t, "PORTAL_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want sqlite3", cfg.DBDriver)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want 0.0.0.0:3000", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Errorf("JWTTTL = %v, want 2h", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with PORTAL_REDIS_URL set")
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without PORTAL_JWT_SECRET")
	}
}

func TestLoad_JWTSecretTooShort(t *testing.T) {
	os.Clearenv()
	setEnv(t, "PORTAL_JWT_SECRET", "short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail with a short secret")
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("error = %v, want length message", err)
	}
}

func TestLoad_WeakSecretRejected(t *testing.T) {
	os.Clearenv()
	setEnv(t, "PORTAL_JWT_SECRET", knownWeakSecrets[0])

	if _, err := Load(); err == nil {
		t.Error("Load() should reject a known default secret")
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	os.Clearenv()
	setEnv(t, "PORTAL_JWT_SECRET", testSecret)
	setEnv(t, "PORTAL_DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject unknown drivers")
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single character class should be low entropy")
	}
	if !hasMinimumEntropy("Abcdefgh1234567890abcdefghijklmn") {
		t.Error("three character classes should pass")
	}
}
