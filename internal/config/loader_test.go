package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(envFrom(map[string]string{"RESERVATION_SESSION_SECRET": "super-secret"}))
		if err != nil {
			t.Fatalf("parse returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DBDriver != "sqlite" || cfg.DBDSN == "" {
			t.Fatalf("unexpected default database: %q %q", cfg.DBDriver, cfg.DBDSN)
		}
		if cfg.SessionTTL != 24*time.Hour || cfg.Location != time.UTC {
			t.Fatalf("unexpected defaults: %#v", cfg)
		}
		if cfg.RateLimitRPM != 120 || cfg.RateLimitBurst != 20 {
			t.Fatalf("unexpected rate limit defaults: %d/%d", cfg.RateLimitRPM, cfg.RateLimitBurst)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %s %s", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		t.Parallel()

		_, err := parse(envFrom(map[string]string{"RESERVATION_DB_DRIVER": "postgres"}))
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "必須の環境変数が設定されていません: RESERVATION_DB_DSN, RESERVATION_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		t.Parallel()

		_, err := parse(envFrom(map[string]string{
			"RESERVATION_SESSION_SECRET":   "secret",
			"RESERVATION_HTTP_PORT":        "eighty",
			"RESERVATION_TIMEZONE":         "Mars/Olympus",
			"RESERVATION_RATE_LIMIT_BURST": "0",
		}))
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: RESERVATION_HTTP_PORT, RESERVATION_TIMEZONE, RESERVATION_RATE_LIMIT_BURST"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(envFrom(map[string]string{
			"RESERVATION_SESSION_SECRET":   "secret-value",
			"RESERVATION_HTTP_PORT":        "9090",
			"RESERVATION_DB_DRIVER":        "pgx",
			"RESERVATION_DB_DSN":           "postgres://localhost/reservations",
			"RESERVATION_SESSION_TTL":      "2h",
			"RESERVATION_TIMEZONE":         "Asia/Tokyo",
			"RESERVATION_LOG_LEVEL":        "DEBUG",
			"RESERVATION_LOG_FORMAT":       "text",
			"RESERVATION_RATE_LIMIT_RPM":   "0",
			"RESERVATION_RATE_LIMIT_BURST": "5",
			"RESERVATION_ADMIN_USERNAME":   "root",
			"RESERVATION_ADMIN_PASSWORD":   "bootstrap",
		}))
		if err != nil {
			t.Fatalf("parse returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.DBDriver != "pgx" || cfg.SessionTTL != 2*time.Hour {
			t.Fatalf("unexpected config: %#v", cfg)
		}
		if cfg.Location.String() != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo, got %s", cfg.Location)
		}
		if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected logging config: %s %s", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.RateLimitRPM != 0 || cfg.RateLimitBurst != 5 {
			t.Fatalf("unexpected rate limit config: %d/%d", cfg.RateLimitRPM, cfg.RateLimitBurst)
		}
		if cfg.AdminUsername != "root" || cfg.AdminPassword != "bootstrap" {
			t.Fatalf("unexpected bootstrap admin: %q", cfg.AdminUsername)
		}
	})

	t.Run("bootstrap admin needs both values", func(t *testing.T) {
		t.Parallel()

		_, err := parse(envFrom(map[string]string{
			"RESERVATION_SESSION_SECRET": "secret",
			"RESERVATION_ADMIN_USERNAME": "root",
		}))
		if err == nil || err.Error() != "必須の環境変数が設定されていません: RESERVATION_ADMIN_PASSWORD" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLoadFilesReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "RESERVATION_SESSION_SECRET=from-file\nRESERVATION_HTTP_PORT=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("RESERVATION_HTTP_PORT", "6060")
	t.Setenv("RESERVATION_SESSION_SECRET", "")
	os.Unsetenv("RESERVATION_SESSION_SECRET")

	cfg, err := LoadFiles(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadFiles returned error: %v", err)
	}
	if cfg.SessionSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.SessionSecret)
	}
	if cfg.HTTPPort != 6060 {
		t.Fatalf("expected environment to win over file, got %d", cfg.HTTPPort)
	}
}
