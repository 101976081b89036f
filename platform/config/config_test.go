package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eclipse")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("REPORTING_TIMEZONE", "Europe/Paris")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.GetCORSOrigins()) != 2 || cfg.GetCORSOrigins()[1] != "https://app.example.com" {
		t.Fatalf("unexpected CORS origins: %v", cfg.GetCORSOrigins())
	}
	if cfg.GetReportingLocation().String() != "Europe/Paris" {
		t.Fatalf("expected Europe/Paris location, got %s", cfg.GetReportingLocation())
	}
	if cfg.GetKPICacheTTL() != 5*time.Minute {
		t.Fatalf("expected 5m KPI cache TTL, got %s", cfg.GetKPICacheTTL())
	}
	if cfg.IsSMTPEnabled() {
		t.Fatal("expected SMTP to be disabled without SMTP_HOST")
	}
}

func TestLoadManualStatusRole(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eclipse")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("PIPELINE_MANUAL_STATUS_ROLE", "admin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetManualStatusRole() != "admin" {
		t.Fatalf("expected admin role, got %q", cfg.GetManualStatusRole())
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eclipse")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard origins with credentials")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eclipse")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("REPORTING_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
