package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("COLLECTOR_DATABASE_DSN", "postgres://collector:pw@localhost:5432/collector")
	t.Setenv("STORAGE_SERVICE_URL", "https://storage.example.com")
	t.Setenv("EMAIL_ENABLED", "false")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://api.eloverblik.dk/customerapi" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.RetryCooldown() != 60*time.Second {
		t.Fatalf("unexpected cooldown %v", cfg.RetryCooldown())
	}
	if cfg.HTTPTimeout() != 60*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout())
	}
	if cfg.Storage.DataRoot != "data" {
		t.Fatalf("unexpected data root %q", cfg.Storage.DataRoot)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ELOVERBLIK_HTTP_TIMEOUT", "10")
	t.Setenv("COLLECTOR_RETRY_COOLDOWN", "5")
	t.Setenv("COLLECTOR_DATA_ROOT", "/var/lib/collector")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPTimeout() != 10*time.Second {
		t.Fatalf("timeout override ignored: %v", cfg.HTTPTimeout())
	}
	if cfg.RetryCooldown() != 5*time.Second {
		t.Fatalf("cooldown override ignored: %v", cfg.RetryCooldown())
	}
	if cfg.Storage.DataRoot != "/var/lib/collector" {
		t.Fatalf("data root override ignored: %q", cfg.Storage.DataRoot)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COLLECTOR_DATABASE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}

func TestLoadRequiresEmailAddresses(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("FROM_EMAIL", "")
	t.Setenv("TO_EMAIL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when email is enabled without addresses")
	}
}
