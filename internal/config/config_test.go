package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/wardchart")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("expected default request timeout 15s, got %v", cfg.RequestTimeout())
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when AUTH_ISSUER is empty outside development")
	}

	cfg.AuthIssuer = "https://auth.example.org/realms/clinic"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DevelopmentAllowsNoIssuer(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error in development mode: %v", err)
	}
}

func TestRequestTimeout_Override(t *testing.T) {
	cfg := &Config{RequestTimeoutSeconds: 30}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.RequestTimeout())
	}

	cfg = &Config{RequestTimeoutSeconds: 0}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("expected fallback 15s, got %v", cfg.RequestTimeout())
	}
}
