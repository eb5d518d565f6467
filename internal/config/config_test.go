package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEGACY_API_URL", "https://legacy.example.com/")
	t.Setenv("API_URL", "https://api.example.com/v2")
	t.Setenv("STORE_DRIVER", "memory")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.UseNewBackend {
		t.Fatalf("expected legacy backend by default")
	}
	if cfg.LegacyAPIURL != "https://legacy.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.LegacyAPIURL)
	}
	if cfg.SessionKey() != "fotofacturas:dev:session" {
		t.Fatalf("unexpected session key %s", cfg.SessionKey())
	}
}

func TestLoadTimeoutAndFlag(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REQUEST_TIMEOUT_MS", "2500")
	t.Setenv("USE_NEW_BACKEND", "true")
	t.Setenv("APP_BUILD", "412")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %s", cfg.RequestTimeout)
	}
	if !cfg.UseNewBackend {
		t.Fatalf("expected new backend")
	}
	if !strings.Contains(cfg.SessionKey(), ":412:") {
		t.Fatalf("session key not namespaced by build: %s", cfg.SessionKey())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"flag":    {"USE_NEW_BACKEND", "maybe"},
		"timeout": {"REQUEST_TIMEOUT_MS", "ten"},
		"driver":  {"STORE_DRIVER", "sqlite"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoadRequiresRedisURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing REDIS_URL error")
	}
}

func TestLoadMock(t *testing.T) {
	t.Setenv("MOCK_PORT", "9090")
	t.Setenv("MOCK_OTP_CODE", "123456")

	cfg, err := LoadMock()
	if err != nil {
		t.Fatalf("load mock: %v", err)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}

	t.Setenv("MOCK_OTP_CODE", "12")
	if _, err := LoadMock(); err == nil {
		t.Fatalf("expected short OTP code to be rejected")
	}
}
