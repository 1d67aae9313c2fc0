package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	cfg := LoadConfig()

	if cfg.Server.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Layout.MaxButtonsPerLine != 8 {
		t.Fatalf("MaxButtonsPerLine = %d, want 8", cfg.Layout.MaxButtonsPerLine)
	}
	if cfg.Cache.ConfigTTL != time.Hour {
		t.Fatalf("ConfigTTL = %v, want 1h", cfg.Cache.ConfigTTL)
	}
	if cfg.Runtime.Timeout != 10*time.Second {
		t.Fatalf("Runtime timeout = %v, want 10s", cfg.Runtime.Timeout)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://shop.example/")
	t.Setenv("LAYOUT_MAX_BUTTONS_PER_LINE", "4")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()
	if cfg.Server.PublicURL != "https://shop.example" {
		t.Fatalf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if cfg.Layout.MaxButtonsPerLine != 4 {
		t.Fatalf("MaxButtonsPerLine = %d, want 4", cfg.Layout.MaxButtonsPerLine)
	}
	if cfg.JWT.TTL != 15*time.Minute {
		t.Fatalf("JWT TTL = %v", cfg.JWT.TTL)
	}
	if cfg.Redis.DB != 0 {
		t.Fatalf("invalid int should fall back, got %d", cfg.Redis.DB)
	}
}
