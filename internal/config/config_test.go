package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ScreenshotDir != "static/screenshots" {
		t.Errorf("ScreenshotDir = %q", cfg.ScreenshotDir)
	}
	if cfg.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout = %v, want 30s", cfg.NavTimeout)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.SynthSeed != 0 {
		t.Errorf("SynthSeed = %d, want 0", cfg.SynthSeed)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HEADLESS", "false")
	t.Setenv("NAV_TIMEOUT", "45s")
	t.Setenv("SYNTH_SEED", "1234")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Headless {
		t.Error("Headless should be overridden to false")
	}
	if cfg.NavTimeout != 45*time.Second {
		t.Errorf("NavTimeout = %v, want 45s", cfg.NavTimeout)
	}
	if cfg.SynthSeed != 1234 {
		t.Errorf("SynthSeed = %d, want 1234", cfg.SynthSeed)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, want 2.5", cfg.RateLimitRPS)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != want[0] || cfg.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("NAV_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("HEADLESS", "maybe")

	cfg := Load()

	if cfg.NavTimeout != 30*time.Second {
		t.Errorf("malformed NAV_TIMEOUT should fall back to default, got %v", cfg.NavTimeout)
	}
	if cfg.RateLimitBurst != 10 {
		t.Errorf("malformed RATE_LIMIT_BURST should fall back to default, got %d", cfg.RateLimitBurst)
	}
	if !cfg.Headless {
		t.Error("malformed HEADLESS should fall back to default true")
	}
}
