package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://x")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("RATE_LIMIT_PER_MIN", "nope")
	t.Setenv("QUEUE_BACKEND", "Memory")

	cfg, warn := Load()
	if cfg.DatabaseURL != "postgres://x" {
		t.Fatalf("DatabaseURL: got=%q want=postgres://x", cfg.DatabaseURL)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Fatalf("GeminiAPIKey: got=%q want=fallback-key", cfg.GeminiAPIKey)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL: got=%v want=5m", cfg.AccessTTL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin: got=%d want=120", cfg.RateLimitPerMin)
	}
	if cfg.QueueBackend != "memory" {
		t.Fatalf("QueueBackend: got=%q want=memory", cfg.QueueBackend)
	}
	if len(warn) != 1 {
		t.Fatalf("warnings: got=%v want 1", warn)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if got := (App{Timezone: "Not/AZone"}).Location(); got != time.UTC {
		t.Fatalf("got=%v want=UTC", got)
	}
}

func TestSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "3")
	if cfg, _ := Load(); cfg.OtelSampleRatio != 1 {
		t.Fatalf("got=%v want=1", cfg.OtelSampleRatio)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "abc")
	if cfg, warn := Load(); cfg.OtelSampleRatio != 0.1 || len(warn) == 0 {
		t.Fatalf("got=%v warn=%v", cfg.OtelSampleRatio, warn)
	}
}
