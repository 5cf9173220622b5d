package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MODEL_DIR", "API_TOKEN", "MAX_UPLOAD_BYTES", "CORS_ALLOWED_ORIGINS", "NATS_CLASSIFY_SUBJECT", "NATS_QUEUE_GROUP", "API_RATE_LIMIT_RPS", "CLASSIFY_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ModelDir != "./model" {
		t.Fatalf("expected default model dir ./model, got %q", cfg.ModelDir)
	}
	if cfg.APIToken != "stub_token_12345" {
		t.Fatalf("expected stub token default, got %q", cfg.APIToken)
	}
	if cfg.MaxUploadBytes != 16*1024*1024 {
		t.Fatalf("expected 16MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.NATSClassifySubject != "documents.classify" || cfg.NATSQueueGroup != "classifiers" {
		t.Fatalf("unexpected NATS defaults %q %q", cfg.NATSClassifySubject, cfg.NATSQueueGroup)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled by default, got %d", cfg.APIRateLimitRPS)
	}
	if cfg.ClassifyTimeout() != 60*time.Second {
		t.Fatalf("expected 60s classify timeout, got %s", cfg.ClassifyTimeout())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MODEL_DIR", "/var/lib/docclass")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("API_RATE_LIMIT_RPS", "25")
	t.Setenv("CLASSIFY_TIMEOUT_SECONDS", "5")

	cfg := Load()
	if cfg.ModelDir != "/var/lib/docclass" {
		t.Fatalf("expected model dir override, got %q", cfg.ModelDir)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected upload limit 1024, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIRateLimitRPS != 25 {
		t.Fatalf("expected rate limit 25, got %d", cfg.APIRateLimitRPS)
	}
	if cfg.ClassifyTimeout() != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.ClassifyTimeout())
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("API_MAX_IN_FLIGHT", "many")

	cfg := Load()
	if cfg.MaxUploadBytes != 16<<20 || cfg.APIMaxInFlight != 64 {
		t.Fatalf("malformed values should fall back, got %d %d", cfg.MaxUploadBytes, cfg.APIMaxInFlight)
	}
}
