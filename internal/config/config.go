package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	ModelDir string

	APIToken       string
	MaxUploadBytes int64

	APIRateLimitRPS       int
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int
	CORSAllowedOrigins    []string

	NATSURL             string
	NATSClassifySubject string
	NATSResultSubject   string
	NATSQueueGroup      string

	WorkerMetricsPort      string
	ClassifyTimeoutSeconds int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		ModelDir: mustEnv("MODEL_DIR", "./model"),

		APIToken:       mustEnv("API_TOKEN", "stub_token_12345"),
		MaxUploadBytes: mustEnvInt64("MAX_UPLOAD_BYTES", 16<<20),

		APIRateLimitRPS:       mustEnvInt("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
		CORSAllowedOrigins:    mustEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		NATSURL:             mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSClassifySubject: mustEnv("NATS_CLASSIFY_SUBJECT", "documents.classify"),
		NATSResultSubject:   mustEnv("NATS_RESULT_SUBJECT", "documents.classified"),
		NATSQueueGroup:      mustEnv("NATS_QUEUE_GROUP", "classifiers"),

		WorkerMetricsPort:      mustEnv("WORKER_METRICS_PORT", "9090"),
		ClassifyTimeoutSeconds: mustEnvInt("CLASSIFY_TIMEOUT_SECONDS", 60),
	}
}

func (c Config) ClassifyTimeout() time.Duration {
	if c.ClassifyTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ClassifyTimeoutSeconds) * time.Second
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
