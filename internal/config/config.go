package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the evaluation service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	LogLevel  string
	LogFormat string

	LLMProvider       string
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMMaxRetries     int
	LLMRetryBaseDelay time.Duration
	LLMRetryMaxDelay  time.Duration
	LLMRequestTimeout time.Duration

	EvaluatorMode string
	CatalogPath   string

	DatabaseURL   string
	RedisURL      string
	TranscriptTTL time.Duration
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding values already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "mindhack"),
		AllowAnyOrigin:           false,
		LogLevel:                 envOrDefault("APP_LOG_LEVEL", "info"),
		LogFormat:                envOrDefault("APP_LOG_FORMAT", "json"),
		LLMProvider:              strings.ToLower(envOrDefault("LLM_PROVIDER", "auto")),
		LLMAPIKey:                stringsTrimSpace("LLM_API_KEY"),
		LLMBaseURL:               stringsTrimSpace("LLM_BASE_URL"),
		LLMModel:                 stringsTrimSpace("LLM_MODEL"),
		LLMMaxRetries:            2,
		LLMRetryBaseDelay:        time.Second,
		LLMRetryMaxDelay:         30 * time.Second,
		LLMRequestTimeout:        20 * time.Second,
		EvaluatorMode:            strings.ToLower(envOrDefault("EVALUATOR_MODE", "model")),
		CatalogPath:              stringsTrimSpace("CATALOG_PATH"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		RedisURL:                 stringsTrimSpace("REDIS_URL"),
		TranscriptTTL:            24 * time.Hour,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxRetries, err = intFromEnv("LLM_MAX_RETRIES", cfg.LLMMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMRetryBaseDelay, err = durationFromEnv("LLM_RETRY_BASE_DELAY", cfg.LLMRetryBaseDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMRetryMaxDelay, err = durationFromEnv("LLM_RETRY_MAX_DELAY", cfg.LLMRetryMaxDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMRequestTimeout, err = durationFromEnv("LLM_REQUEST_TIMEOUT", cfg.LLMRequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptTTL, err = durationFromEnv("TRANSCRIPT_TTL", cfg.TranscriptTTL)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.LLMMaxRetries < 0 {
		return Config{}, fmt.Errorf("LLM_MAX_RETRIES must be >= 0")
	}
	if cfg.LLMRetryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("LLM_RETRY_BASE_DELAY must be positive")
	}
	if cfg.LLMRetryMaxDelay < cfg.LLMRetryBaseDelay {
		return Config{}, fmt.Errorf("LLM_RETRY_MAX_DELAY must be >= LLM_RETRY_BASE_DELAY")
	}
	if cfg.LLMRequestTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_REQUEST_TIMEOUT must be positive")
	}
	switch cfg.LLMProvider {
	case "auto", "openai", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER must be one of auto|openai|gemini|mock")
	}
	switch cfg.EvaluatorMode {
	case "heuristic", "model":
	default:
		return Config{}, fmt.Errorf("EVALUATOR_MODE must be heuristic or model")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("APP_LOG_FORMAT must be json or console")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
