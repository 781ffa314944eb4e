package memory

import (
	"context"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL   string
	RedisURL      string
	TranscriptTTL time.Duration
}

// NewStore picks postgres when a database URL is set, then redis, and falls
// back to the in-memory store.
func NewStore(ctx context.Context, cfg Config) (Store, string, error) {
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "postgres", err
		}
		return s, "postgres", nil
	case strings.TrimSpace(cfg.RedisURL) != "":
		s, err := NewRedisStore(ctx, cfg.RedisURL, cfg.TranscriptTTL)
		if err != nil {
			return nil, "redis", err
		}
		return s, "redis", nil
	default:
		return NewInMemoryStore(), "memory", nil
	}
}
