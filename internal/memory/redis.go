package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flexonb/mindhack/internal/transcript"
)

const (
	defaultTranscriptTTL = 24 * time.Hour
	transcriptKeyPrefix  = "mindhack:transcript:"
)

// RedisStore keeps each transcript as a list of JSON turns that expires
// after ttl of inactivity.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	s := NewRedisStoreFromClient(redis.NewClient(opts), ttl)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return s, nil
}

func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTranscriptTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func (s *RedisStore) SaveTurn(ctx context.Context, record TurnRecord) error {
	fillDefaults(&record)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := transcriptKey(record.SessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func (s *RedisStore) Transcript(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	raw, err := s.rdb.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	items := make([]TurnRecord, 0, len(raw))
	for i, entry := range raw {
		var r TurnRecord
		if err := json.Unmarshal([]byte(entry), &r); err != nil {
			return nil, fmt.Errorf("decode turn %d: %w", i, err)
		}
		r.Role = transcriptRole(string(r.Role))
		items = append(items, r)
	}
	return items, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func transcriptRole(v string) transcript.Role {
	if transcript.Role(v) == transcript.RoleAssistant {
		return transcript.RoleAssistant
	}
	return transcript.RoleUser
}
