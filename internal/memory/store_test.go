package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/flexonb/mindhack/internal/transcript"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	turns := []TurnRecord{
		{SessionID: "s1", UserID: "u1", Role: transcript.RoleAssistant, Content: "Hey."},
		{SessionID: "s1", UserID: "u1", Role: transcript.RoleUser, Content: "Hi Alex, how are you?"},
		{SessionID: "s2", UserID: "u2", Role: transcript.RoleUser, Content: "other session"},
		{SessionID: "s1", UserID: "u1", Role: transcript.RoleAssistant, Content: "Not great."},
	}
	for _, r := range turns {
		require.NoError(t, s.SaveTurn(ctx, r))
	}

	got, err := s.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []transcript.Turn{
		{Role: transcript.RoleAssistant, Content: "Hey."},
		{Role: transcript.RoleUser, Content: "Hi Alex, how are you?"},
		{Role: transcript.RoleAssistant, Content: "Not great."},
	}, Turns(got))
	for _, r := range got {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())
	}

	empty, err := s.Transcript(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.DeleteSession(ctx, "s1"))
	got, err = s.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Ping(ctx))
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStoreSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 10*time.Minute)
	defer s.Close()

	require.NoError(t, s.SaveTurn(context.Background(), TurnRecord{SessionID: "s1", Role: transcript.RoleUser, Content: "hi"}))
	assert.Equal(t, 10*time.Minute, mr.TTL(transcriptKey("s1")))

	mr.FastForward(11 * time.Minute)
	got, err := s.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedactingStoreMasksContent(t *testing.T) {
	inner := NewInMemoryStore()
	core, logs := observer.New(zap.InfoLevel)
	s := NewRedactingStore(inner, zap.New(core))
	ctx := context.Background()

	require.NoError(t, s.SaveTurn(ctx, TurnRecord{SessionID: "s1", Role: transcript.RoleUser, Content: "mail me at sam@example.com"}))
	require.NoError(t, s.SaveTurn(ctx, TurnRecord{SessionID: "s1", Role: transcript.RoleUser, Content: "no pii here"}))

	got, err := s.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mail me at [REDACTED_EMAIL]", got[0].Content)
	assert.True(t, got[0].PIIRedacted)
	assert.Equal(t, "no pii here", got[1].Content)
	assert.False(t, got[1].PIIRedacted)

	entries := logs.FilterMessage("redacted pii from transcript turn").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"email"}, entries[0].ContextMap()["kinds"])
	assert.NotContains(t, entries[0].ContextMap(), "content")
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	s, backend, err := NewStore(context.Background(), Config{})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "memory", backend)
	assert.IsType(t, &InMemoryStore{}, s)
}

func TestNewStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, backend, err := NewStore(context.Background(), Config{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "redis", backend)
}
