package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 需要真实Redis：LIBRARY_REDIS_ADDR=localhost:6379 go test ./internal/infrastructure/persistence/redis/...
func newTestStore(t *testing.T) *SessionStore {
	addr := os.Getenv("LIBRARY_REDIS_ADDR")
	if addr == "" {
		t.Skip("LIBRARY_REDIS_ADDR未设置，跳过Redis集成测试")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewSessionStore(client)
}

func TestSessionStore_Blacklist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	token := "token-" + t.Name()

	ok, err := store.IsInBlacklist(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddToBlacklist(ctx, token, time.Minute))
	ok, err = store.IsInBlacklist(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.AddToBlacklist(ctx, "expired-"+token, 0), "已过期的token无需加入黑名单")
	ok, err = store.IsInBlacklist(ctx, "expired-"+token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Session(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, 42, map[string]any{"email": "a@b.com"}, time.Minute))
	data, err := store.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", data["email"])

	require.NoError(t, store.DeleteSession(ctx, 42))
	_, err = store.GetSession(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "library:session:7", sessionKey(7))
}
