package contextstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a test Redis store backed by miniredis.
func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, opts...)
	return store, mr
}

func TestRedisStore_CreateAndExists(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	exists, err := store.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.SessionExists(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisStore_AddMessageUnknownSession(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	err := store.AddMessage(ctx, "nonexistent", RoleUser, "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_HistoryRoundTrip(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddMessage(ctx, id, RoleUser, "Como avaliar leitura?"))
	require.NoError(t, store.AddMessage(ctx, id, RoleAssistant, "Use rubricas simples."))

	history, err := store.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)

	formatted, err := store.GetFormattedContext(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Professor: Como avaliar leitura?\nAssistente: Use rubricas simples.", formatted)
}

func TestRedisStore_MessageCapEvictsOldest(t *testing.T) {
	store, _ := setupRedisStore(t, WithRedisMaxMessages(3))
	ctx := context.Background()

	id, _ := store.CreateSession(ctx)
	for i := 1; i <= 7; i++ {
		require.NoError(t, store.AddMessage(ctx, id, RoleUser, fmt.Sprintf("Message %d", i)))
	}

	history, err := store.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Message 5", history[0].Content)
	assert.Equal(t, "Message 7", history[2].Content)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := setupRedisStore(t, WithRedisTTL(time.Minute))
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	exists, err := store.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	history, err := store.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, history)
}

func TestRedisStore_ReadRefreshesTTL(t *testing.T) {
	store, mr := setupRedisStore(t, WithRedisTTL(time.Minute))
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	mr.FastForward(40 * time.Second)
	_, err = store.GetHistory(ctx, id)
	require.NoError(t, err)

	// 70s after creation but only 30s after the read: still alive.
	mr.FastForward(30 * time.Second)
	exists, err := store.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisStore_DeleteSession(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	id, _ := store.CreateSession(ctx)
	require.NoError(t, store.DeleteSession(ctx, id))

	exists, err := store.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisStore_CleanupIsNoOp(t *testing.T) {
	store, _ := setupRedisStore(t)

	removed, err := store.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
