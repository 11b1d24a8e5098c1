package queue

import (
	"context"
	"testing"
	"time"

	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNotificationQueue_FIFO(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications_test")
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, model.Notification{UserID: "u1", Kind: model.TokenKindEmailConfirmation, Token: "t1"}))
	require.NoError(t, q.Send(ctx, model.Notification{UserID: "u2", Kind: model.TokenKindPasswordReset, Token: "t2"}))

	n, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "u1", n.UserID)
	assert.False(t, n.CreatedAt.IsZero())

	n, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "u2", n.UserID)
	assert.Equal(t, model.TokenKindPasswordReset, n.Kind)
}

func TestNotificationQueue_PopEmpty(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications_test")

	_, err := q.Pop(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestNotificationQueue_RequeueBumpsAttempt(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications_test")
	ctx := context.Background()

	require.NoError(t, q.Requeue(ctx, model.Notification{UserID: "u1", Attempt: 1}))

	n, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, n.Attempt)

	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestNotificationQueue_SendFailsWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications_test")
	mr.Close()

	assert.Error(t, q.Send(context.Background(), model.Notification{UserID: "u1"}))
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "forgot:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should pass", i+1)
	}
	ok, _, err := l.Allow(ctx, "forgot:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	other, _, err := l.Allow(ctx, "forgot:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = l.Allow(ctx, "forgot:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_ReportsRemainingWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, 1, 15*time.Minute)
	ctx := context.Background()

	_, remaining, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, remaining)

	mr.FastForward(10 * time.Minute)
	ok, remaining, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, remaining)
}
