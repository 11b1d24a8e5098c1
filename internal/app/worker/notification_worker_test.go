package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/mailer"
	"github.com/Ali-LB/dbcc/internal/platform/queue"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failures int
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func newTestQueue(t *testing.T) *queue.NotificationQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return queue.NewNotificationQueue(rdb, "notifications_test")
}

func TestHandle_ConfirmationLink(t *testing.T) {
	q := newTestQueue(t)
	m := &recordingMailer{}
	w := NewNotificationWorker(sl.Discard(), q, m, "https://club.example.com/", 3)

	w.handle(context.Background(), model.Notification{
		UserID: "u1", Email: "member@example.com", FirstName: "Ada",
		Kind: model.TokenKindEmailConfirmation, Token: "abc123",
	})

	sent := m.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "member@example.com", sent[0].To)
	assert.Equal(t, "https://club.example.com/auth/confirm?token=abc123", sent[0].Link)
	assert.Contains(t, sent[0].Body, "Hello Ada")
}

func TestHandle_ResetLink(t *testing.T) {
	q := newTestQueue(t)
	m := &recordingMailer{}
	w := NewNotificationWorker(sl.Discard(), q, m, "http://localhost:3000", 3)

	w.handle(context.Background(), model.Notification{
		UserID: "u1", Email: "member@example.com", Kind: model.TokenKindPasswordReset, Token: "tok",
	})

	sent := m.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "http://localhost:3000/auth/reset?token=tok", sent[0].Link)
}

func TestHandle_RequeuesUntilMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	m := &recordingMailer{failures: 10}
	w := NewNotificationWorker(sl.Discard(), q, m, "http://localhost:3000", 2)
	ctx := context.Background()

	w.handle(ctx, model.Notification{UserID: "u1", Email: "a@example.com", Kind: model.TokenKindPasswordReset, Token: "t"})

	n, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Attempt)

	w.handle(ctx, n)
	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, size, "notification should be dropped after the last attempt")
	assert.Empty(t, m.messages())
}

func TestHandle_DropsMalformed(t *testing.T) {
	q := newTestQueue(t)
	m := &recordingMailer{}
	w := NewNotificationWorker(sl.Discard(), q, m, "http://localhost:3000", 3)

	w.handle(context.Background(), model.Notification{UserID: "u1", Kind: "SMOKE_SIGNAL", Email: "a@example.com", Token: "t"})
	w.handle(context.Background(), model.Notification{UserID: "u1", Kind: model.TokenKindPasswordReset})

	assert.Empty(t, m.messages())
	size, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStart_DeliversQueuedNotifications(t *testing.T) {
	q := newTestQueue(t)
	m := &recordingMailer{}
	w := NewNotificationWorker(sl.Discard(), q, m, "http://localhost:3000", 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, q.Send(context.Background(), model.Notification{
		UserID: "u1", Email: "a@example.com", Kind: model.TokenKindEmailConfirmation, Token: "t1",
	}))

	require.Eventually(t, func() bool { return len(m.messages()) == 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(popTimeout + 2*time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
