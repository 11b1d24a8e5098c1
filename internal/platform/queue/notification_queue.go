package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue is empty")

// NotificationQueue is a Redis list of pending token deliveries. Producers
// LPUSH, the worker BRPOPs, so delivery is FIFO.
type NotificationQueue struct {
	rdb  *redis.Client
	name string
}

func NewNotificationQueue(rdb *redis.Client, name string) *NotificationQueue {
	return &NotificationQueue{rdb: rdb, name: name}
}

func (q *NotificationQueue) Name() string {
	return q.name
}

// Send enqueues n for delivery.
func (q *NotificationQueue) Send(ctx context.Context, n model.Notification) error {
	const op = "queue.NotificationQueue.Send"

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Pop blocks up to timeout for the next notification.
func (q *NotificationQueue) Pop(ctx context.Context, timeout time.Duration) (model.Notification, error) {
	const op = "queue.NotificationQueue.Pop"

	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Notification{}, ErrQueueEmpty
		}
		return model.Notification{}, fmt.Errorf("%s: %w", op, err)
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return model.Notification{}, ErrQueueEmpty
	}

	var n model.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return model.Notification{}, fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	return n, nil
}

// Requeue puts n at the back of the queue with its attempt count bumped.
func (q *NotificationQueue) Requeue(ctx context.Context, n model.Notification) error {
	const op = "queue.NotificationQueue.Requeue"

	n.Attempt++
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
