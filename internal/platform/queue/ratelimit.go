package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWindow starts the window's expiry on the first hit only, so repeated
// hits do not extend it. It returns the hit count and the window's remaining
// milliseconds.
var incrWindow = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter is a fixed-window counter shared by every API instance.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit:"}
}

// Allow counts one hit against key and reports whether it is within the
// limit, along with the time left until the key's window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	const op = "queue.RateLimiter.Allow"

	res, err := incrWindow.Run(ctx, l.rdb, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%s: unexpected script reply %v", op, res)
	}
	remaining := time.Duration(res[1]) * time.Millisecond
	if remaining <= 0 {
		remaining = l.window
	}
	return res[0] <= int64(l.limit), remaining, nil
}
