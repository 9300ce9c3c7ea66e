package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowCounter is the subset of Redis commands the fixed-window limiter needs.
type windowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisRateLimiter allows up to Limit requests per key in each Window, shared
// across every instance pointing at the same Redis.
type RedisRateLimiter struct {
	rdb    windowCounter
	Limit  int64
	Window time.Duration
	Prefix string
	now    func() time.Time
}

// NewRedisRateLimiter builds a fixed-window limiter. limit <= 0 becomes 1 and
// window <= 0 becomes one second.
func NewRedisRateLimiter(rdb redis.Cmdable, limit int, window time.Duration) *RedisRateLimiter {
	return newRedisRateLimiter(rdb, limit, window)
}

func newRedisRateLimiter(rdb windowCounter, limit int, window time.Duration) *RedisRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisRateLimiter{
		rdb:    rdb,
		Limit:  int64(limit),
		Window: window,
		Prefix: "ratelimit:",
		now:    time.Now,
	}
}

// Allow increments the counter of the current window. The first hit of a
// window sets its expiry.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.Window)
	k := l.Prefix + key + ":" + strconv.FormatInt(slot, 10)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.Window+time.Second).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.Limit, nil
}
