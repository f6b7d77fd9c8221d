package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set member per accepted request, scored by
// its timestamp in milliseconds. It returns {allowed, remaining, reset_at_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local current = redis.call('ZCARD', key)

if current < limit then
	local seq = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. ':' .. seq)
	local ttl = math.ceil(window_ms / 1000)
	redis.call('EXPIRE', key, ttl)
	redis.call('EXPIRE', key .. ':seq', ttl)
	return {1, limit - current - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = 0
if oldest and #oldest >= 2 then
	reset_at = tonumber(oldest[2]) + window_ms
end
return {0, 0, reset_at}
`)

// RedisLimiter enforces limit requests per window using Redis sorted sets.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Scripter, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

// Allow runs the sliding-window script atomically on the server.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	windowMs := l.window.Milliseconds()

	res, err := slidingWindow.Run(ctx, l.client, []string{l.keyPrefix + key},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		windowMs,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit response length: %d", len(res))
	}

	resetAt := now.Add(l.window)
	if res[2] > 0 {
		resetAt = time.UnixMilli(res[2])
	}
	return Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		Limit:     l.limit,
		ResetAt:   resetAt,
	}, nil
}
