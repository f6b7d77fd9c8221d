// Package ratelimit counts requests per key over a sliding window. Redis
// backs the counters when configured so limits hold across instances;
// otherwise a per-process token bucket is used.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RetryAfter is how long a rejected caller should wait, at least one second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now).Round(time.Second)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
