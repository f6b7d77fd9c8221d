package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxIdleVisitors bounds the visitor map before idle entries are pruned.
const maxIdleVisitors = 10000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter gives each key a token bucket refilled at limit per window.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= maxIdleVisitors {
			l.prune(now)
		}
		every := l.window / time.Duration(max(l.limit, 1))
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), l.limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)
	res := Result{
		Allowed:   allowed,
		Remaining: max(int(tokens), 0),
		Limit:     l.limit,
		ResetAt:   now.Add(l.window),
	}
	if !allowed {
		// Time until one full token is available again.
		wait := time.Duration((1 - tokens) / float64(v.limiter.Limit()) * float64(time.Second))
		res.ResetAt = now.Add(wait)
	}
	return res, nil
}

func (l *MemoryLimiter) prune(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.window {
			delete(l.visitors, k)
		}
	}
}
