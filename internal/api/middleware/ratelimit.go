package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/ratelimit"
	"github.com/phrazzld/taskflow-api/internal/redact"
)

// RateLimit rejects clients that exceed limiter with 429 and a Retry-After
// header. Clients are keyed by remote IP; run chi's RealIP first when behind
// a proxy. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	base = base.With(slog.String("component", "rate_limit"))
	now := time.Now

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContextOrDefault(r.Context(), base)
			key := clientIP(r)

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", slog.String("error", redact.Error(err)))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := res.RetryAfter(now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
