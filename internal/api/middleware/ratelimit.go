package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/metrics"
	"github.com/Daniels4624P/Jules/internal/store"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int64
	Window   time.Duration
}

// RateLimiter implements fixed-window rate limiting backed by Redis. A nil
// Redis store disables limiting, which keeps development setups working.
type RateLimiter struct {
	redis  *store.RedisStore
	limits map[string]RateLimit
	logger zerolog.Logger
}

// NewRateLimiter creates a new rate limiter with the default per-endpoint
// limits.
func NewRateLimiter(redis *store.RedisStore, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redis,
		logger: logger,
		limits: map[string]RateLimit{
			"POST /auth/register": {10, time.Hour},
			"POST /auth/login":    {20, 15 * time.Minute},
			"POST /auth/refresh":  {60, time.Hour},
			"POST /chats":         {30, time.Hour},
			"POST /chats/":        {120, time.Minute}, // message posts
		},
	}
}

// Middleware enforces the configured limits keyed by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		pattern, limit, ok := rl.match(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:" + pattern + ":" + clientIP(r)
		count, err := rl.redis.CountRequest(r.Context(), key, limit.Window)
		if err != nil {
			// Fail open: a Redis hiccup must not take the API down.
			rl.logger.Warn().Err(err).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if count > limit.Requests {
			metrics.RateLimitHits.WithLabelValues(pattern).Inc()
			w.Header().Set("Retry-After", limit.Window.String())
			jsonError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// match finds the most specific configured limit for the request.
func (rl *RateLimiter) match(r *http.Request) (string, RateLimit, bool) {
	exact := r.Method + " " + r.URL.Path
	if limit, ok := rl.limits[exact]; ok {
		return exact, limit, true
	}
	for pattern, limit := range rl.limits {
		method, prefix, found := strings.Cut(pattern, " ")
		if !found || !strings.HasSuffix(prefix, "/") {
			continue
		}
		if r.Method == method && strings.HasPrefix(r.URL.Path, prefix) && r.URL.Path != strings.TrimSuffix(prefix, "/") {
			return pattern, limit, true
		}
	}
	return "", RateLimit{}, false
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from proxy headers
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
