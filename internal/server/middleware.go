package server

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type writeRateLimitBucket struct {
	windowStart time.Time
	count       int
	lastSeenAt  time.Time
}

// writeRateLimiter throttles mutating requests per client IP over a fixed
// window. A nil limiter is a passthrough.
type writeRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]writeRateLimitBucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

func newWriteRateLimiter(limit int, window time.Duration) *writeRateLimiter {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &writeRateLimiter{
		buckets: make(map[string]writeRateLimitBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *writeRateLimiter) limitByIP(scope string) func(http.Handler) http.Handler {
	scope = strings.TrimSpace(scope)
	if l == nil || scope == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + normalizedClientIP(r)
			if allowed, retryAfter := l.allow(key); !allowed {
				if retryAfter > 0 {
					seconds := int(math.Ceil(retryAfter.Seconds()))
					if seconds < 1 {
						seconds = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				writeErrorJSON(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *writeRateLimiter) allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupLocked(now)

	bucket := l.buckets[key]
	if bucket.windowStart.IsZero() || now.Sub(bucket.windowStart) >= l.window {
		l.buckets[key] = writeRateLimitBucket{
			windowStart: now,
			count:       1,
			lastSeenAt:  now,
		}
		return true, 0
	}

	bucket.lastSeenAt = now
	if bucket.count >= l.limit {
		l.buckets[key] = bucket
		retryAfter := l.window - now.Sub(bucket.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	bucket.count++
	l.buckets[key] = bucket
	return true, 0
}

func (l *writeRateLimiter) cleanupLocked(now time.Time) {
	if len(l.buckets) == 0 {
		return
	}
	staleAfter := l.window * 2
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	for key, bucket := range l.buckets {
		if now.Sub(bucket.lastSeenAt) >= staleAfter {
			delete(l.buckets, key)
		}
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request through slog with its final status and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.LogAttrs(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func normalizedClientIP(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	value := strings.TrimSpace(r.RemoteAddr)
	if value == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(value); err == nil {
		return addr.Addr().String()
	}
	if host, _, err := net.SplitHostPort(value); err == nil && strings.TrimSpace(host) != "" {
		return strings.TrimSpace(strings.Trim(host, "[]"))
	}
	value = strings.Trim(value, "[]")
	if addr, err := netip.ParseAddr(value); err == nil {
		return addr.String()
	}
	return value
}
