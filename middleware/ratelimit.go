// ABOUTME: Fixed-window rate limiting for the BFF routes
// ABOUTME: Credential routes are keyed by client IP, everything else by session user then IP

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	rateLimitedMessage = "Terlalu banyak permintaan, coba lagi nanti"
	minSweepThreshold  = 1024
)

type bucket struct {
	hits    int
	resetAt time.Time
}

// RateLimiter allows limit hits per key in each window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	sweepAt int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		sweepAt: minSweepThreshold,
	}
}

// Allow records a hit for key. When the key is over its limit it returns
// false and the time left until its window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.buckets[key]
	if b == nil || !now.Before(b.resetAt) {
		rl.buckets[key] = &bucket{hits: 1, resetAt: now.Add(rl.window)}
		if len(rl.buckets) >= rl.sweepAt {
			rl.sweep(now)
			rl.sweepAt = max(minSweepThreshold, 2*len(rl.buckets))
		}
		return true, 0
	}

	if b.hits >= rl.limit {
		return false, b.resetAt.Sub(now)
	}
	b.hits++
	return true, 0
}

// sweep drops buckets whose window has passed. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
}

// ClientIP keys by the leftmost X-Forwarded-For address when it parses as
// an IP, otherwise by the connection's remote host. The forwarded header is
// only trustworthy behind a proxy that overwrites it.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return "ip:" + ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// UserOrIP keys by the signed-in user, falling back to ClientIP.
func UserOrIP(r *http.Request) string {
	if user := GetCurrentUser(r); user != nil && user.ID != 0 {
		return "user:" + strconv.FormatInt(user.ID, 10)
	}
	return ClientIP(r)
}

// RateLimit answers 429 with Retry-After once keyFunc's key is over the
// limit. A nil limiter disables it, and an empty key is never limited.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || keyFunc == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next(w, r)
				return
			}

			ok, wait := limiter.Allow(key)
			if ok {
				next(w, r)
				return
			}

			seconds := int(math.Ceil(wait.Seconds()))
			slog.Warn("Rate limit exceeded", "key", key, "path", sanitizePath(r.URL.Path), "retry_after", seconds)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"status":      "error",
				"message":     rateLimitedMessage,
				"retry_after": seconds,
			})
		}
	}
}
