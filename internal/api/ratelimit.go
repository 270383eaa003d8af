// Per-client request limiter for endpoints that hit the database.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter allows maxRate requests per window for each client address.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxRate int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a limiter. Stale buckets are dropped lazily.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		maxRate: maxRate,
		window:  window,
		now:     time.Now,
	}
}

// Allow spends one token for the client, reporting false when none are left.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.buckets) > 1024 {
		rl.cleanup(now)
	}

	b, ok := rl.buckets[client]
	if !ok || now.Sub(b.lastReset) >= rl.window {
		rl.buckets[client] = &bucket{tokens: rl.maxRate - 1, lastReset: now}
		return true
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// RetryAfter returns the seconds until the client's window resets.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[client]
	if !ok {
		return 0
	}
	remaining := rl.window - rl.now().Sub(b.lastReset)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

func (rl *RateLimiter) cleanup(now time.Time) {
	for c, b := range rl.buckets {
		if now.Sub(b.lastReset) > 2*rl.window {
			delete(rl.buckets, c)
		}
	}
}

// clientAddr returns the first X-Forwarded-For hop, or the remote host.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware answers 429 once the client is over its limit.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
