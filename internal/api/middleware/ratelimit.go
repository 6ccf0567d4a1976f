package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/response"
)

const (
	defaultRequestsPerMinute = 60
	rateLimitWindow          = time.Minute
)

type window struct {
	start time.Time
	count int
}

// RateLimit applies fixed-window rate limiting, counted in memory. The
// bucket key is the authenticated API key's label, or the client address
// when auth is not in front of it.
type RateLimit struct {
	requestsPerMin int

	mu      sync.Mutex
	windows map[string]*window
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{
		requestsPerMin: requestsPerMin,
		windows:        make(map[string]*window),
	}
}

// Limit counts the request against its bucket and rejects it with 429 once
// the per-minute cap is exceeded.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket, ok := GetKeyLabel(r)
		if !ok {
			bucket = clientAddr(r)
		}

		count, reset := rl.take(bucket)

		remaining := rl.requestsPerMin - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > rl.requestsPerMin {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(reset)/time.Second)+1))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take increments the bucket's counter, rolling the window over when it has
// lapsed, and returns the new count plus when the window resets.
func (rl *RateLimit) take(bucket string) (int, time.Time) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[bucket]
	if !ok || now.Sub(win.start) >= rateLimitWindow {
		win = &window{start: now}
		rl.windows[bucket] = win
		rl.pruneLocked(now)
	}
	win.count++
	return win.count, win.start.Add(rateLimitWindow)
}

// pruneLocked drops lapsed windows so idle buckets do not accumulate.
// Callers hold rl.mu.
func (rl *RateLimit) pruneLocked(now time.Time) {
	for key, win := range rl.windows {
		if now.Sub(win.start) >= rateLimitWindow {
			delete(rl.windows, key)
		}
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
