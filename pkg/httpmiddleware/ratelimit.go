package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables the
	// limiter.
	Max    int
	Window time.Duration
	// KeyFunc extracts the client key; the client IP by default.
	KeyFunc func(*http.Request) string
	// Skip exempts requests such as health probes.
	Skip func(*http.Request) bool
}

// window counts requests of one key over the previous and current window.
type window struct {
	prev, curr float64
	start      time.Time
}

type rateLimiter struct {
	cfg  RateLimitConfig
	mu   sync.Mutex
	keys map[string]*window
}

// allow records a request for key at now. The previous window counts in
// proportion to how much of it still overlaps the sliding window.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, found := rl.keys[key]
	if !found {
		w = &window{start: now.Truncate(rl.cfg.Window)}
		rl.keys[key] = w
	}
	if elapsed := now.Sub(w.start); elapsed >= rl.cfg.Window {
		if elapsed >= 2*rl.cfg.Window {
			w.prev = 0
		} else {
			w.prev = w.curr
		}
		w.curr = 0
		w.start = now.Truncate(rl.cfg.Window)
	}

	overlap := max(0, 1-now.Sub(w.start).Seconds()/rl.cfg.Window.Seconds())
	count := w.prev*overlap + w.curr
	reset = w.start.Add(rl.cfg.Window)
	if count >= float64(rl.cfg.Max) {
		return 0, reset, false
	}
	w.curr++
	return max(0, int(float64(rl.cfg.Max)-count-1)), reset, true
}

// sweep drops keys idle for two windows.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, w := range rl.keys {
		if now.Sub(w.start) >= 2*rl.cfg.Window {
			delete(rl.keys, k)
		}
	}
}

// RateLimit enforces a per-client sliding window limit. Rejected requests
// get 429 with Retry-After; every limited response carries the
// X-RateLimit-* headers. Idle keys are swept until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	rl := &rateLimiter{cfg: cfg, keys: make(map[string]*window)}

	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.sweep(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			remaining, reset, ok := rl.allow(cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(0, time.Until(reset))
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For address, X-Real-IP, or the
// host of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
