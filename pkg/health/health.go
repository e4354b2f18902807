// Package health serves liveness and readiness probes.
//
// Every check runs periodically in its own goroutine. A check flips to
// unhealthy only after FailureThreshold consecutive failures and back to
// healthy after SuccessThreshold consecutive successes, so a single slow
// dependency call does not flap the probe.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Thresholds of consecutive results needed to change a check's state.
const (
	FailureThreshold = 3
	SuccessThreshold = 1
)

type probe int

const (
	liveness probe = iota
	readiness
)

// check is one registered CheckFunc. fails and oks are touched only by the
// check's own goroutine; healthy and lastErr are read by HTTP handlers.
type check struct {
	name    string
	probe   probe
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails, oks int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)
	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= FailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= SuccessThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() string {
	if c.healthy.Load() {
		return ""
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error()
	}
	return "check is unhealthy"
}

// Health holds the checks of one service. It starts not ready.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New creates an empty Health.
func New() *Health {
	return &Health{}
}

func (h *Health) add(p probe, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, probe: p, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(liveness, name, timeout, fn)
}

// AddReadinessCheck registers a check that decides whether the service
// should receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(readiness, name, timeout, fn)
}

// Start runs every check now and then every interval until Stop or until
// ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append([]*check(nil), h.checks...)
	h.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}()
	}
}

// Stop cancels the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service ready after start-up or not ready while
// draining on shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(readiness)) == 0
}

func (h *Health) failures(p probe) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]string)
	for _, c := range h.checks {
		if c.probe != p {
			continue
		}
		if msg := c.failure(); msg != "" {
			out[c.name] = msg
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(liveness))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} with 200, or
// {"status":"unhealthy","checks":{...}} with 503.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	status, text := http.StatusOK, "ok"
	if len(failures) > 0 {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(text) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failures[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
