package ratelimit

import (
	"sync"
	"time"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
)

const (
	// DefaultWindow is the fixed window duration.
	DefaultWindow = 60 * time.Second

	// DefaultMaxRequests is the per-key allowance within one window.
	DefaultMaxRequests = 10
)

// window tracks one client's usage inside the current fixed window.
type window struct {
	start time.Time
	count int
}

// FixedWindow is an in-memory per-key fixed-window rate limiter. A key's
// first request opens a window; subsequent requests count against it
// until the window duration elapses, after which the next request opens
// a fresh one. Counters live only in process memory and reset on restart.
type FixedWindow struct {
	mu       sync.Mutex
	windows  map[string]*window
	duration time.Duration
	max      int
	now      func() time.Time
}

// NewFixedWindow builds a limiter from config, falling back to defaults
// for missing or unparseable values.
func NewFixedWindow(cfg *common.RateLimitConfig) *FixedWindow {
	duration := DefaultWindow
	max := DefaultMaxRequests
	if cfg != nil {
		if d, err := time.ParseDuration(cfg.Window); err == nil && d > 0 {
			duration = d
		}
		if cfg.MaxRequests > 0 {
			max = cfg.MaxRequests
		}
	}

	return &FixedWindow{
		windows:  make(map[string]*window),
		duration: duration,
		max:      max,
		now:      time.Now,
	}
}

// Allow reports whether key may proceed and counts the request when it
// may. The check and the increment happen under one lock, so concurrent
// callers cannot push a key past the limit.
func (f *FixedWindow) Allow(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	w, ok := f.windows[key]
	if !ok || now.Sub(w.start) >= f.duration {
		f.windows[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= f.max {
		return false
	}
	w.count++
	return true
}

// Prune drops windows that expired before the current one, bounding the
// map for long-running processes with many distinct clients.
func (f *FixedWindow) Prune() {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for key, w := range f.windows {
		if now.Sub(w.start) >= f.duration {
			delete(f.windows, key)
		}
	}
}

var _ interfaces.RateLimiter = (*FixedWindow)(nil)
