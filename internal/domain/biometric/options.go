package biometric

import (
	"time"

	"github.com/okian/skillup/pkg/logger"
)

// Option configures a Hub.
type Option func(*Hub)

// WithTick sets the simulator period.
func WithTick(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.tick = d
		}
	}
}

// WithHistoryLimit caps the stored sessions per user.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// WithRecentLimit caps the readings kept for insights per user.
func WithRecentLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.recentLimit = n
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber channel size.
func WithSubscriberBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.subBuffer = n
		}
	}
}

// WithRandom replaces the random source. fn must be safe for concurrent use
// and return values in [0,1).
func WithRandom(fn func() float64) Option {
	return func(h *Hub) {
		if fn != nil {
			h.rnd = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(h *Hub) {
		if fn != nil {
			h.now = fn
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}
