package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option tunes the PostgreSQL connection pool.
type Option func(*pgxpool.Config)

// WithMaxConns caps open connections.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithMinConns keeps n connections warm.
func WithMinConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n >= 0 {
			c.MinConns = n
		}
	}
}

// WithConnectTimeout bounds dialing.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.ConnConfig.ConnectTimeout = d
		}
	}
}

// MemoryOption configures the in-memory stores.
type MemoryOption func(*clock)

// WithClock replaces time.Now for createdAt stamping.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *clock) {
		if now != nil {
			c.now = now
		}
	}
}

type clock struct {
	now func() time.Time
}

func newClock(opts []MemoryOption) clock {
	c := clock{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
