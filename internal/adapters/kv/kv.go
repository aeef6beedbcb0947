// Package kv implements the per-user preference store: an in-memory map for
// single-process runs and Redis for shared deployments.
package kv

import (
	"time"

	"github.com/okian/skillup/pkg/metrics"
)

const storeLabel = "prefs"

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(storeLabel, op, float64(time.Since(start).Microseconds())/1000)
}
