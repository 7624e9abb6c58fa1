// Package timeouts centralizes the deadlines handlers attach to database
// and identity-provider calls.
//
// Rough guide:
//   - Ping: connectivity probes (health endpoint)
//   - Short: single-document reads and session lookups
//   - Medium: mirror-backed mutations and OAuth token exchange
//   - Long: deletes that cascade across collections
//   - Batch: bulk cleanup and CSV export
package timeouts

import (
	"os"
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

var (
	mu sync.RWMutex

	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	batch  = DefaultBatch
)

// Ping returns the deadline for connectivity probes.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the deadline for single-document reads.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the deadline for mutations and token exchanges.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the deadline for cascading deletes.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Batch returns the deadline for bulk cleanup and exports.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// ConfigureFromEnv overrides deadlines from SQUADADMIN_TIMEOUT_* environment
// variables (Go duration syntax, e.g. "2s", "500ms"). Unset or invalid values
// keep the defaults. Called once during startup.
func ConfigureFromEnv() {
	mu.Lock()
	defer mu.Unlock()

	set := func(name string, dst *time.Duration) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}

	set("SQUADADMIN_TIMEOUT_PING", &ping)
	set("SQUADADMIN_TIMEOUT_SHORT", &short)
	set("SQUADADMIN_TIMEOUT_MEDIUM", &medium)
	set("SQUADADMIN_TIMEOUT_LONG", &long)
	set("SQUADADMIN_TIMEOUT_BATCH", &batch)
}
