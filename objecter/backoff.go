// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"sync"
	"time"
)

// BackoffKey identifies the scope an OSD asked the client to back off
// from: a specific placement group on a specific pool (spec §4.6
// "Backoff: server 'please back off' honored with bounded sleep").
type BackoffKey struct {
	Pool int64
	PG   uint32
}

// BackoffConfig bounds how long a single backoff request is honored,
// adapting the teacher's benchlist.Config shape (networking/benchlist)
// to a single-duration policy instead of a failure-threshold one: a
// backoff reply is an explicit, trusted server signal, not inferred
// from failures.
type BackoffConfig struct {
	// MinDuration is applied when the server's reply carries no
	// explicit duration.
	MinDuration time.Duration
	// MaxDuration caps how long any single backoff is honored,
	// regardless of what the server asked for.
	MaxDuration time.Duration
}

// DefaultBackoffConfig matches Ceph's osd_backoff defaults: a short
// floor and a one-second ceiling, enough to avoid hammering an OSD
// that is still peering without stalling the client for long.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MinDuration: 10 * time.Millisecond,
		MaxDuration: time.Second,
	}
}

// BackoffTracker remembers which placement groups are currently under
// a server-requested backoff, adapted from the teacher's
// benchlist.manager (networking/benchlist/manager.go) with per-node
// benching replaced by per-PG benching and failure-threshold eviction
// replaced by a single honored-duration window.
type BackoffTracker struct {
	mu      sync.Mutex
	cfg     BackoffConfig
	until   map[BackoffKey]time.Time
}

// NewBackoffTracker returns a tracker applying cfg to every backoff it
// is told about.
func NewBackoffTracker(cfg BackoffConfig) *BackoffTracker {
	return &BackoffTracker{cfg: cfg, until: make(map[BackoffKey]time.Time)}
}

// Mark records that key is backed off for requested, clamped to
// [MinDuration, MaxDuration].
func (t *BackoffTracker) Mark(key BackoffKey, requested time.Duration) {
	d := requested
	if d < t.cfg.MinDuration {
		d = t.cfg.MinDuration
	}
	if d > t.cfg.MaxDuration {
		d = t.cfg.MaxDuration
	}

	t.mu.Lock()
	t.until[key] = time.Now().Add(d)
	t.mu.Unlock()
}

// Until reports the time key's backoff expires, and whether one is
// currently in effect.
func (t *BackoffTracker) Until(key BackoffKey) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, ok := t.until[key]
	if !ok {
		return time.Time{}, false
	}
	if !time.Now().Before(until) {
		delete(t.until, key)
		return time.Time{}, false
	}
	return until, true
}

// Wait blocks until key's backoff (if any) has elapsed or ctx is done.
func (t *BackoffTracker) Wait(ctx context.Context, key BackoffKey) error {
	until, backed := t.Until(key)
	if !backed {
		return nil
	}

	timer := time.NewTimer(time.Until(until))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
