// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// Default throttle limits, matching Ceph's objecter_inflight_ops and
// objecter_inflight_op_bytes (grounded on osdclient/src/throttle.rs's
// Throttle::default_limits).
const (
	DefaultMaxOps   = 1024
	DefaultMaxBytes = 100 * 1024 * 1024
)

// Throttle bounds the number of concurrent operations and the total
// bytes in flight, giving the operation pipeline backpressure instead
// of unbounded buffering (spec §5 "Throttles: ops count, bytes;
// global per client; RAII-style acquire/release").
type Throttle struct {
	maxOps   int64
	maxBytes int64

	ops   *semaphore.Weighted
	bytes *semaphore.Weighted

	inflightOps   prometheus.Gauge
	inflightBytes prometheus.Gauge
}

// NewThrottle builds a Throttle with the given limits, registering its
// gauges with reg if non-nil.
func NewThrottle(namespace string, maxOps, maxBytes int64, reg prometheus.Registerer) (*Throttle, error) {
	t := &Throttle{
		maxOps:   maxOps,
		maxBytes: maxBytes,
		ops:      semaphore.NewWeighted(maxOps),
		bytes:    semaphore.NewWeighted(maxBytes),
		inflightOps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_ops",
			Help:      "Number of operations currently holding throttle budget",
		}),
		inflightBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_bytes",
			Help:      "Bytes currently holding throttle budget",
		}),
	}
	if reg != nil {
		if err := reg.Register(t.inflightOps); err != nil {
			return nil, err
		}
		if err := reg.Register(t.inflightBytes); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewDefaultThrottle builds a Throttle with Ceph's default limits.
func NewDefaultThrottle(namespace string, reg prometheus.Registerer) (*Throttle, error) {
	return NewThrottle(namespace, DefaultMaxOps, DefaultMaxBytes, reg)
}

// ThrottlePermit releases the budget it was issued exactly once.
type ThrottlePermit struct {
	t        *Throttle
	byteCost int64
}

// Acquire blocks until an operation slot and byteCost bytes of budget
// are both available, or ctx is done. The returned permit must be
// released exactly once.
func (t *Throttle) Acquire(ctx context.Context, byteCost int64) (*ThrottlePermit, error) {
	if err := t.ops.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if byteCost > 0 {
		if err := t.bytes.Acquire(ctx, byteCost); err != nil {
			t.ops.Release(1)
			return nil, err
		}
	}
	t.inflightOps.Inc()
	if byteCost > 0 {
		t.inflightBytes.Add(float64(byteCost))
	}
	return &ThrottlePermit{t: t, byteCost: byteCost}, nil
}

// TryAcquire attempts to acquire budget without blocking, reporting
// false if either the op or byte budget is exhausted.
func (t *Throttle) TryAcquire(byteCost int64) (*ThrottlePermit, bool) {
	if !t.ops.TryAcquire(1) {
		return nil, false
	}
	if byteCost > 0 && !t.bytes.TryAcquire(byteCost) {
		t.ops.Release(1)
		return nil, false
	}
	t.inflightOps.Inc()
	if byteCost > 0 {
		t.inflightBytes.Add(float64(byteCost))
	}
	return &ThrottlePermit{t: t, byteCost: byteCost}, true
}

// Release returns the permit's budget to the throttle.
func (p *ThrottlePermit) Release() {
	p.t.ops.Release(1)
	p.t.inflightOps.Dec()
	if p.byteCost > 0 {
		p.t.bytes.Release(p.byteCost)
		p.t.inflightBytes.Sub(float64(p.byteCost))
	}
}
