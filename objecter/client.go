// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
	"github.com/tchaikov/ceph-sub002/crush"
	"github.com/tchaikov/ceph-sub002/monclient"
)

// maxMapRetries bounds how many times a single Do call will re-place
// and resend after a stale-map or transport hiccup before surfacing
// the failure, so a persistently broken cluster can't spin a caller
// forever (spec §4.6 "map-change requeue").
const maxMapRetries = 8

// Config configures an Objecter: who it authenticates as and how it
// budgets and times out operations (spec §4.6/§5).
type Config struct {
	EntityName cephx.EntityName
	Secret     cephx.CryptoKey

	MaxOps   int64
	MaxBytes int64

	OpTimeout time.Duration

	MetricsNamespace string
	Registerer       prometheus.Registerer
	Logger           log.Logger
}

// DefaultConfig returns a Config carrying Ceph's documented throttle
// and timeout defaults; New applies the same defaults to any of those
// fields left zero.
func DefaultConfig() Config {
	return Config{
		MaxOps:    DefaultMaxOps,
		MaxBytes:  DefaultMaxBytes,
		OpTimeout: 30 * time.Second,
	}
}

// Objecter is the object client: it places each request against the
// current cluster map, reuses a pooled session per primary daemon, and
// drives the request through to a matched reply (spec §4.6).
type Objecter struct {
	entity cephx.EntityName
	secret cephx.CryptoKey

	notifier  *monclient.MapNotifier[*clustermap.Map]
	throttle  *Throttle
	backoffs  *BackoffTracker
	log       log.Logger
	opTimeout time.Duration
	clientInc uint32

	mu       sync.Mutex
	sessions map[int32]*daemonSession
}

// New constructs an Objecter. notifier must already be (or become)
// populated with cluster map snapshots, typically fed by a monclient
// subscription to "osdmap".
func New(cfg Config, notifier *monclient.MapNotifier[*clustermap.Map]) (*Objecter, error) {
	if cfg.MaxOps <= 0 {
		cfg.MaxOps = DefaultMaxOps
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNoOpLogger()
	}

	throttle, err := NewThrottle(cfg.MetricsNamespace, cfg.MaxOps, cfg.MaxBytes, cfg.Registerer)
	if err != nil {
		return nil, err
	}

	return &Objecter{
		entity:    cfg.EntityName,
		secret:    cfg.Secret,
		notifier:  notifier,
		throttle:  throttle,
		backoffs:  NewBackoffTracker(DefaultBackoffConfig()),
		log:       cfg.Logger,
		opTimeout: cfg.OpTimeout,
		clientInc: 1,
		sessions:  make(map[int32]*daemonSession),
	}, nil
}

// place resolves oid's placement group and primary daemon under m
// (spec §4.2 Object-to-PG and PG-to-daemon, spec §4.6 step "placement").
func (o *Objecter) place(m *clustermap.Map, poolID int64, oid string) (primary int32, pgSeed uint32, err error) {
	pool, err := m.PoolByID(poolID)
	if err != nil {
		return 0, 0, wrapErr(KindPlacement, err, "resolving pool %d", poolID)
	}

	seed := crush.ObjectToPG(oid, pool.PGNum, pool.HashPSPool(), poolID)

	rule, err := m.Hierarchy().Rule(pool.RuleID)
	if err != nil {
		return 0, 0, wrapErr(KindPlacement, err, "resolving rule for pool %d", poolID)
	}

	order := crush.PlacePG(m.Hierarchy(), rule, seed, int(pool.Size), m.IsUp)
	prim, ok := crush.Primary(order, m.IsUp)
	if !ok {
		return 0, 0, newErr(KindPlacement, "no live daemon for pool %d object %q", poolID, oid)
	}
	return prim, seed, nil
}

// sessionFor returns the pooled session to daemonID, lazily dialing
// one under m's address if none is open yet (spec §4.6 "per-daemon
// lazily-opened pooled sessions").
func (o *Objecter) sessionFor(ctx context.Context, m *clustermap.Map, daemonID int32) (*daemonSession, error) {
	o.mu.Lock()
	if s, ok := o.sessions[daemonID]; ok {
		o.mu.Unlock()
		return s, nil
	}
	o.mu.Unlock()

	d, err := m.Daemon(daemonID)
	if err != nil {
		return nil, wrapErr(KindPlacement, err, "resolving osd.%d", daemonID)
	}
	addr, ok := d.Addrs.Msgr2()
	if !ok {
		return nil, newErr(KindPlacement, "osd.%d has no msgr2 address", daemonID)
	}

	s, err := dialDaemon(ctx, o.entity, o.secret, daemonID, addr, o.backoffs, o.log)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if existing, ok := o.sessions[daemonID]; ok {
		o.mu.Unlock()
		s.Close()
		return existing, nil
	}
	o.sessions[daemonID] = s
	o.mu.Unlock()
	return s, nil
}

// dropSession closes and forgets daemonID's pooled session, forcing
// the next request to it to redial (spec §7 "Transport errors ...
// recoverable via reconnect and replay").
func (o *Objecter) dropSession(daemonID int32) {
	o.mu.Lock()
	s, ok := o.sessions[daemonID]
	delete(o.sessions, daemonID)
	o.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Do runs the full operation pipeline for one request: throttle,
// placement, session acquisition, envelope construction, transmit and
// tid tracking, reply matching, and map-change/transport-error retry
// (spec §4.6's 8-step pipeline).
func (o *Objecter) Do(ctx context.Context, poolID int64, oid string, ops []OSDOp, flags uint32, revoke <-chan struct{}) (MOSDOpReply, error) {
	var byteCost int64
	for _, op := range ops {
		byteCost += int64(len(op.Data))
	}

	permit, err := o.throttle.Acquire(ctx, byteCost)
	if err != nil {
		return MOSDOpReply{}, wrapErr(KindBudget, err, "acquiring throttle budget")
	}
	defer permit.Release()

	var lastErr error
	for attempt := 0; attempt < maxMapRetries; attempt++ {
		m, ok := o.notifier.GetLatest()
		if !ok {
			m, err = o.notifier.WaitForMap(ctx)
			if err != nil {
				return MOSDOpReply{}, wrapErr(KindPlacement, err, "waiting for initial cluster map")
			}
		}

		primary, pgSeed, err := o.place(m, poolID, oid)
		if err != nil {
			return MOSDOpReply{}, err
		}

		sess, err := o.sessionFor(ctx, m, primary)
		if err != nil {
			lastErr = err
			continue
		}

		req := MOSDOp{
			Pool:      poolID,
			Oid:       oid,
			Ops:       ops,
			Flags:     flags,
			ClientInc: atomic.LoadUint32(&o.clientInc),
			Epoch:     m.Epoch(),
		}
		deadline := time.Now().Add(o.opTimeout)
		backoffKey := BackoffKey{Pool: poolID, PG: pgSeed}

		reply, err := sess.Send(ctx, req, backoffKey, deadline, revoke)
		if err != nil {
			var oerr *Error
			if errors.As(err, &oerr) && oerr.Kind == KindTransport {
				o.dropSession(primary)
				lastErr = err
				continue
			}
			return MOSDOpReply{}, err
		}

		if reply.RedirectEpoch > m.Epoch() {
			if _, werr := o.notifier.WaitForEpochAtLeast(ctx, reply.RedirectEpoch); werr != nil {
				return MOSDOpReply{}, wrapErr(KindPlacement, werr, "waiting for epoch %d", reply.RedirectEpoch)
			}
			continue
		}

		if !reply.IsSuccess() {
			return MOSDOpReply{}, opErr(reply.RetVal, oid)
		}
		return reply, nil
	}

	if lastErr != nil {
		return MOSDOpReply{}, wrapErr(KindTransport, lastErr, "exhausted retries for %q", oid)
	}
	return MOSDOpReply{}, newErr(KindTransport, "exhausted retries for %q", oid)
}

// Close closes every pooled daemon session.
func (o *Objecter) Close() error {
	o.mu.Lock()
	sessions := o.sessions
	o.sessions = make(map[int32]*daemonSession)
	o.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	return nil
}
