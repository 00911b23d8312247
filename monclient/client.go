// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tchaikov/ceph-sub002/api/metrics"
	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
)

// Msgr2Dialer builds a Dialer that authenticates as entity with secret
// and reports monitor map / OSD map pushes through opts' callbacks.
func Msgr2Dialer(entity EntityName, secret cephx.CryptoKey, opts DialOpts) Dialer {
	return func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		netAddr := fmt.Sprintf("%s:%d", addr.Host, addr.Port)
		return dialMon(ctx, entity, secret, netAddr, opts)
	}
}

// Session is an authenticated, ready connection to one monitor. The
// msgr2 package provides the real implementation; tests substitute a
// fake so hunting logic can run without a socket.
type Session interface {
	// SendCommand issues a monitor command and waits for its reply.
	SendCommand(ctx context.Context, prefix string, args map[string]string) (CommandResult, error)
	Close() error
}

// Dialer opens a Session to one monitor address; production code backs
// this with msgr2's connect handshake plus cephx authentication.
type Dialer func(ctx context.Context, addr clustermap.Addr) (Session, error)

// Config mirrors the reference client's MonClientConfig (spec §4.5):
// who we are, which monitors to try, and the hunt/command timing.
type Config struct {
	EntityName     EntityName
	MonAddrs       []clustermap.Addr
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	HuntInterval   time.Duration
	HuntParallel   int

	MetricsNamespace string
	Registerer       prometheus.Registerer
}

// DefaultConfig returns a Config carrying the reference client's
// documented timing defaults; identity and monitor addresses are left
// for the caller to set.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		CommandTimeout: 60 * time.Second,
		HuntInterval:   3 * time.Second,
		HuntParallel:   3,
	}
}

// Client maintains exactly one active monitor session at a time,
// hunting a fresh one when none is active, either before the first
// hunt or after Reset has dropped the previous one (spec §4.5
// "Hunting: the client dials multiple monitors in parallel and keeps
// the first to answer, backing off and retrying on total failure").
type Client struct {
	cfg     Config
	dial    Dialer
	log     log.Logger
	metrics metrics.HuntMetrics

	mu     sync.Mutex
	active Session
	monIdx int
}

// New constructs a Client. dial is the connection factory (msgr2 in
// production, a stub in tests). If cfg.Registerer is non-nil, hunt
// attempt/success/failure counters are registered under
// cfg.MetricsNamespace.
func New(cfg Config, dial Dialer) (*Client, error) {
	if cfg.HuntParallel <= 0 {
		cfg.HuntParallel = 3
	}
	if cfg.HuntInterval <= 0 {
		cfg.HuntInterval = 3 * time.Second
	}
	c := &Client{cfg: cfg, dial: dial, log: log.NewNoOpLogger()}
	if cfg.Registerer != nil {
		hm, err := metrics.NewHuntMetrics(cfg.MetricsNamespace, cfg.Registerer)
		if err != nil {
			return nil, errors.Wrap(err, "monclient: registering hunt metrics")
		}
		c.metrics = hm
	}
	return c, nil
}

func (c *Client) SetLogger(l log.Logger) { c.log = l }

// Hunt races HuntParallel monitors in parallel and keeps the first
// session to come up, canceling the rest. It retries with the
// configured interval until ctx is done or a session is established.
func (c *Client) Hunt(ctx context.Context) (Session, error) {
	for {
		sess, err := c.huntOnce(ctx)
		if err == nil {
			c.mu.Lock()
			c.active = sess
			c.mu.Unlock()
			return sess, nil
		}
		c.log.Warn("monitor hunt failed, retrying", "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.HuntInterval):
		}
	}
}

func (c *Client) huntOnce(ctx context.Context) (Session, error) {
	if c.metrics != nil {
		c.metrics.Attempts().Inc()
	}
	if len(c.cfg.MonAddrs) == 0 {
		return nil, errors.New("monclient: no monitor addresses configured")
	}

	huntCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	attempts := c.cfg.MonAddrs
	if c.cfg.HuntParallel > 0 && c.cfg.HuntParallel < len(attempts) {
		// Rotate the start index so repeated hunts don't always favor
		// the same leading subset of monitors.
		start := c.monIdx % len(attempts)
		c.monIdx++
		rotated := make([]clustermap.Addr, 0, len(attempts))
		rotated = append(rotated, attempts[start:]...)
		rotated = append(rotated, attempts[:start]...)
		attempts = rotated[:c.cfg.HuntParallel]
	}

	g, gctx := errgroup.WithContext(huntCtx)
	results := make(chan Session, len(attempts))

	for _, addr := range attempts {
		addr := addr
		g.Go(func() error {
			sess, err := c.dial(gctx, addr)
			if err != nil {
				c.log.Debug("hunt candidate failed", "addr", addr.String(), "error", err)
				if c.metrics != nil {
					c.metrics.CandidateFailures().Inc()
				}
				return nil // one candidate failing does not fail the group
			}
			select {
			case results <- sess:
			case <-gctx.Done():
				sess.Close()
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case sess := <-results:
		cancel()
		<-done
		if c.metrics != nil {
			c.metrics.Successes().Inc()
		}
		// Drain and close any other sessions that raced in afterward.
		for {
			select {
			case extra := <-results:
				extra.Close()
			default:
				return sess, nil
			}
		}
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return nil, errors.New("monclient: all monitor candidates failed")
	}
}

// Active returns the current session, if any.
func (c *Client) Active() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != nil
}

// Command issues a command on the active session, hunting for a new
// one first if none is established.
func (c *Client) Command(ctx context.Context, prefix string, args map[string]string) (CommandResult, error) {
	sess, ok := c.Active()
	if !ok {
		var err error
		sess, err = c.Hunt(ctx)
		if err != nil {
			return CommandResult{}, err
		}
	}
	cmdCtx, cancel := context.WithTimeout(ctx, c.cfg.CommandTimeout)
	defer cancel()
	return sess.SendCommand(cmdCtx, prefix, args)
}

// Subscribe sends a want-subscription for what, starting at start,
// hunting for a session first if none is active (spec §4.3, grounded
// on subscription.rs's MonSub/Want).
func (c *Client) Subscribe(ctx context.Context, what string, start uint64, flags uint8) error {
	sess, ok := c.Active()
	if !ok {
		var err error
		sess, err = c.Hunt(ctx)
		if err != nil {
			return err
		}
	}
	ms, ok := sess.(*monSession)
	if !ok {
		return errors.New("monclient: session does not support subscriptions")
	}
	sub := NewMMonSubscribe()
	sub.Add(what, SubscribeItem{Start: start, Flags: flags})
	return ms.Subscribe(sub)
}

// GetVersion asks the active monitor for the newest/oldest committed
// version of a paxos service (spec §4.3), hunting for a session first
// if none is active.
func (c *Client) GetVersion(ctx context.Context, what string) (newest, oldest uint64, err error) {
	sess, ok := c.Active()
	if !ok {
		sess, err = c.Hunt(ctx)
		if err != nil {
			return 0, 0, err
		}
	}
	ms, ok := sess.(*monSession)
	if !ok {
		return 0, 0, errors.New("monclient: session does not support GetVersion")
	}
	return ms.GetVersion(ctx, what)
}

// Reset drops the active session, forcing the next operation to hunt
// again (spec §4.5 "on disconnect the client re-hunts").
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Close()
	}
	c.active = nil
}
