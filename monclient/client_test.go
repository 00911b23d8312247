// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/clustermap"
)

type fakeSession struct {
	closed int32
	reply  CommandResult
}

func (f *fakeSession) SendCommand(ctx context.Context, prefix string, args map[string]string) (CommandResult, error) {
	return f.reply, nil
}

func (f *fakeSession) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}

func testConfig(addrs int) Config {
	cfg := DefaultConfig()
	cfg.HuntInterval = 5 * time.Millisecond
	cfg.ConnectTimeout = 200 * time.Millisecond
	for i := 0; i < addrs; i++ {
		cfg.MonAddrs = append(cfg.MonAddrs, clustermap.Addr{Type: clustermap.AddrMsgr2, Host: "10.0.0.1", Port: uint16(3300 + i)})
	}
	return cfg
}

func TestHuntReturnsFirstSuccess(t *testing.T) {
	cfg := testConfig(3)
	var calls int32
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		atomic.AddInt32(&calls, 1)
		return &fakeSession{reply: CommandResult{RetVal: 0, Outs: "ok"}}, nil
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	sess, err := c.Hunt(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestHuntRetriesAfterAllFail(t *testing.T) {
	cfg := testConfig(2)
	var attempt int32
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		n := atomic.AddInt32(&attempt, 1)
		if n <= 2 {
			return nil, errors.New("connection refused")
		}
		return &fakeSession{}, nil
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sess, err := c.Hunt(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
}

func TestHuntCanceled(t *testing.T) {
	cfg := testConfig(1)
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		return nil, errors.New("always fails")
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Hunt(ctx)
	require.Error(t, err)
}

func TestCommandHuntsThenReusesSession(t *testing.T) {
	cfg := testConfig(1)
	var calls int32
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		atomic.AddInt32(&calls, 1)
		return &fakeSession{reply: CommandResult{RetVal: 0, Outs: "done"}}, nil
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	res, err := c.Command(context.Background(), "status", nil)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	_, err = c.Command(context.Background(), "status", nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls), "second command should reuse the active session")
}

func TestResetForcesRehunt(t *testing.T) {
	cfg := testConfig(1)
	var calls int32
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		atomic.AddInt32(&calls, 1)
		return &fakeSession{}, nil
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	_, err = c.Hunt(context.Background())
	require.NoError(t, err)
	c.Reset()
	_, ok := c.Active()
	require.False(t, ok)

	_, err = c.Hunt(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestHuntRegistersMetrics(t *testing.T) {
	cfg := testConfig(1)
	cfg.MetricsNamespace = "rados_test"
	cfg.Registerer = prometheus.NewRegistry()
	dial := func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		return &fakeSession{}, nil
	}
	c, err := New(cfg, dial)
	require.NoError(t, err)

	_, err = c.Hunt(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 1, testutil.ToFloat64(c.metrics.Attempts()))
	require.EqualValues(t, 1, testutil.ToFloat64(c.metrics.Successes()))
}

func TestNoMonitorAddressesConfigured(t *testing.T) {
	cfg := testConfig(0)
	c, err := New(cfg, func(ctx context.Context, addr clustermap.Addr) (Session, error) {
		return &fakeSession{}, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Hunt(ctx)
	require.Error(t, err)
}
