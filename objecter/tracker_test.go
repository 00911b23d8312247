// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerResolveDelivers(t *testing.T) {
	tr := NewTracker()
	replyCh := tr.Register(1, time.Now().Add(time.Second))

	require.True(t, tr.Resolve(1, MOSDOpReply{Tid: 1, RetVal: 0}))
	reply, err := tr.Wait(context.Background(), 1, replyCh, time.Now().Add(time.Second), nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, reply.Tid)
}

func TestTrackerResolveUnknownTidReportsFalse(t *testing.T) {
	tr := NewTracker()
	require.False(t, tr.Resolve(99, MOSDOpReply{}))
}

func TestTrackerWaitTimesOut(t *testing.T) {
	tr := NewTracker()
	replyCh := tr.Register(1, time.Now().Add(5*time.Millisecond))

	_, err := tr.Wait(context.Background(), 1, replyCh, time.Now().Add(5*time.Millisecond), nil)
	require.ErrorIs(t, err, ErrTimeout)
	require.Zero(t, tr.Len())
}

func TestTrackerWaitCancelled(t *testing.T) {
	tr := NewTracker()
	replyCh := tr.Register(1, time.Now().Add(time.Second))
	revoke := make(chan struct{})
	close(revoke)

	_, err := tr.Wait(context.Background(), 1, replyCh, time.Now().Add(time.Second), revoke)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestTrackerExpireBefore(t *testing.T) {
	tr := NewTracker()
	tr.Register(1, time.Now().Add(-time.Second))
	tr.Register(2, time.Now().Add(time.Hour))

	expired := tr.ExpireBefore(time.Now())
	require.ElementsMatch(t, []uint64{1}, expired)
	require.Equal(t, 1, tr.Len())
}
