// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffTrackerMarkAndWait(t *testing.T) {
	bt := NewBackoffTracker(BackoffConfig{MinDuration: 5 * time.Millisecond, MaxDuration: time.Second})
	key := BackoffKey{Pool: 1, PG: 7}

	_, backed := bt.Until(key)
	require.False(t, backed)

	bt.Mark(key, 0)
	_, backed = bt.Until(key)
	require.True(t, backed, "a zero-duration request should still honor MinDuration")

	require.NoError(t, bt.Wait(context.Background(), key))
	_, backed = bt.Until(key)
	require.False(t, backed, "backoff should have elapsed by the time Wait returns")
}

func TestBackoffTrackerClampsToMax(t *testing.T) {
	bt := NewBackoffTracker(BackoffConfig{MinDuration: time.Millisecond, MaxDuration: 10 * time.Millisecond})
	key := BackoffKey{Pool: 1, PG: 1}

	bt.Mark(key, time.Hour)
	until, backed := bt.Until(key)
	require.True(t, backed)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), until, 5*time.Millisecond)
}

func TestBackoffTrackerWaitNoBackoffReturnsImmediately(t *testing.T) {
	bt := NewBackoffTracker(DefaultBackoffConfig())
	require.NoError(t, bt.Wait(context.Background(), BackoffKey{Pool: 9, PG: 9}))
}
