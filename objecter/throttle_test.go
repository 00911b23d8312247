// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThrottleAcquireRelease(t *testing.T) {
	th, err := NewThrottle("", 2, 1024, nil)
	require.NoError(t, err)

	p1, err := th.Acquire(context.Background(), 512)
	require.NoError(t, err)
	p2, err := th.Acquire(context.Background(), 512)
	require.NoError(t, err)

	_, ok := th.TryAcquire(1)
	require.False(t, ok, "ops budget should be exhausted at max_ops=2")

	p1.Release()
	p3, ok := th.TryAcquire(1)
	require.True(t, ok, "releasing one op permit should free a slot")
	p3.Release()
	p2.Release()
}

func TestThrottleByteBudgetReturnsToBaseline(t *testing.T) {
	th, err := NewThrottle("", 1024, 100, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p, err := th.Acquire(context.Background(), 100)
		require.NoError(t, err)
		p.Release()
	}

	p, ok := th.TryAcquire(100)
	require.True(t, ok, "byte budget must return to baseline after every release")
	p.Release()
}

func TestThrottleTryAcquireExhausted(t *testing.T) {
	th, err := NewThrottle("", 10, 100, nil)
	require.NoError(t, err)

	p, ok := th.TryAcquire(100)
	require.True(t, ok)
	_, ok = th.TryAcquire(1)
	require.False(t, ok, "byte budget exhausted, even though op slots remain")
	p.Release()
}
