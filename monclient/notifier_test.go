// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testEpoch struct{ e uint32 }

func (t testEpoch) Epoch() uint32 { return t.e }

func TestMapNotifierPostAndGetLatest(t *testing.T) {
	n := NewMapNotifier[testEpoch]()
	_, ok := n.GetLatest()
	require.False(t, ok)

	require.True(t, n.Post(testEpoch{e: 1}))
	m, ok := n.GetLatest()
	require.True(t, ok)
	require.EqualValues(t, 1, m.Epoch())

	require.False(t, n.Post(testEpoch{e: 1}), "duplicate epoch must not replace snapshot")
	require.True(t, n.Post(testEpoch{e: 2}))
}

func TestMapNotifierWaitForMap(t *testing.T) {
	n := NewMapNotifier[testEpoch]()
	ctx := context.Background()

	go func() {
		time.Sleep(10 * time.Millisecond)
		n.Post(testEpoch{e: 5})
	}()

	m, err := n.WaitForMap(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, m.Epoch())
}

func TestMapNotifierWaitForMapCanceled(t *testing.T) {
	n := NewMapNotifier[testEpoch]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.WaitForMap(ctx)
	require.Error(t, err)
}

func TestMapNotifierWaitForEpochAtLeast(t *testing.T) {
	n := NewMapNotifier[testEpoch]()
	n.Post(testEpoch{e: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		n.Post(testEpoch{e: 3})
	}()

	m, err := n.WaitForEpochAtLeast(ctx, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, m.Epoch())
}
