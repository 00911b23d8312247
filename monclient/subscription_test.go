// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionLifecycle(t *testing.T) {
	sub := NewMonSub()
	require.False(t, sub.HaveNew())

	require.True(t, sub.Want("osdmap", 0, 0))
	require.True(t, sub.HaveNew())

	require.False(t, sub.Want("osdmap", 0, 0))

	sub.Renewed()
	require.False(t, sub.HaveNew())

	sub.Got("osdmap", 5)

	require.True(t, sub.Reload())
	require.True(t, sub.HaveNew())
}

func TestOnetimeSubscription(t *testing.T) {
	sub := NewMonSub()
	sub.Want("osdmap", 0, CephSubscribeOnetime)
	sub.Renewed()

	sub.Got("osdmap", 1)
	require.False(t, sub.Reload())
}

func TestIncWant(t *testing.T) {
	sub := NewMonSub()
	require.True(t, sub.IncWant("osdmap", 10, 0))
	require.False(t, sub.IncWant("osdmap", 5, 0))
	require.True(t, sub.IncWant("osdmap", 15, 0))
}

func TestUnwantAndClear(t *testing.T) {
	sub := NewMonSub()
	sub.Want("osdmap", 0, 0)
	sub.Renewed()
	sub.Want("monmap", 0, 0)

	sub.Unwant("osdmap")
	require.False(t, sub.HaveNew() && len(sub.subSent) == 1)

	sub.Clear()
	require.False(t, sub.HaveNew())
	require.Empty(t, sub.subSent)
}
