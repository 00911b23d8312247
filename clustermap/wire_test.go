// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clustermap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/crush"
)

func testHierarchy() *crush.Map {
	h := crush.NewMap()
	h.MaxRules = 1
	h.PutRule(&crush.Rule{
		RuleID:   0,
		RuleType: crush.RuleReplicated,
		Steps: []crush.RuleStep{
			{Op: crush.OpTake, Arg1: -1},
			{Op: crush.OpChooseLeafFirstN, Arg1: 0, Arg2: 1},
			{Op: crush.OpEmit},
		},
	})
	h.PutBucket(&crush.Bucket{
		ID: -1, Alg: crush.AlgStraw2, Size: 2, Items: []int32{0, 1},
		Data: crush.BucketData{Straw2ItemWeights: []uint32{0x10000, 0x10000}},
	})
	return h
}

func TestFullMapEncodeDecodeRoundTrip(t *testing.T) {
	m := New(
		7,
		[]*Pool{{ID: 1, Name: "rbd", Size: 3, PGNum: 8, RuleID: 0, Flags: FlagHashPSPool, SnapSeq: 2, Removed: map[uint64]struct{}{1: {}}}},
		[]*Daemon{{ID: 0, State: StateUp | StateIn, Weight: 0x10000, Addrs: AddrVec{Addrs: []Addr{{Type: AddrMsgr2, Host: "10.0.0.1", Port: 6800}}}}},
		testHierarchy(),
	)

	decoded, err := DecodeFullMap(EncodeFullMap(m))
	require.NoError(t, err)
	require.Equal(t, uint32(7), decoded.Epoch())

	p, err := decoded.PoolByID(1)
	require.NoError(t, err)
	require.Equal(t, "rbd", p.Name)
	require.True(t, p.HashPSPool())
	require.Contains(t, p.Removed, uint64(1))

	d, err := decoded.Daemon(0)
	require.NoError(t, err)
	require.True(t, d.State.Up())
	addr, ok := d.Addrs.Msgr2()
	require.True(t, ok)
	require.Equal(t, "v2:10.0.0.1:6800", addr.String())

	rule, err := decoded.Hierarchy().Rule(0)
	require.NoError(t, err)
	require.Len(t, rule.Steps, 3)
}

func TestIncrementalEncodeDecodeRoundTrip(t *testing.T) {
	inc := &Incremental{
		Epoch:        2,
		NewPools:     []*Pool{{ID: 2, Name: "data", Size: 2, PGNum: 4, Removed: map[uint64]struct{}{}}},
		DeletedPools: []int64{1},
		DaemonDeltas: []*Daemon{{ID: 1, State: StateUp, Weight: 0x10000}},
	}

	decoded, err := DecodeIncremental(EncodeIncremental(inc))
	require.NoError(t, err)
	require.Equal(t, uint32(2), decoded.Epoch)
	require.Equal(t, []int64{1}, decoded.DeletedPools)
	require.Len(t, decoded.NewPools, 1)
	require.Equal(t, "data", decoded.NewPools[0].Name)
	require.Len(t, decoded.DaemonDeltas, 1)
	require.Nil(t, decoded.NewHierarchy)
}

func TestIncrementalEncodeDecodeWithHierarchy(t *testing.T) {
	inc := &Incremental{Epoch: 3, NewHierarchy: testHierarchy()}
	decoded, err := DecodeIncremental(EncodeIncremental(inc))
	require.NoError(t, err)
	require.NotNil(t, decoded.NewHierarchy)
	_, err = decoded.NewHierarchy.Rule(0)
	require.NoError(t, err)
}
