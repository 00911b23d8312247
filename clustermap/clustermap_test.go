// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clustermap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/crush"
)

func samplePool(id int64, name string) *Pool {
	return &Pool{ID: id, Name: name, Size: 3, PGNum: 8, RuleID: 0, Flags: FlagHashPSPool}
}

func sampleDaemon(id int32, up bool) *Daemon {
	state := DaemonState(0)
	if up {
		state = StateUp | StateIn
	}
	return &Daemon{ID: id, State: state, Weight: 0x10000}
}

func TestMapLookups(t *testing.T) {
	m := New(1, []*Pool{samplePool(3, "rbd")}, []*Daemon{sampleDaemon(0, true)}, crush.NewMap())

	p, err := m.PoolByID(3)
	require.NoError(t, err)
	require.Equal(t, "rbd", p.Name)

	p2, err := m.PoolByName("rbd")
	require.NoError(t, err)
	require.Equal(t, p, p2)

	_, err = m.PoolByName("missing")
	require.Error(t, err)

	require.True(t, m.IsUp(0))
	require.False(t, m.IsUp(99))
}

func TestMapApplyIncremental(t *testing.T) {
	m := New(1, []*Pool{samplePool(3, "rbd")}, []*Daemon{sampleDaemon(0, true)}, crush.NewMap())

	next, err := m.Apply(&Incremental{
		Epoch:        2,
		NewPools:     []*Pool{samplePool(4, "data")},
		DeletedPools: []int64{3},
		DaemonDeltas: []*Daemon{sampleDaemon(0, false)},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, next.Epoch())

	_, err = next.PoolByID(3)
	require.Error(t, err, "deleted pool must not survive the incremental")

	_, err = next.PoolByName("data")
	require.NoError(t, err)

	require.False(t, next.IsUp(0), "daemon delta must flip state to down")

	// m itself must be untouched (immutability).
	require.True(t, m.IsUp(0))
	_, err = m.PoolByID(3)
	require.NoError(t, err)
}

func TestMapApplyRejectsStaleEpoch(t *testing.T) {
	m := New(5, nil, nil, crush.NewMap())
	_, err := m.Apply(&Incremental{Epoch: 5})
	require.Error(t, err)
	_, err = m.Apply(&Incremental{Epoch: 4})
	require.Error(t, err)
}

func TestPoolHashPSPool(t *testing.T) {
	p := samplePool(1, "x")
	require.True(t, p.HashPSPool())
	p.Flags = 0
	require.False(t, p.HashPSPool())
}

func TestAddrVecMsgr2(t *testing.T) {
	v := AddrVec{Addrs: []Addr{
		{Type: AddrLegacy, Host: "10.0.0.1", Port: 6789},
		{Type: AddrMsgr2, Host: "10.0.0.1", Port: 3300},
	}}
	a, ok := v.Msgr2()
	require.True(t, ok)
	require.Equal(t, uint16(3300), a.Port)
	require.Equal(t, "v2:10.0.0.1:3300", a.String())
}

func TestMonMapByName(t *testing.T) {
	mm := &MonMap{Epoch: 1, Mons: []MonInfo{{Name: "a", Addrs: AddrVec{Addrs: []Addr{{Type: AddrMsgr2, Host: "h", Port: 3300}}}}}}
	_, ok := mm.ByName("a")
	require.True(t, ok)
	_, ok = mm.ByName("missing")
	require.False(t, ok)
}

func TestParseAddrRoundTrip(t *testing.T) {
	a, err := ParseAddr("v2:10.0.0.5:3300")
	require.NoError(t, err)
	require.Equal(t, Addr{Type: AddrMsgr2, Host: "10.0.0.5", Port: 3300}, a)
	require.Equal(t, "v2:10.0.0.5:3300", a.String())

	legacy, err := ParseAddr("v1:10.0.0.5:6789")
	require.NoError(t, err)
	require.Equal(t, AddrLegacy, legacy.Type)
}

func TestParseAddrRejectsMalformed(t *testing.T) {
	_, err := ParseAddr("not-an-address")
	require.Error(t, err)

	_, err = ParseAddr("v3:10.0.0.5:3300")
	require.Error(t, err)

	_, err = ParseAddr("v2:10.0.0.5:notaport")
	require.Error(t, err)
}
