// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clustermap

import (
	"github.com/cockroachdb/errors"

	"github.com/tchaikov/ceph-sub002/crush"
)

// Map is the immutable combined snapshot of the daemon map and the
// placement hierarchy at one epoch (spec §4.3 "Two immutable snapshots
// per epoch"). Once constructed it exposes no mutation API.
type Map struct {
	epoch     uint32
	pools     map[int64]*Pool
	poolNames map[string]int64
	daemons   map[int32]*Daemon
	hierarchy *crush.Map
}

// Epoch satisfies crush's (and the monclient notifier's) need for a
// monotonically comparable version number (spec §3 "Epoch").
func (m *Map) Epoch() uint32 { return m.epoch }

// New builds a Map from a fully decoded snapshot. Builders (the codec
// decode path) populate pools/daemons/hierarchy directly and call New
// once, after which the Map is handed out only by value-sharing pointer
// (never mutated).
func New(epoch uint32, pools []*Pool, daemons []*Daemon, hierarchy *crush.Map) *Map {
	m := &Map{
		epoch:     epoch,
		pools:     make(map[int64]*Pool, len(pools)),
		poolNames: make(map[string]int64, len(pools)),
		daemons:   make(map[int32]*Daemon, len(daemons)),
		hierarchy: hierarchy,
	}
	for _, p := range pools {
		m.pools[p.ID] = p
		m.poolNames[p.Name] = p.ID
	}
	for _, d := range daemons {
		m.daemons[d.ID] = d
	}
	return m
}

// PoolByID looks up pool metadata by numeric id.
func (m *Map) PoolByID(id int64) (*Pool, error) {
	p, ok := m.pools[id]
	if !ok {
		return nil, errors.Newf("clustermap: no pool with id %d", id)
	}
	return p, nil
}

// PoolByName resolves a human pool name to its metadata.
func (m *Map) PoolByName(name string) (*Pool, error) {
	id, ok := m.poolNames[name]
	if !ok {
		return nil, errors.Newf("clustermap: no pool named %q", name)
	}
	return m.PoolByID(id)
}

// RuleID returns the CRUSH rule id governing a pool's placement.
func (m *Map) RuleID(poolID int64) (uint32, error) {
	p, err := m.PoolByID(poolID)
	if err != nil {
		return 0, err
	}
	return p.RuleID, nil
}

// Daemon looks up a daemon's state and address by id.
func (m *Map) Daemon(id int32) (*Daemon, error) {
	d, ok := m.daemons[id]
	if !ok {
		return nil, errors.Newf("clustermap: no daemon with id %d", id)
	}
	return d, nil
}

// IsUp adapts Daemon lookups into the predicate Placement needs; an
// unknown daemon id is treated as down rather than erroring, since the
// placement algorithm must keep working around a stale or partial map.
func (m *Map) IsUp(id int32) bool {
	d, err := m.Daemon(id)
	if err != nil {
		return false
	}
	return d.State.Up()
}

// Hierarchy exposes the CRUSH map for Placement.
func (m *Map) Hierarchy() *crush.Map { return m.hierarchy }

// Incremental carries the delta from epoch-1 to Epoch (spec §4.3 "An
// incremental update carries epoch E+1, a set of new pools, a set of
// deleted pool ids, per-daemon weight/state deltas, and optionally a
// replacement hierarchy").
type Incremental struct {
	Epoch         uint32
	NewPools      []*Pool
	DeletedPools  []int64
	DaemonDeltas  []*Daemon
	NewHierarchy  *crush.Map // nil if unchanged
}

// Apply produces the next immutable snapshot by layering inc over m. It
// never mutates m.
func (m *Map) Apply(inc *Incremental) (*Map, error) {
	if inc.Epoch <= m.epoch {
		return nil, errors.Newf("clustermap: incremental epoch %d does not advance current epoch %d", inc.Epoch, m.epoch)
	}

	next := &Map{
		epoch:     inc.Epoch,
		pools:     make(map[int64]*Pool, len(m.pools)+len(inc.NewPools)),
		poolNames: make(map[string]int64, len(m.poolNames)+len(inc.NewPools)),
		daemons:   make(map[int32]*Daemon, len(m.daemons)+len(inc.DaemonDeltas)),
		hierarchy: m.hierarchy,
	}
	for id, p := range m.pools {
		next.pools[id] = p
		next.poolNames[p.Name] = id
	}
	for _, id := range inc.DeletedPools {
		if p, ok := next.pools[id]; ok {
			delete(next.poolNames, p.Name)
		}
		delete(next.pools, id)
	}
	for _, p := range inc.NewPools {
		next.pools[p.ID] = p
		next.poolNames[p.Name] = p.ID
	}
	for id, d := range m.daemons {
		next.daemons[id] = d
	}
	for _, d := range inc.DaemonDeltas {
		next.daemons[d.ID] = d
	}
	if inc.NewHierarchy != nil {
		next.hierarchy = inc.NewHierarchy
	}
	return next, nil
}
