// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package clustermap holds the immutable per-epoch snapshots of the
// daemon map and placement hierarchy (spec §4.3), plus pool metadata.
package clustermap

// PoolFlags are bitwise flags carried on a Pool (spec §3 "flags
// (including hashpspool)").
type PoolFlags uint64

const (
	FlagHashPSPool PoolFlags = 1 << 0
)

func (f PoolFlags) HashPSPool() bool { return f&FlagHashPSPool != 0 }

// Pool is one named storage pool's metadata (spec §3 "Pool metadata").
type Pool struct {
	ID       int64
	Name     string
	Size     uint32 // replication factor
	PGNum    uint32
	RuleID   uint32
	Flags    PoolFlags
	SnapSeq  uint64
	Removed  map[uint64]struct{}
}

// HashPSPool reports whether object-to-PG hashing should mix in the
// pool id (spec §4.2).
func (p *Pool) HashPSPool() bool { return p.Flags.HashPSPool() }
