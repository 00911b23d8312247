// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

import "github.com/cockroachdb/errors"

// BucketAlgorithm selects how a bucket picks among its children (spec
// §3 "five algorithm variants").
type BucketAlgorithm uint8

const (
	AlgUniform BucketAlgorithm = 1
	AlgList    BucketAlgorithm = 2
	AlgTree    BucketAlgorithm = 3
	AlgStraw   BucketAlgorithm = 4
	AlgStraw2  BucketAlgorithm = 5
)

// ParseBucketAlgorithm validates a wire algorithm byte.
func ParseBucketAlgorithm(v uint8) (BucketAlgorithm, error) {
	switch BucketAlgorithm(v) {
	case AlgUniform, AlgList, AlgTree, AlgStraw, AlgStraw2:
		return BucketAlgorithm(v), nil
	default:
		return 0, errors.Newf("crush: invalid bucket algorithm %d", v)
	}
}

// RuleType classifies a CrushRule's selection semantics.
type RuleType uint8

const (
	RuleReplicated RuleType = 1
	RuleErasure    RuleType = 3
	RuleMsrFirstN  RuleType = 4
	RuleMsrIndep   RuleType = 5
)

// ParseRuleType mirrors the reference's lenient From<u8>: unrecognized
// values default to Replicated rather than erroring, since rule_type is
// advisory metadata, not something the stack machine branches on.
func ParseRuleType(v uint8) RuleType {
	switch RuleType(v) {
	case RuleReplicated, RuleErasure, RuleMsrFirstN, RuleMsrIndep:
		return RuleType(v)
	default:
		return RuleReplicated
	}
}

// RuleOp is one opcode of the rule stack machine (spec §4.2). Numeric
// codes intentionally skip 5 to match the wire encoding.
type RuleOp uint32

const (
	OpNoop                        RuleOp = 0
	OpTake                        RuleOp = 1
	OpChooseFirstN                RuleOp = 2
	OpChooseIndep                 RuleOp = 3
	OpEmit                        RuleOp = 4
	OpChooseLeafFirstN            RuleOp = 6
	OpChooseLeafIndep             RuleOp = 7
	OpSetChooseTries              RuleOp = 8
	OpSetChooseLeafTries          RuleOp = 9
	OpSetChooseLocalTries         RuleOp = 10
	OpSetChooseLocalFallbackTries RuleOp = 11
	OpSetChooseLeafVaryR          RuleOp = 12
	OpSetChooseLeafStable         RuleOp = 13
	OpSetMsrDescents              RuleOp = 14
	OpSetMsrCollisionTries        RuleOp = 15
	OpChooseMsr                   RuleOp = 16
)

// ParseRuleOp validates a wire rule-op code.
func ParseRuleOp(v uint32) (RuleOp, error) {
	switch RuleOp(v) {
	case OpNoop, OpTake, OpChooseFirstN, OpChooseIndep, OpEmit,
		OpChooseLeafFirstN, OpChooseLeafIndep, OpSetChooseTries,
		OpSetChooseLeafTries, OpSetChooseLocalTries, OpSetChooseLocalFallbackTries,
		OpSetChooseLeafVaryR, OpSetChooseLeafStable, OpSetMsrDescents,
		OpSetMsrCollisionTries, OpChooseMsr:
		return RuleOp(v), nil
	default:
		return 0, errors.Newf("crush: invalid rule op %d", v)
	}
}

// RuleStep is one instruction of a CrushRule's program.
type RuleStep struct {
	Op   RuleOp
	Arg1 int32
	Arg2 int32
}

// Rule is an ordered program describing how to traverse the hierarchy
// to pick daemons for a PG (spec §3).
type Rule struct {
	RuleID   uint32
	RuleType RuleType
	Steps    []RuleStep
}

// BucketData holds the algorithm-specific auxiliary tables a bucket
// needs to select among its children. Only the fields used by the
// owning Bucket's Alg are populated (one or two, depending on Alg) — modeled as a tagged union
// (spec §9 "Polymorphism over bucket and rule variants... tagged
// unions rather than inheritance").
type BucketData struct {
	UniformItemWeight uint32

	ListItemWeights []uint32
	ListSumWeights  []uint32

	TreeNumNodes    uint32
	TreeNodeWeights []uint32

	StrawItemWeights []uint32
	StrawStraws      []uint32

	Straw2ItemWeights []uint32
}

// Bucket is an interior node of the placement hierarchy (spec §3
// "bucket"). Negative Items reference other buckets; non-negative
// Items reference devices.
type Bucket struct {
	ID         int32
	BucketType int32
	Alg        BucketAlgorithm
	Hash       uint8
	Weight     uint32 // 16.16 fixed-point
	Size       uint32
	Items      []int32
	Data       BucketData
}

// Map is the immutable hierarchy snapshot Placement consumes: buckets
// addressed by -1-id, rules by id, devices addressed directly by their
// non-negative id (spec §9 "arena-plus-index").
type Map struct {
	MaxBuckets int32
	MaxDevices int32
	MaxRules   uint32

	Buckets   []*Bucket
	Rules     []*Rule
	TypeNames map[int32]string
	Names     map[int32]string
	RuleNames map[uint32]string

	Tunables Tunables
}

// Tunables modify the selection algorithm's behavior to preserve
// historical placements across cluster upgrades (spec §3).
type Tunables struct {
	ChooseLocalTries         uint32
	ChooseLocalFallbackTries uint32
	ChooseTotalTries         uint32
	ChooseLeafDescendOnce    uint32
	ChooseLeafVaryR          uint8
	ChooseLeafStable         uint8
	AllowedBucketAlgs        uint32
}

// DefaultTunables matches the reference's CrushMap::new() defaults.
func DefaultTunables() Tunables {
	return Tunables{
		ChooseLocalTries:         2,
		ChooseLocalFallbackTries: 5,
		ChooseTotalTries:         19,
		ChooseLeafDescendOnce:    0,
		ChooseLeafVaryR:          0,
		ChooseLeafStable:         0,
		AllowedBucketAlgs:        0,
	}
}

// NewMap returns an empty map with default tunables.
func NewMap() *Map {
	return &Map{
		Names:     map[int32]string{},
		TypeNames: map[int32]string{},
		RuleNames: map[uint32]string{},
		Tunables:  DefaultTunables(),
	}
}

// Bucket looks up a bucket by its (negative) id.
func (m *Map) Bucket(id int32) (*Bucket, error) {
	if id >= 0 {
		return nil, errors.Newf("crush: invalid bucket id %d (devices have non-negative ids)", id)
	}
	idx := int(-1 - id)
	if idx < 0 || idx >= len(m.Buckets) || m.Buckets[idx] == nil {
		return nil, errors.Newf("crush: bucket %d not found", id)
	}
	return m.Buckets[idx], nil
}

// Rule looks up a rule by id.
func (m *Map) Rule(ruleID uint32) (*Rule, error) {
	if int(ruleID) >= len(m.Rules) || m.Rules[ruleID] == nil {
		return nil, errors.Newf("crush: rule %d not found", ruleID)
	}
	return m.Rules[ruleID], nil
}

// PutBucket stores b at its id-derived slot, growing the backing slice
// as needed.
func (m *Map) PutBucket(b *Bucket) {
	idx := int(-1 - b.ID)
	for len(m.Buckets) <= idx {
		m.Buckets = append(m.Buckets, nil)
	}
	m.Buckets[idx] = b
}

// PutRule stores r at its rule-id-derived slot, growing as needed.
func (m *Map) PutRule(r *Rule) {
	for len(m.Rules) <= int(r.RuleID) {
		m.Rules = append(m.Rules, nil)
	}
	m.Rules[r.RuleID] = r
}
