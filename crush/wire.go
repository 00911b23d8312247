// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

import (
	"github.com/cockroachdb/errors"

	"github.com/tchaikov/ceph-sub002/denc"
)

// Encode serializes a Map with denc primitives so a monitor-pushed
// hierarchy blob can be carried over msgr2 and rebuilt client-side
// (spec §4.3 "a replacement hierarchy" travels inside an incremental).
// This is this client's own wire schema for the hierarchy, not a
// reproduction of the reference binary CRUSH map format: nothing in
// the retrieved corpus specifies that format's byte layout, and the
// placement algorithm itself (the part that must be bit-exact) only
// depends on the decoded Map, not on any particular encoding of it.
func (m *Map) Encode() []byte {
	b := denc.NewEncoder(256)
	b.PutU32(uint32(m.MaxBuckets))
	b.PutU32(uint32(m.MaxDevices))
	b.PutU32(m.MaxRules)

	b.PutCount(len(m.Buckets))
	for _, bucket := range m.Buckets {
		if bucket == nil {
			b.PutBool(false)
			continue
		}
		b.PutBool(true)
		encodeBucket(b, bucket)
	}

	b.PutCount(len(m.Rules))
	for _, r := range m.Rules {
		if r == nil {
			b.PutBool(false)
			continue
		}
		b.PutBool(true)
		encodeRule(b, r)
	}

	encodeIntStringMap(b, m.TypeNames)
	encodeIntStringMap(b, m.Names)
	encodeRuleNames(b, m.RuleNames)

	t := m.Tunables
	b.PutU32(t.ChooseLocalTries)
	b.PutU32(t.ChooseLocalFallbackTries)
	b.PutU32(t.ChooseTotalTries)
	b.PutU32(t.ChooseLeafDescendOnce)
	b.PutU8(t.ChooseLeafVaryR)
	b.PutU8(t.ChooseLeafStable)
	b.PutU32(t.AllowedBucketAlgs)

	return b.Bytes()
}

// DecodeMap is Encode's inverse.
func DecodeMap(data []byte) (*Map, error) {
	b := denc.NewDecoder(data)
	m := NewMap()

	maxBuckets, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding max_buckets")
	}
	m.MaxBuckets = int32(maxBuckets)

	maxDevices, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding max_devices")
	}
	m.MaxDevices = int32(maxDevices)

	m.MaxRules, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding max_rules")
	}

	bucketCount, err := b.GetCount()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket count")
	}
	m.Buckets = make([]*Bucket, bucketCount)
	for i := 0; i < bucketCount; i++ {
		present, err := b.GetBool()
		if err != nil {
			return nil, errors.Wrap(err, "crush: decoding bucket presence")
		}
		if !present {
			continue
		}
		bucket, err := decodeBucket(b)
		if err != nil {
			return nil, err
		}
		m.Buckets[i] = bucket
	}

	ruleCount, err := b.GetCount()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding rule count")
	}
	m.Rules = make([]*Rule, ruleCount)
	for i := 0; i < ruleCount; i++ {
		present, err := b.GetBool()
		if err != nil {
			return nil, errors.Wrap(err, "crush: decoding rule presence")
		}
		if !present {
			continue
		}
		rule, err := decodeRule(b)
		if err != nil {
			return nil, err
		}
		m.Rules[i] = rule
	}

	if m.TypeNames, err = decodeIntStringMap(b); err != nil {
		return nil, errors.Wrap(err, "crush: decoding type_names")
	}
	if m.Names, err = decodeIntStringMap(b); err != nil {
		return nil, errors.Wrap(err, "crush: decoding names")
	}
	if m.RuleNames, err = decodeRuleNames(b); err != nil {
		return nil, errors.Wrap(err, "crush: decoding rule_names")
	}

	m.Tunables.ChooseLocalTries, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.ChooseLocalFallbackTries, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.ChooseTotalTries, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.ChooseLeafDescendOnce, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.ChooseLeafVaryR, err = b.GetU8()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.ChooseLeafStable, err = b.GetU8()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}
	m.Tunables.AllowedBucketAlgs, err = b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding tunables")
	}

	return m, nil
}

func encodeBucket(b *denc.Buffer, bucket *Bucket) {
	b.PutU32(uint32(bucket.ID))
	b.PutU32(uint32(bucket.BucketType))
	b.PutU8(uint8(bucket.Alg))
	b.PutU8(bucket.Hash)
	b.PutU32(bucket.Weight)
	b.PutU32(bucket.Size)
	b.PutU32Slice(uint32Slice(bucket.Items))

	switch bucket.Alg {
	case AlgUniform:
		b.PutU32(bucket.Data.UniformItemWeight)
	case AlgList:
		b.PutU32Slice(bucket.Data.ListItemWeights)
		b.PutU32Slice(bucket.Data.ListSumWeights)
	case AlgTree:
		b.PutU32(bucket.Data.TreeNumNodes)
		b.PutU32Slice(bucket.Data.TreeNodeWeights)
	case AlgStraw:
		b.PutU32Slice(bucket.Data.StrawItemWeights)
		b.PutU32Slice(bucket.Data.StrawStraws)
	case AlgStraw2:
		b.PutU32Slice(bucket.Data.Straw2ItemWeights)
	}
}

func decodeBucket(b *denc.Buffer) (*Bucket, error) {
	id, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket id")
	}
	bucketType, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket type")
	}
	algByte, err := b.GetU8()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket alg")
	}
	alg, err := ParseBucketAlgorithm(algByte)
	if err != nil {
		return nil, err
	}
	hash, err := b.GetU8()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket hash")
	}
	weight, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket weight")
	}
	size, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket size")
	}
	itemsU32, err := b.GetU32Slice()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding bucket items")
	}

	bucket := &Bucket{
		ID:         int32(id),
		BucketType: int32(bucketType),
		Alg:        alg,
		Hash:       hash,
		Weight:     weight,
		Size:       size,
		Items:      int32Slice(itemsU32),
	}

	switch alg {
	case AlgUniform:
		if bucket.Data.UniformItemWeight, err = b.GetU32(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding uniform bucket data")
		}
	case AlgList:
		if bucket.Data.ListItemWeights, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding list bucket data")
		}
		if bucket.Data.ListSumWeights, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding list bucket data")
		}
	case AlgTree:
		if bucket.Data.TreeNumNodes, err = b.GetU32(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding tree bucket data")
		}
		if bucket.Data.TreeNodeWeights, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding tree bucket data")
		}
	case AlgStraw:
		if bucket.Data.StrawItemWeights, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding straw bucket data")
		}
		if bucket.Data.StrawStraws, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding straw bucket data")
		}
	case AlgStraw2:
		if bucket.Data.Straw2ItemWeights, err = b.GetU32Slice(); err != nil {
			return nil, errors.Wrap(err, "crush: decoding straw2 bucket data")
		}
	}

	return bucket, nil
}

func encodeRule(b *denc.Buffer, r *Rule) {
	b.PutU32(r.RuleID)
	b.PutU8(uint8(r.RuleType))
	b.PutCount(len(r.Steps))
	for _, s := range r.Steps {
		b.PutU32(uint32(s.Op))
		b.PutU32(uint32(s.Arg1))
		b.PutU32(uint32(s.Arg2))
	}
}

func decodeRule(b *denc.Buffer) (*Rule, error) {
	ruleID, err := b.GetU32()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding rule id")
	}
	ruleTypeByte, err := b.GetU8()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding rule type")
	}
	stepCount, err := b.GetCount()
	if err != nil {
		return nil, errors.Wrap(err, "crush: decoding rule step count")
	}
	steps := make([]RuleStep, stepCount)
	for i := range steps {
		op, err := b.GetU32()
		if err != nil {
			return nil, errors.Wrap(err, "crush: decoding rule step op")
		}
		parsedOp, err := ParseRuleOp(op)
		if err != nil {
			return nil, err
		}
		arg1, err := b.GetU32()
		if err != nil {
			return nil, errors.Wrap(err, "crush: decoding rule step arg1")
		}
		arg2, err := b.GetU32()
		if err != nil {
			return nil, errors.Wrap(err, "crush: decoding rule step arg2")
		}
		steps[i] = RuleStep{Op: parsedOp, Arg1: int32(arg1), Arg2: int32(arg2)}
	}
	return &Rule{RuleID: ruleID, RuleType: ParseRuleType(ruleTypeByte), Steps: steps}, nil
}

func encodeIntStringMap(b *denc.Buffer, m map[int32]string) {
	b.PutCount(len(m))
	for k, v := range m {
		b.PutU32(uint32(k))
		b.PutString(v)
	}
}

func decodeIntStringMap(b *denc.Buffer) (map[int32]string, error) {
	n, err := b.GetCount()
	if err != nil {
		return nil, err
	}
	m := make(map[int32]string, n)
	for i := 0; i < n; i++ {
		k, err := b.GetU32()
		if err != nil {
			return nil, err
		}
		v, err := b.GetString()
		if err != nil {
			return nil, err
		}
		m[int32(k)] = v
	}
	return m, nil
}

func encodeRuleNames(b *denc.Buffer, m map[uint32]string) {
	b.PutCount(len(m))
	for k, v := range m {
		b.PutU32(k)
		b.PutString(v)
	}
}

func decodeRuleNames(b *denc.Buffer) (map[uint32]string, error) {
	n, err := b.GetCount()
	if err != nil {
		return nil, err
	}
	m := make(map[uint32]string, n)
	for i := 0; i < n; i++ {
		k, err := b.GetU32()
		if err != nil {
			return nil, err
		}
		v, err := b.GetString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func uint32Slice(items []int32) []uint32 {
	out := make([]uint32, len(items))
	for i, v := range items {
		out[i] = uint32(v)
	}
	return out
}

func int32Slice(items []uint32) []int32 {
	out := make([]int32, len(items))
	for i, v := range items {
		out[i] = int32(v)
	}
	return out
}
