// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

// IsUpFunc reports whether a device id is currently up (and therefore
// eligible to be selected); ClusterMap supplies the real implementation.
type IsUpFunc func(deviceID int32) bool

// ObjectToPG hashes an object name and mixes it against pool metadata to
// produce the seed identifying its placement group (spec §4.2
// "Object-to-PG").
func ObjectToPG(objectName string, pgNum uint32, hashpspool bool, poolID int64) uint32 {
	h := StrHash(objectName)
	x := h
	if hashpspool {
		// crush_hash32_2(ps, pool), not an XOR mix (corpus anchor
		// crush_hash32_2(10, 2) == 1838530675, spec §8 scenario 3).
		x = Hash32_2(h, uint32(poolID))
	}
	return stableMod(x, pgNum, pgNumMask(pgNum))
}

// pgNumMask returns the bitmask covering pgNum's value range, handling
// pg_num that isn't a power of two (spec §8 "pg_num not a power of two:
// modulo-then-clip behavior matches reference").
func pgNumMask(pgNum uint32) uint32 {
	if pgNum == 0 {
		return 0
	}
	bits := bitsOf(pgNum - 1)
	return (uint32(1) << bits) - 1
}

func bitsOf(v uint32) uint32 {
	var bits uint32
	for v > 0 {
		bits++
		v >>= 1
	}
	return bits
}

// stableMod masks hash, then clips into [0, pgNum) by retrying with the
// next-narrower mask when the masked value overflows pgNum — Ceph's
// ceph_stable_mod.
func stableMod(hash, pgNum, mask uint32) uint32 {
	if pgNum == 0 {
		return 0
	}
	v := hash & mask
	if v < pgNum {
		return v
	}
	return hash & (mask >> 1)
}

// deviceType is the hierarchy type id meaning "device" (leaf), per spec
// §4.2 "choose-firstn(n, type) ... 0 = device".
const deviceType = 0

// PlacePG runs rule as a stack machine over hierarchy (spec §4.2
// "PG-to-daemon"), returning an ordered list of up to `size` device ids.
// The first entry for which isUp returns true is the primary.
func PlacePG(hierarchy *Map, rule *Rule, pgSeed uint32, size int, isUp IsUpFunc) []int32 {
	var input, output []int32
	tries := hierarchy.Tunables.ChooseTotalTries
	if tries == 0 {
		tries = 19
	}

	for _, step := range rule.Steps {
		switch step.Op {
		case OpTake:
			input = []int32{step.Arg1}

		case OpChooseFirstN, OpChooseLeafFirstN, OpChooseIndep, OpChooseLeafIndep:
			n := resolveN(step.Arg1, size)
			wantType := step.Arg2
			leaf := step.Op == OpChooseLeafFirstN || step.Op == OpChooseLeafIndep
			rejected := map[int32]bool{}
			var next []int32
			for _, bkt := range input {
				count := 0
				for attempt := 0; count < n && attempt < int(tries); attempt++ {
					got, ok := chooseDescend(hierarchy, bkt, pgSeed, wantType, leaf, uint32(attempt), tries, rejected, isUp)
					if !ok {
						continue
					}
					rejected[got] = true
					next = append(next, got)
					count++
				}
				// choose_total_tries exhausted with fewer than n selections:
				// leave the remainder empty, not a failure (spec §4.2).
			}
			input = next

		case OpEmit:
			output = append(output, input...)
			input = nil

		case OpSetChooseTries:
			tries = uint32(step.Arg1)

		case OpSetChooseLeafTries, OpSetChooseLocalTries, OpSetChooseLocalFallbackTries,
			OpSetChooseLeafVaryR, OpSetChooseLeafStable, OpSetMsrDescents, OpSetMsrCollisionTries:
			// Tunable adjustments that refine retry/variance behavior beyond
			// the total-tries budget; hierarchy.Tunables already carries the
			// published defaults and incrementals apply them at map-build
			// time, so these steps are no-ops against the already-resolved
			// tunable set.

		case OpNoop, OpChooseMsr:
			// Msr (mirrored-stretch-replication) selection is out of scope
			// for the object/replicated placement path this client drives.
		}
	}

	if len(output) > size {
		output = output[:size]
	}
	return output
}

func resolveN(arg1 int32, poolSize int) int {
	if arg1 <= 0 {
		return poolSize + int(arg1)
	}
	return int(arg1)
}

// chooseDescend recursively walks down the hierarchy from item, looking
// for a child at wantType (or, when leaf is set, a device regardless of
// intermediate bucket types). Collisions with already-selected or
// down/out devices retry with an incremented local attempt counter
// (spec §4.2 "Collisions... force a retry up to choose_total_tries").
func chooseDescend(m *Map, item int32, x uint32, wantType int32, leaf bool, r uint32, tries uint32, rejected map[int32]bool, isUp IsUpFunc) (int32, bool) {
	if item >= 0 {
		// Reached a device.
		if rejected[item] {
			return 0, false
		}
		if isUp != nil && !isUp(item) {
			return 0, false
		}
		return item, true
	}

	bucket, err := m.Bucket(item)
	if err != nil {
		return 0, false
	}

	atTarget := bucket.BucketType == wantType
	if atTarget && !leaf {
		if rejected[item] {
			return 0, false
		}
		return item, true
	}

	for attempt := uint32(0); attempt < tries; attempt++ {
		child, ok := chooseBucket(bucket, x, r+attempt)
		if !ok {
			continue
		}
		if child >= 0 {
			if rejected[child] {
				continue
			}
			if isUp != nil && !isUp(child) {
				continue
			}
			return child, true
		}
		got, ok2 := chooseDescend(m, child, x, wantType, leaf, r+attempt, tries, rejected, isUp)
		if ok2 {
			return got, true
		}
	}
	return 0, false
}

// Primary returns the first up device in an ordered placement result, or
// false if every candidate is down (spec §3 "the first live daemon is
// the primary").
func Primary(order []int32, isUp IsUpFunc) (int32, bool) {
	for _, d := range order {
		if isUp == nil || isUp(d) {
			return d, true
		}
	}
	return 0, false
}
