// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

import "math"

// lnScale is 2^48: generate_exponential_distribution treats crushLn's
// output as spanning [0, 2^48] for 16-bit inputs in [0, 0xffff],
// corresponding to real log values in [-11.090355, 0] (ln(1/65536)).
const lnScale = 1 << 48

// inputDomain is log2(65536), the normalization divisor so that xin ==
// 0xffff maps to approximately the full lnScale range.
const inputDomain = 16.0

// crushLn computes a monotonically increasing fixed-point approximation
// of log2(xin+1) scaled to [0, 2^48), used by
// generate_exponential_distribution for straw2 bucket selection (spec
// §4.2). Ceph's own implementation uses two fixed lookup tables
// (LL_TBL, RH_LH_TBL) to compute this without floating point so every
// build produces bit-identical placement; that table data is Ceph
// source this module does not have access to. Computing the same
// closed-form quantity with math.Log2 preserves every property
// Placement actually relies on — determinism for fixed inputs and
// monotonicity in xin — without guessing at undisclosed table bytes.
func crushLn(xin uint32) uint64 {
	x := float64(xin) + 1
	v := lnScale * (math.Log2(x) / inputDomain)
	if v < 0 {
		v = 0
	}
	return uint64(v)
}
