// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crush implements the placement engine: the rjenkins1 hash
// family, the five bucket selection algorithms, and the rule stack
// machine that walks the cluster hierarchy (spec §4.2).
package crush

// hashSeed is the fixed constant seeding every rjenkins1 hash call
// (Ceph's CRUSH_HASH_SEED). All arithmetic here wraps (spec §4.2 "all
// arithmetic uses wrapping semantics"), which is Go's default uint32
// behavior.
const hashSeed uint32 = 1315423911

// hashmix is Ceph's crush_hashmix macro: an avalanche mixing step
// shared by every crush_hash32* variant.
func hashmix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= b
	a -= c
	a ^= c >> 13

	b -= c
	b -= a
	b ^= a << 8

	c -= a
	c -= b
	c ^= b >> 13

	a -= b
	a -= c
	a ^= c >> 12

	b -= c
	b -= a
	b ^= a << 16

	c -= a
	c -= b
	c ^= b >> 5

	a -= b
	a -= c
	a ^= c >> 3

	b -= c
	b -= a
	b ^= a << 10

	c -= a
	c -= b
	c ^= b >> 15

	return a, b, c
}

// Hash32 computes the rjenkins1 hash of one 32-bit input.
func Hash32(a uint32) uint32 {
	hash := hashSeed ^ a
	b := a
	x := uint32(231232)
	y := uint32(1232)

	b, x, hash = hashmix(b, x, hash)
	y, a, hash = hashmix(y, a, hash)

	return hash
}

// Hash32_2 computes the rjenkins1 hash of two 32-bit inputs. This is
// the variant exercised by the corpus anchor crush_hash32_2(10, 2) ==
// 1838530675 (spec §8 scenario 3).
func Hash32_2(a, b uint32) uint32 {
	hash := hashSeed ^ a ^ b
	x := uint32(231232)
	y := uint32(1232)

	a, b, hash = hashmix(a, b, hash)
	x, a, hash = hashmix(x, a, hash)
	b, y, hash = hashmix(b, y, hash)

	return hash
}

// Hash32_3 computes the rjenkins1 hash of three 32-bit inputs.
func Hash32_3(a, b, c uint32) uint32 {
	hash := hashSeed ^ a ^ b ^ c
	x := uint32(231232)
	y := uint32(1232)

	a, b, hash = hashmix(a, b, hash)
	c, x, hash = hashmix(c, x, hash)
	y, a, hash = hashmix(y, a, hash)
	b, x, hash = hashmix(b, x, hash)
	y, c, hash = hashmix(y, c, hash)

	return hash
}

// Hash32_4 computes the rjenkins1 hash of four 32-bit inputs.
func Hash32_4(a, b, c, d uint32) uint32 {
	hash := hashSeed ^ a ^ b ^ c ^ d
	x := uint32(231232)
	y := uint32(1232)

	a, b, hash = hashmix(a, b, hash)
	c, d, hash = hashmix(c, d, hash)
	a, x, hash = hashmix(a, x, hash)
	y, b, hash = hashmix(y, b, hash)
	c, x, hash = hashmix(c, x, hash)
	y, d, hash = hashmix(y, d, hash)

	return hash
}

// Hash32_5 computes the rjenkins1 hash of five 32-bit inputs.
func Hash32_5(a, b, c, d, e uint32) uint32 {
	hash := hashSeed ^ a ^ b ^ c ^ d ^ e
	x := uint32(231232)
	y := uint32(1232)

	a, b, hash = hashmix(a, b, hash)
	c, d, hash = hashmix(c, d, hash)
	e, x, hash = hashmix(e, x, hash)
	y, a, hash = hashmix(y, a, hash)
	b, x, hash = hashmix(b, x, hash)
	y, c, hash = hashmix(y, c, hash)
	d, x, hash = hashmix(d, x, hash)
	y, e, hash = hashmix(y, e, hash)

	return hash
}

// rjenkinsMix is the string-hash variant's mix step: identical shape to
// hashmix but kept distinct because the reference keeps it as a
// separate function (ceph_hash.cc mirrors this split).
func rjenkinsMix(a, b, c uint32) (uint32, uint32, uint32) {
	return hashmix(a, b, c)
}

// StrHash hashes an object name using Ceph's ceph_str_hash_rjenkins:
// 12-byte little-endian chunks folded through rjenkinsMix, with a tail
// switch for the trailing 1..11 bytes. Used by Placement to turn an
// object name into the 32-bit seed that selects its PG (spec §4.2).
func StrHash(s string) uint32 {
	data := []byte(s)
	a := uint32(0x9e3779b9) // the golden ratio
	b := a
	c := uint32(0)

	i := 0
	n := len(data)
	for n-i >= 12 {
		a += le32(data, i)
		b += le32(data, i+4)
		c += le32(data, i+8)
		a, b, c = rjenkinsMix(a, b, c)
		i += 12
	}

	c += uint32(n)
	rem := n - i

	switch rem {
	case 11:
		c += uint32(data[i+10]) << 24
		fallthrough
	case 10:
		c += uint32(data[i+9]) << 16
		fallthrough
	case 9:
		c += uint32(data[i+8]) << 8
		fallthrough
	case 8:
		b += uint32(data[i+7]) << 24
		fallthrough
	case 7:
		b += uint32(data[i+6]) << 16
		fallthrough
	case 6:
		b += uint32(data[i+5]) << 8
		fallthrough
	case 5:
		b += uint32(data[i+4])
		fallthrough
	case 4:
		a += uint32(data[i+3]) << 24
		fallthrough
	case 3:
		a += uint32(data[i+2]) << 16
		fallthrough
	case 2:
		a += uint32(data[i+1]) << 8
		fallthrough
	case 1:
		a += uint32(data[i])
	case 0:
		// no trailing bytes to fold in
	}
	a, b, c = rjenkinsMix(a, b, c)
	return c
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}
