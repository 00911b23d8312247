// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package denc

import "math"

// Snapshot identifier sentinels (spec §3 "snapshot identifier").
const (
	SnapHead = math.MaxUint64 - 1
	SnapDir  = math.MaxUint64
)

// HObject is the hash-object identifier used both as a full object
// reference and, with Max set, as an opaque listing cursor (spec §4.6
// "pagination cursor = opaque hash-object identifier").
type HObject struct {
	Key    string
	Oid    string
	Snapid uint64
	Hash   uint32
	Max    bool
	Nspace string
	// Pool holds the signed 64-bit value written on the wire (spec
	// §4.1): PutI64/GetI64 keep the bit pattern, so -1 round-trips as
	// -1. DecodeBody's pre-Hammer rule below is the one exception.
	Pool int64
}

// EmptyCursor returns the cursor denoting "start of PG" for pool.
func EmptyCursor(pool int64) HObject {
	return HObject{Snapid: SnapHead, Pool: pool}
}

// Less implements the hobject_t ordering: max, then pool, then the
// bitwise hash (masked key-or-hash), then namespace, then oid, then
// snapshot id.
func (h HObject) Less(o HObject) bool {
	if h.Max != o.Max {
		return !h.Max && o.Max
	}
	if h.Pool != o.Pool {
		return h.Pool < o.Pool
	}
	hk, ok := h.sortHash(), o.sortHash()
	if hk != ok {
		return hk < ok
	}
	if h.Nspace != o.Nspace {
		return h.Nspace < o.Nspace
	}
	if h.Oid != o.Oid {
		return h.Oid < o.Oid
	}
	return h.Snapid < o.Snapid
}

// sortHash mirrors hobject_t's bit-reversed hash comparison key: the key
// field (when set) takes precedence over the raw hash for ordering.
func (h HObject) sortHash() uint32 {
	if h.Key != "" {
		var acc uint32
		for i := 0; i < len(h.Key); i++ {
			acc = acc*131 + uint32(h.Key[i])
		}
		return acc
	}
	return reverseBits32(h.Hash)
}

func reverseBits32(v uint32) uint32 {
	var r uint32
	for i := 0; i < 32; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

const (
	hobjectVersion       = 4
	hobjectCompatVersion = 3
)

func (h HObject) EncodingVersion() uint8 { return hobjectVersion }
func (h HObject) CompatVersion() uint8   { return hobjectCompatVersion }

// EncodeBody writes fields in the reference's exact wire order: key,
// oid, snapid, hash, max, nspace, pool.
func (h HObject) EncodeBody(b *Buffer) {
	b.PutString(h.Key)
	b.PutString(h.Oid)
	b.PutU64(h.Snapid)
	b.PutU32(h.Hash)
	b.PutBool(h.Max)
	b.PutString(h.Nspace)
	b.PutI64(h.Pool)
}

// DecodeBody decodes fields in wire order, applying the Hammer-era
// empty-cursor compatibility fix: a decoded pool of -1 together with a
// zero snapid/hash, unset max and empty oid is normalized to
// math.MinInt64, matching pre-Hammer encodings of the sentinel cursor.
func (h *HObject) DecodeBody(b *Buffer, version uint8) error {
	var err error
	if h.Key, err = b.GetString(); err != nil {
		return err
	}
	if h.Oid, err = b.GetString(); err != nil {
		return err
	}
	if h.Snapid, err = b.GetU64(); err != nil {
		return err
	}
	if h.Hash, err = b.GetU32(); err != nil {
		return err
	}
	if h.Max, err = b.GetBool(); err != nil {
		return err
	}
	if h.Nspace, err = b.GetString(); err != nil {
		return err
	}
	if h.Pool, err = b.GetI64(); err != nil {
		return err
	}
	if h.Pool == -1 && h.Snapid == 0 && h.Hash == 0 && !h.Max && h.Oid == "" {
		h.Pool = math.MinInt64
	}
	return nil
}

// EncodeHObject encodes h as a full versioned envelope.
func EncodeHObject(h HObject) []byte {
	b := NewEncoder(48)
	EncodeVersioned(b, &h)
	return b.Bytes()
}

// DecodeHObject decodes a versioned HObject envelope.
func DecodeHObject(data []byte) (HObject, error) {
	var h HObject
	b := NewDecoder(data)
	if err := DecodeVersioned(b, &h); err != nil {
		return HObject{}, err
	}
	return h, nil
}
