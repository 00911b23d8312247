// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package denc

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	enc := NewEncoder(32)
	enc.PutU8(7)
	enc.PutU16(1000)
	enc.PutU32(123456)
	enc.PutU64(1 << 40)
	enc.PutI64(-1)
	enc.PutBool(true)
	enc.PutString("hello")

	dec := NewDecoder(enc.Bytes())
	u8, err := dec.GetU8()
	require.NoError(t, err)
	require.EqualValues(t, 7, u8)

	u16, err := dec.GetU16()
	require.NoError(t, err)
	require.EqualValues(t, 1000, u16)

	u32, err := dec.GetU32()
	require.NoError(t, err)
	require.EqualValues(t, 123456, u32)

	u64, err := dec.GetU64()
	require.NoError(t, err)
	require.EqualValues(t, 1<<40, u64)

	i64, err := dec.GetI64()
	require.NoError(t, err)
	require.EqualValues(t, -1, i64)
	// Reinterpretation check: the same bits read back as unsigned are
	// 0xFFFFFFFFFFFFFFFF, per spec §4.1.
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), uint64(i64))

	b, err := dec.GetBool()
	require.NoError(t, err)
	require.True(t, b)

	s, err := dec.GetString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	require.Zero(t, dec.Remaining())
}

func TestShortBuffer(t *testing.T) {
	dec := NewDecoder([]byte{1, 2})
	_, err := dec.GetU32()
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindShortBuffer, derr.Kind)
	require.True(t, derr.Recoverable())
}

func TestVersionedEnvelopeRoundTrip(t *testing.T) {
	h := HObject{Oid: "foo", Hash: 4, Pool: 296, Snapid: SnapHead}
	data := EncodeHObject(h)
	got, err := DecodeHObject(data)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestVersionedEnvelopeUnknownVersion(t *testing.T) {
	b := NewEncoder(16)
	b.PutU8(4)
	b.PutU8(99) // compat_version far beyond anything implemented
	b.PutU32(0)
	var out HObject
	err := DecodeVersioned(NewDecoder(b.Bytes()), &out)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindUnknownVersion, derr.Kind)
}

// TestEmptyCursorCorpus reproduces spec §8 scenario 2: decoding the
// 39-byte blob as an empty listing cursor for pool 3.
func TestEmptyCursorCorpus(t *testing.T) {
	raw, err := hex.DecodeString("0403210000000000000000000000feffffffffffffff0000000000000000000300000000000000")
	require.NoError(t, err)
	require.Len(t, raw, 39)

	h, err := DecodeHObject(raw)
	require.NoError(t, err)
	require.Zero(t, h.Hash)
	require.EqualValues(t, 3, h.Pool)
	require.EqualValues(t, SnapHead, h.Snapid)
	require.False(t, h.Max)
	require.Empty(t, h.Key)
	require.Empty(t, h.Oid)
	require.Empty(t, h.Nspace)

	reencoded := EncodeHObject(h)
	require.Equal(t, raw, reencoded)
}

// TestCorpusHashPool296 reproduces the retrieved-corpus anchor for
// {hash: 4, pool: 296}.
func TestCorpusHashPool296(t *testing.T) {
	want, err := hex.DecodeString("0403210000000000000000000000feffffffffffffff0400000000000000002801000000000000")
	require.NoError(t, err)

	h := HObject{Snapid: SnapHead, Hash: 4, Pool: 296}
	got := EncodeHObject(h)
	require.Equal(t, want, got)

	decoded, err := DecodeHObject(want)
	require.NoError(t, err)
	require.Equal(t, h, decoded)
}

func TestPgNlsResponseRoundTrip(t *testing.T) {
	r := PgNlsResponse{
		Handle: EmptyCursor(3),
		Entries: []ListObject{
			{Oid: "a"},
			{Oid: "b", Nspace: "ns"},
		},
	}
	data := EncodePgNlsResponse(r)
	got, err := DecodePgNlsResponse(data)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestPgNlsResponseEmpty(t *testing.T) {
	r := PgNlsResponse{Handle: EmptyCursor(0)}
	data := EncodePgNlsResponse(r)
	got, err := DecodePgNlsResponse(data)
	require.NoError(t, err)
	require.Empty(t, got.Entries)
}

func TestHObjectOrdering(t *testing.T) {
	a := HObject{Pool: 1, Hash: 5}
	b := HObject{Pool: 2, Hash: 1}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))

	maxCursor := HObject{Pool: 1, Max: true}
	require.True(t, a.Less(maxCursor))
}
