// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package denc implements the binary wire codec used throughout the
// client: fixed-layout primitives, versioned envelopes, and
// feature-conditional field layouts.
package denc

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Kind classifies a codec failure so callers can decide whether it is
// recoverable at the session layer or fatal for the affected message.
type Kind int

const (
	// KindShortBuffer means the buffer ended before the declared layout did.
	KindShortBuffer Kind = iota
	// KindUnknownVersion means a versioned envelope's compat_version exceeds
	// what the decoder implements.
	KindUnknownVersion
	// KindTrailingBytes means a versioned envelope's declared length covers
	// bytes the type does not know how to interpret, and overflow checking
	// rejected them.
	KindTrailingBytes
	// KindFeatureMismatch means a feature-dependent type could not be
	// encoded or decoded under the given feature set.
	KindFeatureMismatch
	// KindValueOutOfRange means a decoded value violates a type invariant
	// (e.g. a negative bucket id used where only on-wire ids are valid).
	KindValueOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindShortBuffer:
		return "short-buffer"
	case KindUnknownVersion:
		return "unknown-version"
	case KindTrailingBytes:
		return "trailing-bytes"
	case KindFeatureMismatch:
		return "feature-mismatch"
	case KindValueOutOfRange:
		return "value-out-of-range"
	default:
		return "unknown"
	}
}

// Error is the discriminated codec error exposed to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: errors.Newf(format, args...).Error()}
}

// Recoverable reports whether the error can be recovered by resetting the
// owning session rather than surfacing to the caller, per spec §7.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindShortBuffer, KindTrailingBytes:
		return true
	default:
		return false
	}
}

// byteOrder is the wire byte order: little-endian throughout, per spec §4.1.
var byteOrder = binary.LittleEndian

// Buffer is a cursor over an encode/decode target. It is intentionally
// minimal: encoders append, decoders advance an offset, both report
// short-buffer/overflow as denc.Error rather than panicking.
type Buffer struct {
	data []byte
	off  int
}

// NewDecoder wraps data for decoding.
func NewDecoder(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewEncoder returns an empty buffer sized to hint, for encoding.
func NewEncoder(hint int) *Buffer {
	return &Buffer{data: make([]byte, 0, hint)}
}

// Bytes returns the encoded contents (encoder use) or the remaining
// undecoded tail (decoder use, for diagnostics).
func (b *Buffer) Bytes() []byte { return b.data[b.off:] }

// Remaining reports how many undecoded bytes are left.
func (b *Buffer) Remaining() int { return len(b.data) - b.off }

// Len reports the number of bytes written so far (encoder use).
func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) need(n int) error {
	if b.Remaining() < n {
		return newErr(KindShortBuffer, "need %d bytes, have %d", n, b.Remaining())
	}
	return nil
}

func (b *Buffer) take(n int) []byte {
	s := b.data[b.off : b.off+n]
	b.off += n
	return s
}

// --- fixed-width primitives ---

func (b *Buffer) PutU8(v uint8) { b.data = append(b.data, v) }

func (b *Buffer) GetU8() (uint8, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	return b.take(1)[0], nil
}

func (b *Buffer) PutU16(v uint16) {
	var tmp [2]byte
	byteOrder.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) GetU16() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b.take(2)), nil
}

func (b *Buffer) PutU32(v uint32) {
	var tmp [4]byte
	byteOrder.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) GetU32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b.take(4)), nil
}

func (b *Buffer) PutU64(v uint64) {
	var tmp [8]byte
	byteOrder.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) GetU64() (uint64, error) {
	if err := b.need(8); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b.take(8)), nil
}

// PutI64/GetI64 round-trip a signed 64-bit field as its unsigned bit
// pattern, per spec §4.1's reinterpretation rule (e.g. pool field -1 <->
// 0xFFFFFFFFFFFFFFFF).
func (b *Buffer) PutI64(v int64) { b.PutU64(uint64(v)) }

func (b *Buffer) GetI64() (int64, error) {
	u, err := b.GetU64()
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

func (b *Buffer) PutBool(v bool) {
	if v {
		b.PutU8(1)
	} else {
		b.PutU8(0)
	}
}

func (b *Buffer) GetBool() (bool, error) {
	v, err := b.GetU8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (b *Buffer) PutRaw(p []byte) { b.data = append(b.data, p...) }

func (b *Buffer) GetRaw(n int) ([]byte, error) {
	if err := b.need(n); err != nil {
		return nil, err
	}
	return b.take(n), nil
}

// --- container encodings (spec §4.1) ---

// PutString writes a 4-byte length prefix then the raw bytes.
func (b *Buffer) PutString(s string) {
	b.PutU32(uint32(len(s)))
	b.data = append(b.data, s...)
}

func (b *Buffer) GetString() (string, error) {
	n, err := b.GetU32()
	if err != nil {
		return "", err
	}
	raw, err := b.GetRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// PutCount writes a 4-byte element/pair count for a sequence or mapping.
func (b *Buffer) PutCount(n int) { b.PutU32(uint32(n)) }

func (b *Buffer) GetCount() (int, error) {
	n, err := b.GetU32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
