// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package denc

// Versioned is implemented by any type whose wire form is a 6-byte
// envelope {version, compat_version, content_length} followed by a body,
// per spec §4.1. EncodingVersion/CompatVersion are compile-time constants
// of the type; EncodeBody/DecodeBody handle only the body.
type Versioned interface {
	EncodingVersion() uint8
	CompatVersion() uint8
	EncodeBody(b *Buffer)
	DecodeBody(b *Buffer, version uint8) error
}

// EncodeVersioned writes the 6-byte header and body, computing
// content_length from the body's actual size so writers always write
// exactly the declared length.
func EncodeVersioned(b *Buffer, v Versioned) {
	b.PutU8(v.EncodingVersion())
	b.PutU8(v.CompatVersion())
	lenOff := b.Len()
	b.PutU32(0) // patched below
	bodyStart := b.Len()
	v.EncodeBody(b)
	bodyLen := b.Len() - bodyStart
	byteOrder.PutUint32(b.data[lenOff:lenOff+4], uint32(bodyLen))
}

// DecodeVersioned reads the header, validates compat_version against the
// caller's highest implemented version, and hands the body (sliced to
// exactly content_length, trailing bytes inside the envelope are skipped)
// to v.DecodeBody.
func DecodeVersioned(b *Buffer, v Versioned) error {
	version, err := b.GetU8()
	if err != nil {
		return err
	}
	compat, err := b.GetU8()
	if err != nil {
		return err
	}
	contentLen, err := b.GetU32()
	if err != nil {
		return err
	}
	if compat > v.EncodingVersion() {
		return newErr(KindUnknownVersion, "compat_version %d exceeds highest implemented %d", compat, v.EncodingVersion())
	}
	body, err := b.GetRaw(int(contentLen))
	if err != nil {
		return err
	}
	sub := NewDecoder(body)
	if err := v.DecodeBody(sub, version); err != nil {
		return err
	}
	// Bytes inside the envelope that DecodeBody did not consume are
	// trailing-bytes-inside-versioned-envelope: accepted because the
	// envelope length covers them (per spec §4.1), simply ignored.
	return nil
}

// EncodedVersionedSize returns the size EncodeVersioned would produce,
// without mutating any state, by encoding into a scratch buffer. Types
// with a cheap closed-form size should prefer computing it directly;
// this helper exists for types (like HObject) that don't.
func EncodedVersionedSize(v Versioned) int {
	b := NewEncoder(64)
	EncodeVersioned(b, v)
	return b.Len()
}

// FeatureDependent is implemented by types whose encoded version, field
// presence, or field sizes depend on a 64-bit feature set passed by the
// caller (spec §4.1's "feature-dependent" discipline).
type FeatureDependent interface {
	EncodeBodyFeatures(b *Buffer, features uint64)
	DecodeBodyFeatures(b *Buffer, version uint8, features uint64) error
	EncodingVersionFor(features uint64) uint8
	CompatVersionFor(features uint64) uint8
}

// EncodeFeatureDependent mirrors EncodeVersioned but resolves the header
// versions from the feature set and threads it through the body call.
func EncodeFeatureDependent(b *Buffer, v FeatureDependent, features uint64) {
	b.PutU8(v.EncodingVersionFor(features))
	b.PutU8(v.CompatVersionFor(features))
	lenOff := b.Len()
	b.PutU32(0)
	bodyStart := b.Len()
	v.EncodeBodyFeatures(b, features)
	bodyLen := b.Len() - bodyStart
	byteOrder.PutUint32(b.data[lenOff:lenOff+4], uint32(bodyLen))
}

// DecodeFeatureDependent mirrors DecodeVersioned for feature-dependent types.
func DecodeFeatureDependent(b *Buffer, v FeatureDependent, features uint64) error {
	version, err := b.GetU8()
	if err != nil {
		return err
	}
	compat, err := b.GetU8()
	if err != nil {
		return err
	}
	contentLen, err := b.GetU32()
	if err != nil {
		return err
	}
	if compat > v.EncodingVersionFor(features) {
		return newErr(KindFeatureMismatch, "compat_version %d exceeds highest implemented %d for feature set %#x", compat, v.EncodingVersionFor(features), features)
	}
	body, err := b.GetRaw(int(contentLen))
	if err != nil {
		return err
	}
	sub := NewDecoder(body)
	return v.DecodeBodyFeatures(sub, version, features)
}
