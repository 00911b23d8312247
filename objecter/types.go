// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package objecter implements the object client: per-daemon sessions,
// throttled and tracked in-flight operations, and the read/write/stat/
// delete/list operation catalogue (spec §4.6).
package objecter

import (
	"time"

	"github.com/tchaikov/ceph-sub002/denc"
)

// OpCode identifies one sub-operation within an OSDOp request (spec
// §4.6 "operation catalogue").
type OpCode uint16

const (
	OpRead OpCode = iota + 1
	OpSparseRead
	OpWriteFull
	OpStat
	OpDelete
	OpList
)

func (c OpCode) String() string {
	switch c {
	case OpRead:
		return "read"
	case OpSparseRead:
		return "sparse-read"
	case OpWriteFull:
		return "write-full"
	case OpStat:
		return "stat"
	case OpDelete:
		return "delete"
	case OpList:
		return "list"
	default:
		return "unknown"
	}
}

// OSDOp is one sub-op of an operation envelope: a code plus the
// offset/length/data fields relevant to that code (spec §4.6 "An
// operation may contain multiple sub-ops").
type OSDOp struct {
	Code   OpCode
	Offset uint64
	Length uint64
	Data   []byte
}

func ReadOp(offset, length uint64) OSDOp {
	return OSDOp{Code: OpRead, Offset: offset, Length: length}
}

func SparseReadOp(offset, length uint64) OSDOp {
	return OSDOp{Code: OpSparseRead, Offset: offset, Length: length}
}

func WriteFullOp(data []byte) OSDOp {
	return OSDOp{Code: OpWriteFull, Length: uint64(len(data)), Data: data}
}

func StatOp() OSDOp { return OSDOp{Code: OpStat} }

func DeleteOp() OSDOp { return OSDOp{Code: OpDelete} }

// ListPGOp builds a list sub-op continuing from cursor (its zero value
// starts a listing from the beginning of the PG), capped at maxEntries
// per reply (spec §4.6 "Listings are per-PG").
func ListPGOp(cursor ListCursor, maxEntries uint32) OSDOp {
	b := denc.NewEncoder(48)
	cursor.Encode(b)
	return OSDOp{Code: OpList, Length: uint64(maxEntries), Data: b.Bytes()}
}

func (op OSDOp) Encode(b *denc.Buffer) {
	b.PutU16(uint16(op.Code))
	b.PutU64(op.Offset)
	b.PutU64(op.Length)
	b.PutBytes(op.Data)
}

func DecodeOSDOp(b *denc.Buffer) (OSDOp, error) {
	var op OSDOp
	code, err := b.GetU16()
	if err != nil {
		return op, err
	}
	op.Code = OpCode(code)
	if op.Offset, err = b.GetU64(); err != nil {
		return op, err
	}
	if op.Length, err = b.GetU64(); err != nil {
		return op, err
	}
	if op.Data, err = b.GetBytes(); err != nil {
		return op, err
	}
	return op, nil
}

// ReadResult is the decoded outcome of a read/write_full/stat/delete
// reply's per-op result, sized for the common read case.
type ReadResult struct {
	Data    []byte
	Version uint64
}

// SparseExtent is one contiguous data-bearing region of a sparse read
// reply.
type SparseExtent struct {
	Offset uint64
	Length uint64
}

// SparseReadResult carries the extent map plus the packed data for
// every extent, concatenated in extent order (spec §4.6 "sparse_read
// (returns extents + packed data)").
type SparseReadResult struct {
	Extents []SparseExtent
	Data    []byte
	Version uint64
}

// StatResult is an object's size and last-modified time (spec §4.6
// "stat (size, mtime)").
type StatResult struct {
	Size  uint64
	Mtime time.Time
}

// WriteResult carries the version an object has after a successful
// write, used by read-after-write callers to check freshness.
type WriteResult struct {
	Version uint64
}

// ListCursor is the opaque pagination cursor spec §4.6 describes: a
// hash anchor within a PG, the pool id, a snapshot id, and an
// end-of-listing flag. The exact reference byte layout was not part of
// the retrieved corpus, so this encoding is this client's own design,
// built from the fields spec §8's cursor scenario names.
type ListCursor struct {
	Hash uint32
	Pool int64
	Snap uint64
	End  bool

	// Namespace/locator round-trip as empty strings in the common case
	// but are part of the encoded layout (spec §8 scenario 2 "all
	// strings empty").
	Namespace string
	Locator   string
	Nspace    string
}

// SnapHead is the sentinel snapshot id meaning "the live (non-snapshot)
// object", matching the reference's CEPH_NOSNAP.
const SnapHead uint64 = denc.SnapHead

func (c ListCursor) Encode(b *denc.Buffer) {
	b.PutU32(c.Hash)
	b.PutI64(c.Pool)
	b.PutU64(c.Snap)
	b.PutBool(c.End)
	b.PutString(c.Namespace)
	b.PutString(c.Locator)
	b.PutString(c.Nspace)
}

func DecodeListCursor(b *denc.Buffer) (ListCursor, error) {
	var c ListCursor
	var err error
	if c.Hash, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.Pool, err = b.GetI64(); err != nil {
		return c, err
	}
	if c.Snap, err = b.GetU64(); err != nil {
		return c, err
	}
	if c.End, err = b.GetBool(); err != nil {
		return c, err
	}
	if c.Namespace, err = b.GetString(); err != nil {
		return c, err
	}
	if c.Locator, err = b.GetString(); err != nil {
		return c, err
	}
	if c.Nspace, err = b.GetString(); err != nil {
		return c, err
	}
	return c, nil
}

// ListEntry is one object name returned by a listing request.
type ListEntry struct {
	Oid string
}

// EncodeStatResult packs size and mtime the way Ceph's CEPH_OSD_OP_STAT
// reply does: a u64 size followed by mtime as (sec, nsec) u32 fields.
// This layout was not independently verified against a retrieved wire
// trace, so treat it as this client's best-effort match to the public
// protocol rather than a confirmed byte-for-byte reproduction.
func EncodeStatResult(size uint64, mtime time.Time) []byte {
	b := denc.NewEncoder(16)
	b.PutU64(size)
	b.PutU32(uint32(mtime.Unix()))
	b.PutU32(uint32(mtime.Nanosecond()))
	return b.Bytes()
}

func DecodeStatResult(data []byte) (StatResult, error) {
	var r StatResult
	b := denc.NewDecoder(data)
	size, err := b.GetU64()
	if err != nil {
		return r, err
	}
	sec, err := b.GetU32()
	if err != nil {
		return r, err
	}
	nsec, err := b.GetU32()
	if err != nil {
		return r, err
	}
	r.Size = size
	r.Mtime = time.Unix(int64(sec), int64(nsec)).UTC()
	return r, nil
}
