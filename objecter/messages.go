// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"github.com/tchaikov/ceph-sub002/denc"
	"github.com/tchaikov/ceph-sub002/msgr2"
)

// MOSDOp is the operation envelope sent to a primary OSD: pool and
// object identity, the sub-op list, and the fields the primary needs
// to detect stale/duplicate sends (spec §4.6 "Build the operation
// envelope: (pool, object, [op,...], flags, client_inc, tid)").
type MOSDOp struct {
	Pool      int64
	Oid       string
	Ops       []OSDOp
	Flags     uint32
	ClientInc uint32
	Tid       uint64
	Epoch     uint32 // the ClusterMap epoch this request was placed under
}

const versionOSDOp uint16 = 1

func (m MOSDOp) Encode() []byte {
	b := denc.NewEncoder(64 + len(m.Oid))
	b.PutI64(m.Pool)
	b.PutString(m.Oid)
	b.PutU32(m.Flags)
	b.PutU32(m.ClientInc)
	b.PutU64(m.Tid)
	b.PutU32(m.Epoch)
	b.PutCount(len(m.Ops))
	for _, op := range m.Ops {
		op.Encode(b)
	}
	return b.Bytes()
}

func DecodeMOSDOp(data []byte) (MOSDOp, error) {
	var m MOSDOp
	b := denc.NewDecoder(data)
	var err error
	if m.Pool, err = b.GetI64(); err != nil {
		return m, err
	}
	if m.Oid, err = b.GetString(); err != nil {
		return m, err
	}
	if m.Flags, err = b.GetU32(); err != nil {
		return m, err
	}
	if m.ClientInc, err = b.GetU32(); err != nil {
		return m, err
	}
	if m.Tid, err = b.GetU64(); err != nil {
		return m, err
	}
	if m.Epoch, err = b.GetU32(); err != nil {
		return m, err
	}
	n, err := b.GetCount()
	if err != nil {
		return m, err
	}
	m.Ops = make([]OSDOp, 0, n)
	for i := 0; i < n; i++ {
		op, err := DecodeOSDOp(b)
		if err != nil {
			return m, err
		}
		m.Ops = append(m.Ops, op)
	}
	return m, nil
}

func (m MOSDOp) MsgType() uint16    { return msgr2.MsgOSDOp }
func (MOSDOp) MsgVersion() uint16 { return versionOSDOp }

// OpResult is one sub-op's outcome: a per-op return code plus whatever
// payload that op produces (read bytes, stat fields, list entries).
type OpResult struct {
	RetVal  int32
	Data    []byte
	Extents []SparseExtent // populated for OpSparseRead
	Entries []string       // populated for OpList
	Cursor  ListCursor     // populated for OpList
}

func (r OpResult) Encode(b *denc.Buffer) {
	b.PutI64(int64(r.RetVal))
	b.PutBytes(r.Data)
	b.PutCount(len(r.Extents))
	for _, e := range r.Extents {
		b.PutU64(e.Offset)
		b.PutU64(e.Length)
	}
	b.PutStringSlice(r.Entries)
	r.Cursor.Encode(b)
}

func DecodeOpResult(b *denc.Buffer) (OpResult, error) {
	var r OpResult
	rv, err := b.GetI64()
	if err != nil {
		return r, err
	}
	r.RetVal = int32(rv)
	if r.Data, err = b.GetBytes(); err != nil {
		return r, err
	}
	n, err := b.GetCount()
	if err != nil {
		return r, err
	}
	r.Extents = make([]SparseExtent, 0, n)
	for i := 0; i < n; i++ {
		offset, err := b.GetU64()
		if err != nil {
			return r, err
		}
		length, err := b.GetU64()
		if err != nil {
			return r, err
		}
		r.Extents = append(r.Extents, SparseExtent{Offset: offset, Length: length})
	}
	if r.Entries, err = b.GetStringSlice(); err != nil {
		return r, err
	}
	if r.Cursor, err = DecodeListCursor(b); err != nil {
		return r, err
	}
	return r, nil
}

// MOSDOpReply is the primary's response: the overall return code plus
// one OpResult per requested sub-op, in request order (spec §4.6 "On
// reply, match tid, resolve the completion with (return-code, per-op
// result, data)").
type MOSDOpReply struct {
	Tid      uint64
	RetVal   int32
	Version  uint64
	Results  []OpResult
	Backoff  bool // server asked for a bounded retry delay (spec §4.6 "Backoff")
	RedirectEpoch uint32 // nonzero if the client must replace against a newer epoch
}

const versionOSDOpReply uint16 = 1

func (m MOSDOpReply) Encode() []byte {
	b := denc.NewEncoder(64)
	b.PutU64(m.Tid)
	b.PutI64(int64(m.RetVal))
	b.PutU64(m.Version)
	b.PutBool(m.Backoff)
	b.PutU32(m.RedirectEpoch)
	b.PutCount(len(m.Results))
	for _, r := range m.Results {
		r.Encode(b)
	}
	return b.Bytes()
}

func DecodeMOSDOpReply(data []byte) (MOSDOpReply, error) {
	var m MOSDOpReply
	b := denc.NewDecoder(data)
	var err error
	if m.Tid, err = b.GetU64(); err != nil {
		return m, err
	}
	rv, err := b.GetI64()
	if err != nil {
		return m, err
	}
	m.RetVal = int32(rv)
	if m.Version, err = b.GetU64(); err != nil {
		return m, err
	}
	if m.Backoff, err = b.GetBool(); err != nil {
		return m, err
	}
	if m.RedirectEpoch, err = b.GetU32(); err != nil {
		return m, err
	}
	n, err := b.GetCount()
	if err != nil {
		return m, err
	}
	m.Results = make([]OpResult, 0, n)
	for i := 0; i < n; i++ {
		r, err := DecodeOpResult(b)
		if err != nil {
			return m, err
		}
		m.Results = append(m.Results, r)
	}
	return m, nil
}

func (m MOSDOpReply) MsgType() uint16    { return msgr2.MsgOSDOpReply }
func (MOSDOpReply) MsgVersion() uint16 { return versionOSDOpReply }

func (m MOSDOpReply) IsSuccess() bool { return m.RetVal == 0 }
