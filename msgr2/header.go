// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "github.com/tchaikov/ceph-sub002/denc"

// MsgHeader precedes every application message's front/middle/data
// segments (Ceph's ceph_msg_header2, trimmed to the fields this client
// actually sets or reads).
type MsgHeader struct {
	Seq           uint64
	Tid           uint64
	MsgType       uint16
	Priority      uint16
	Version       uint16
	CompatVersion uint16
	DataOff       uint16
	FrontLen      uint32
	MiddleLen     uint32
	DataLen       uint32
}

// HeaderLength is MsgHeader's fixed encoded size.
const HeaderLength = 8 + 8 + 2 + 2 + 2 + 2 + 2 + 4 + 4 + 4

// NewMsgHeader builds a header for an outgoing message of msgType and
// priority; Seq and Tid are filled in by the session layer before send.
func NewMsgHeader(msgType uint16, priority uint16) MsgHeader {
	return MsgHeader{MsgType: msgType, Priority: priority}
}

func (h MsgHeader) Encode(b *denc.Buffer) {
	b.PutU64(h.Seq)
	b.PutU64(h.Tid)
	b.PutU16(h.MsgType)
	b.PutU16(h.Priority)
	b.PutU16(h.Version)
	b.PutU16(h.CompatVersion)
	b.PutU16(h.DataOff)
	b.PutU32(h.FrontLen)
	b.PutU32(h.MiddleLen)
	b.PutU32(h.DataLen)
}

func DecodeMsgHeader(b *denc.Buffer) (MsgHeader, error) {
	var h MsgHeader
	var err error
	if h.Seq, err = b.GetU64(); err != nil {
		return h, err
	}
	if h.Tid, err = b.GetU64(); err != nil {
		return h, err
	}
	if h.MsgType, err = b.GetU16(); err != nil {
		return h, err
	}
	if h.Priority, err = b.GetU16(); err != nil {
		return h, err
	}
	if h.Version, err = b.GetU16(); err != nil {
		return h, err
	}
	if h.CompatVersion, err = b.GetU16(); err != nil {
		return h, err
	}
	if h.DataOff, err = b.GetU16(); err != nil {
		return h, err
	}
	if h.FrontLen, err = b.GetU32(); err != nil {
		return h, err
	}
	if h.MiddleLen, err = b.GetU32(); err != nil {
		return h, err
	}
	if h.DataLen, err = b.GetU32(); err != nil {
		return h, err
	}
	return h, nil
}
