// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import "github.com/tchaikov/ceph-sub002/denc"

// PaxosFields are the fields every PaxosServiceMessage-derived monitor
// message (map updates, command replies) carries ahead of its own
// body (spec §4.5, grounded on Ceph's paxos_encode/paxos_decode).
// DeprecatedSessionMon and its tid are legacy fields with fixed
// sentinel values; no live monitor reads them.
type PaxosFields struct {
	Version                    uint64
	DeprecatedSessionMon       int16
	DeprecatedSessionMonTid    uint64
}

// NewPaxosFields returns fields carrying version, with the legacy
// session-mon fields set to their required sentinels.
func NewPaxosFields(version uint64) PaxosFields {
	return PaxosFields{Version: version, DeprecatedSessionMon: -1}
}

// PaxosFieldsEncodedSize is the fixed 18-byte size (8 + 2 + 8).
const PaxosFieldsEncodedSize = 18

func (p PaxosFields) Encode(b *denc.Buffer) {
	b.PutU64(p.Version)
	b.PutU16(uint16(p.DeprecatedSessionMon))
	b.PutU64(p.DeprecatedSessionMonTid)
}

func DecodePaxosFields(b *denc.Buffer) (PaxosFields, error) {
	var p PaxosFields
	v, err := b.GetU64()
	if err != nil {
		return p, err
	}
	p.Version = v
	sm, err := b.GetU16()
	if err != nil {
		return p, err
	}
	p.DeprecatedSessionMon = int16(sm)
	tid, err := b.GetU64()
	if err != nil {
		return p, err
	}
	p.DeprecatedSessionMonTid = tid
	return p, nil
}
