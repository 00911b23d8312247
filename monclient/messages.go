// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"github.com/cockroachdb/errors"

	"github.com/tchaikov/ceph-sub002/denc"
	"github.com/tchaikov/ceph-sub002/msgr2"
)

// Message version tags, per the reference client's ceph_message_impl.
const (
	versionMonSubscribe      uint16 = 3
	versionMonSubscribeAck   uint16 = 1
	versionMonGetVersion     uint16 = 1
	versionMonGetVersionReply uint16 = 1
	versionMonMap            uint16 = 1
	versionOSDMap            uint16 = 1
	versionMonCommand        uint16 = 1
	versionMonCommandAck     uint16 = 1
	versionPoolOp            uint16 = 4
	versionPoolOpReply       uint16 = 1
	versionAuth              uint16 = 1
	versionAuthReply         uint16 = 1
)

// MMonSubscribe asks the monitor to start or renew subscriptions to a
// set of named maps (spec §4.5, grounded on subscription.rs's MonSub
// and the reference client's MMonSubscribe).
type MMonSubscribe struct {
	Items map[string]SubscribeItem
}

func NewMMonSubscribe() *MMonSubscribe {
	return &MMonSubscribe{Items: make(map[string]SubscribeItem)}
}

func (m *MMonSubscribe) Add(what string, item SubscribeItem) {
	m.Items[what] = item
}

func (m *MMonSubscribe) Encode() []byte {
	b := denc.NewEncoder(64)
	b.PutCount(len(m.Items))
	for what, item := range m.Items {
		b.PutString(what)
		b.PutU64(item.Start)
		b.PutU8(item.Flags)
	}
	return b.Bytes()
}

func DecodeMMonSubscribe(data []byte) (*MMonSubscribe, error) {
	b := denc.NewDecoder(data)
	n, err := b.GetCount()
	if err != nil {
		return nil, err
	}
	m := NewMMonSubscribe()
	for i := 0; i < n; i++ {
		what, err := b.GetString()
		if err != nil {
			return nil, err
		}
		start, err := b.GetU64()
		if err != nil {
			return nil, err
		}
		flags, err := b.GetU8()
		if err != nil {
			return nil, err
		}
		m.Items[what] = SubscribeItem{Start: start, Flags: flags}
	}
	return m, nil
}

func (m *MMonSubscribe) MsgType() uint16    { return msgr2.MsgMonSubscribe }
func (m *MMonSubscribe) MsgVersion() uint16 { return versionMonSubscribe }

// MMonSubscribeAck tells the client how long to wait before renewing
// (spec §4.5 "the monitor dictates the renewal interval").
type MMonSubscribeAck struct {
	IntervalSecs int32
	Fsid         [16]byte
}

func (m MMonSubscribeAck) Encode() []byte {
	b := denc.NewEncoder(20)
	b.PutU32(uint32(m.IntervalSecs))
	b.PutRaw(m.Fsid[:])
	return b.Bytes()
}

func DecodeMMonSubscribeAck(data []byte) (MMonSubscribeAck, error) {
	var m MMonSubscribeAck
	b := denc.NewDecoder(data)
	v, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.IntervalSecs = int32(v)
	fsid, err := b.GetRaw(16)
	if err != nil {
		return m, err
	}
	copy(m.Fsid[:], fsid)
	return m, nil
}

func (m MMonSubscribeAck) MsgType() uint16    { return msgr2.MsgMonSubscribeAck }
func (m MMonSubscribeAck) MsgVersion() uint16 { return versionMonSubscribeAck }

// MMonGetVersion asks a monitor for the newest/oldest committed
// version of a named paxos service (e.g. "osdmap").
type MMonGetVersion struct {
	Tid  uint64
	What string
}

func NewMMonGetVersion(tid uint64, what string) MMonGetVersion {
	return MMonGetVersion{Tid: tid, What: what}
}

func (m MMonGetVersion) Encode() []byte {
	b := denc.NewEncoder(32)
	b.PutU64(m.Tid)
	b.PutString(m.What)
	return b.Bytes()
}

func DecodeMMonGetVersion(data []byte) (MMonGetVersion, error) {
	var m MMonGetVersion
	b := denc.NewDecoder(data)
	tid, err := b.GetU64()
	if err != nil {
		return m, err
	}
	m.Tid = tid
	what, err := b.GetString()
	if err != nil {
		return m, err
	}
	m.What = what
	return m, nil
}

func (m MMonGetVersion) MsgType() uint16    { return msgr2.MsgMonGetVersion }
func (m MMonGetVersion) MsgVersion() uint16 { return versionMonGetVersion }

// MMonGetVersionReply answers an MMonGetVersion.
type MMonGetVersionReply struct {
	Handle        uint64
	Version       uint64
	OldestVersion uint64
}

func (m MMonGetVersionReply) Encode() []byte {
	b := denc.NewEncoder(24)
	b.PutU64(m.Handle)
	b.PutU64(m.Version)
	b.PutU64(m.OldestVersion)
	return b.Bytes()
}

func DecodeMMonGetVersionReply(data []byte) (MMonGetVersionReply, error) {
	var m MMonGetVersionReply
	b := denc.NewDecoder(data)
	var err error
	if m.Handle, err = b.GetU64(); err != nil {
		return m, err
	}
	if m.Version, err = b.GetU64(); err != nil {
		return m, err
	}
	if m.OldestVersion, err = b.GetU64(); err != nil {
		return m, err
	}
	return m, nil
}

func (m MMonGetVersionReply) MsgType() uint16    { return msgr2.MsgMonGetVersionReply }
func (m MMonGetVersionReply) MsgVersion() uint16 { return versionMonGetVersionReply }

// MMonMap carries an encoded monitor map blob; decoding it into a
// clustermap.MonMap is the caller's job, since the wire format of the
// monmap blob is monitor-version-specific and out of this message's
// scope.
type MMonMap struct {
	MonmapBl []byte
}

func (m MMonMap) Encode() []byte { return append([]byte(nil), m.MonmapBl...) }

func DecodeMMonMap(data []byte) (MMonMap, error) {
	return MMonMap{MonmapBl: append([]byte(nil), data...)}, nil
}

func (m MMonMap) MsgType() uint16    { return msgr2.MsgMonMap }
func (m MMonMap) MsgVersion() uint16 { return versionMonMap }

// MOSDMap carries one or more encoded OSDMap epochs, full and/or
// incremental, as opaque blobs (spec §4.3 "the monitor may push a run
// of incrementals instead of the full map").
type MOSDMap struct {
	FullMaps        map[uint32][]byte
	IncrementalMaps map[uint32][]byte
}

func DecodeMOSDMap(data []byte) (MOSDMap, error) {
	b := denc.NewDecoder(data)
	m := MOSDMap{FullMaps: make(map[uint32][]byte), IncrementalMaps: make(map[uint32][]byte)}

	incCount, err := b.GetCount()
	if err != nil {
		return m, err
	}
	for i := 0; i < incCount; i++ {
		epoch, err := b.GetU32()
		if err != nil {
			return m, err
		}
		bl, err := b.GetBytes()
		if err != nil {
			return m, err
		}
		m.IncrementalMaps[epoch] = bl
	}

	fullCount, err := b.GetCount()
	if err != nil {
		return m, err
	}
	for i := 0; i < fullCount; i++ {
		epoch, err := b.GetU32()
		if err != nil {
			return m, err
		}
		bl, err := b.GetBytes()
		if err != nil {
			return m, err
		}
		m.FullMaps[epoch] = bl
	}
	return m, nil
}

func (m MOSDMap) MsgType() uint16    { return msgr2.MsgOSDMap }
func (m MOSDMap) MsgVersion() uint16 { return versionOSDMap }

// MMonCommand carries an admin-socket style command to a monitor;
// Cmd is the argv-style command vector and Inbl travels as the
// message's data segment rather than its front (spec §4.5).
type MMonCommand struct {
	Paxos PaxosFields
	Fsid  [16]byte
	Cmd   []string
	Inbl  []byte
}

func NewMMonCommand(cmd []string) *MMonCommand {
	return &MMonCommand{Paxos: NewPaxosFields(0), Cmd: cmd}
}

func (m *MMonCommand) Encode() []byte {
	b := denc.NewEncoder(64)
	m.Paxos.Encode(b)
	b.PutRaw(m.Fsid[:])
	b.PutStringSlice(m.Cmd)
	return b.Bytes()
}

func DecodeMMonCommand(front, data []byte) (*MMonCommand, error) {
	b := denc.NewDecoder(front)
	paxos, err := DecodePaxosFields(b)
	if err != nil {
		return nil, err
	}
	m := &MMonCommand{Paxos: paxos}
	fsid, err := b.GetRaw(16)
	if err != nil {
		return nil, err
	}
	copy(m.Fsid[:], fsid)
	cmd, err := b.GetStringSlice()
	if err != nil {
		return nil, err
	}
	m.Cmd = cmd
	m.Inbl = append([]byte(nil), data...)
	return m, nil
}

func (m *MMonCommand) MsgType() uint16    { return msgr2.MsgMonCommand }
func (m *MMonCommand) MsgVersion() uint16 { return versionMonCommand }

// MMonCommandAck is the reply to an MMonCommand: a return code, a
// human-readable string, and the command vector it answers.
type MMonCommandAck struct {
	Paxos PaxosFields
	Cmd   []string
	R     int32
	Rs    string
}

func (m MMonCommandAck) Encode() []byte {
	b := denc.NewEncoder(64)
	m.Paxos.Encode(b)
	b.PutStringSlice(m.Cmd)
	b.PutU32(uint32(m.R))
	b.PutString(m.Rs)
	return b.Bytes()
}

func DecodeMMonCommandAck(data []byte) (MMonCommandAck, error) {
	var m MMonCommandAck
	b := denc.NewDecoder(data)
	paxos, err := DecodePaxosFields(b)
	if err != nil {
		return m, err
	}
	m.Paxos = paxos
	cmd, err := b.GetStringSlice()
	if err != nil {
		return m, err
	}
	m.Cmd = cmd
	r, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.R = int32(r)
	rs, err := b.GetString()
	if err != nil {
		return m, err
	}
	m.Rs = rs
	return m, nil
}

func (m MMonCommandAck) MsgType() uint16    { return msgr2.MsgMonCommandAck }
func (m MMonCommandAck) MsgVersion() uint16 { return versionMonCommandAck }

// Pool operation codes (spec §4.6 "pool lifecycle commands").
const (
	PoolOpCreate uint16 = 0x01
	PoolOpDelete uint16 = 0x02
	PoolOpAuid   uint16 = 0x03
)

// MPoolOp requests a pool lifecycle change (create/delete); replies
// arrive as MPoolOpReply.
type MPoolOp struct {
	Paxos     PaxosFields
	Fsid      [16]byte
	Op        uint16
	Pool      int64
	Name      string
	CrushRule int32
}

func (m MPoolOp) Encode() []byte {
	b := denc.NewEncoder(64)
	m.Paxos.Encode(b)
	b.PutRaw(m.Fsid[:])
	b.PutU16(m.Op)
	b.PutU64(uint64(m.Pool))
	b.PutString(m.Name)
	b.PutU32(uint32(m.CrushRule))
	return b.Bytes()
}

func DecodeMPoolOp(data []byte) (MPoolOp, error) {
	var m MPoolOp
	b := denc.NewDecoder(data)
	paxos, err := DecodePaxosFields(b)
	if err != nil {
		return m, err
	}
	m.Paxos = paxos
	fsid, err := b.GetRaw(16)
	if err != nil {
		return m, err
	}
	copy(m.Fsid[:], fsid)
	op, err := b.GetU16()
	if err != nil {
		return m, err
	}
	m.Op = op
	pool, err := b.GetU64()
	if err != nil {
		return m, err
	}
	m.Pool = int64(pool)
	name, err := b.GetString()
	if err != nil {
		return m, err
	}
	m.Name = name
	rule, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.CrushRule = int32(rule)
	return m, nil
}

func (m MPoolOp) MsgType() uint16    { return msgr2.MsgPoolOp }
func (m MPoolOp) MsgVersion() uint16 { return versionPoolOp }

// PoolOpResult is the decoded reply to an MPoolOp.
type PoolOpResult struct {
	ReplyCode int32
	Epoch     uint32
}

func (r PoolOpResult) IsSuccess() bool { return r.ReplyCode == 0 }

// MPoolOpReply answers an MPoolOp.
type MPoolOpReply struct {
	Paxos     PaxosFields
	Fsid      [16]byte
	ReplyCode int32
	Epoch     uint32
}

func (m MPoolOpReply) Encode() []byte {
	b := denc.NewEncoder(32)
	m.Paxos.Encode(b)
	b.PutRaw(m.Fsid[:])
	b.PutU32(uint32(m.ReplyCode))
	b.PutU32(m.Epoch)
	return b.Bytes()
}

func DecodeMPoolOpReply(data []byte) (MPoolOpReply, error) {
	var m MPoolOpReply
	b := denc.NewDecoder(data)
	paxos, err := DecodePaxosFields(b)
	if err != nil {
		return m, err
	}
	m.Paxos = paxos
	fsid, err := b.GetRaw(16)
	if err != nil {
		return m, err
	}
	copy(m.Fsid[:], fsid)
	rc, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.ReplyCode = int32(rc)
	epoch, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.Epoch = epoch
	return m, nil
}

func (m MPoolOpReply) Result() PoolOpResult {
	return PoolOpResult{ReplyCode: m.ReplyCode, Epoch: m.Epoch}
}

func (m MPoolOpReply) MsgType() uint16    { return msgr2.MsgPoolOpReply }
func (m MPoolOpReply) MsgVersion() uint16 { return versionPoolOpReply }

// MAuth carries a cephx handshake payload from client to monitor
// (spec §4.2 "the auth handshake rides inside ordinary messenger
// frames"); Payload is whatever cephx.ClientHandler produced for the
// current handshake step.
type MAuth struct {
	Paxos       PaxosFields
	Protocol    int32
	Payload     []byte
	MonmapEpoch uint32
}

func (m MAuth) Encode() []byte {
	b := denc.NewEncoder(64)
	m.Paxos.Encode(b)
	b.PutU32(uint32(m.Protocol))
	b.PutBytes(m.Payload)
	b.PutU32(m.MonmapEpoch)
	return b.Bytes()
}

func DecodeMAuth(data []byte) (MAuth, error) {
	var m MAuth
	b := denc.NewDecoder(data)
	paxos, err := DecodePaxosFields(b)
	if err != nil {
		return m, err
	}
	m.Paxos = paxos
	proto, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.Protocol = int32(proto)
	payload, err := b.GetBytes()
	if err != nil {
		return m, err
	}
	m.Payload = payload
	epoch, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.MonmapEpoch = epoch
	return m, nil
}

func (m MAuth) MsgType() uint16    { return msgr2.MsgAuth }
func (m MAuth) MsgVersion() uint16 { return versionAuth }

// MAuthReply answers an MAuth. A nonzero Result means the handshake
// step failed; ResultMsg carries a human-readable reason.
type MAuthReply struct {
	ProtocolVersion int32
	Result          int32
	GlobalID        uint64
	ResultMsg       string
	Payload         []byte
}

func (m MAuthReply) Encode() []byte {
	b := denc.NewEncoder(64)
	b.PutU32(uint32(m.ProtocolVersion))
	b.PutU32(uint32(m.Result))
	b.PutU64(m.GlobalID)
	b.PutString(m.ResultMsg)
	b.PutBytes(m.Payload)
	return b.Bytes()
}

func DecodeMAuthReply(data []byte) (MAuthReply, error) {
	var m MAuthReply
	b := denc.NewDecoder(data)
	proto, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.ProtocolVersion = int32(proto)
	result, err := b.GetU32()
	if err != nil {
		return m, err
	}
	m.Result = int32(result)
	gid, err := b.GetU64()
	if err != nil {
		return m, err
	}
	m.GlobalID = gid
	msg, err := b.GetString()
	if err != nil {
		return m, err
	}
	m.ResultMsg = msg
	payload, err := b.GetBytes()
	if err != nil {
		return m, err
	}
	m.Payload = payload
	return m, nil
}

func (m MAuthReply) IsSuccess() bool { return m.Result == 0 }

func (m MAuthReply) Err() error {
	if m.IsSuccess() {
		return nil
	}
	return errors.Newf("monclient: auth failed (result=%d): %s", m.Result, m.ResultMsg)
}

func (m MAuthReply) MsgType() uint16    { return msgr2.MsgAuthReply }
func (m MAuthReply) MsgVersion() uint16 { return versionAuthReply }
