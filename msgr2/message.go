// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"fmt"

	"github.com/tchaikov/ceph-sub002/denc"
)

// Message type tags, per Ceph's src/include/ceph_fs.h.
const (
	MsgPing              uint16 = 0x0001
	MsgPingAck           uint16 = 0x0002
	MsgMonMap            uint16 = 0x0004
	MsgStatfs            uint16 = 13
	MsgStatfsReply       uint16 = 14
	MsgMonSubscribe      uint16 = 15
	MsgMonSubscribeAck   uint16 = 16
	MsgAuth              uint16 = 0x0011
	MsgAuthReply         uint16 = 0x0012
	MsgMonGetVersion     uint16 = 19
	MsgMonGetVersionReply uint16 = 20
	MsgPoolOpReply       uint16 = 48
	MsgPoolOp            uint16 = 49
	MsgMonCommand        uint16 = 50
	MsgMonCommandAck     uint16 = 51
	MsgOSDMap            uint16 = 0x0029
	MsgOSDOp             uint16 = 0x002A
	MsgOSDOpReply        uint16 = 0x002B
	MsgOSDBackoff        uint16 = 61
)

func msgTypeName(t uint16) string {
	switch t {
	case MsgPing:
		return "PING"
	case MsgPingAck:
		return "PING_ACK"
	case MsgMonMap:
		return "MON_MAP"
	case MsgOSDMap:
		return "OSD_MAP"
	case MsgAuth:
		return "AUTH"
	case MsgAuthReply:
		return "AUTH_REPLY"
	case MsgMonCommand:
		return "MON_COMMAND"
	case MsgMonCommandAck:
		return "MON_COMMAND_ACK"
	case MsgMonSubscribe:
		return "MON_SUBSCRIBE"
	case MsgMonSubscribeAck:
		return "MON_SUBSCRIBE_ACK"
	case MsgMonGetVersion:
		return "MON_GET_VERSION"
	case MsgMonGetVersionReply:
		return "MON_GET_VERSION_REPLY"
	case MsgOSDOp:
		return "OSD_OP"
	case MsgOSDOpReply:
		return "OSD_OPREPLY"
	case MsgOSDBackoff:
		return "OSD_BACKOFF"
	default:
		return fmt.Sprintf("type(%d)", t)
	}
}

// Message is one application-level frame: a header plus up to three
// payload segments (spec §4.4 "front/middle/data segments").
type Message struct {
	Header MsgHeader
	Front  []byte
	Middle []byte
	Data   []byte
}

// NewMessage builds an outgoing message of msgType carrying front as
// its primary payload.
func NewMessage(msgType uint16, front []byte) Message {
	return Message{Header: NewMsgHeader(msgType, 0), Front: front}
}

func Ping() Message    { return NewMessage(MsgPing, nil) }
func PingAck() Message { return NewMessage(MsgPingAck, nil) }

func (m Message) WithSeq(seq uint64) Message {
	m.Header.Seq = seq
	return m
}

func (m Message) WithTid(tid uint64) Message {
	m.Header.Tid = tid
	return m
}

// TotalLen is the header plus every payload segment's length.
func (m Message) TotalLen() int {
	return HeaderLength + len(m.Front) + len(m.Middle) + len(m.Data)
}

func (m Message) String() string {
	return fmt.Sprintf("Message(%s, seq=%d, len=%d)", msgTypeName(m.Header.MsgType), m.Header.Seq, m.TotalLen())
}

// Encode writes the header (with segment lengths and data_off filled
// in) followed by the three payload segments in order.
func (m Message) Encode(b *denc.Buffer) {
	h := m.Header
	h.FrontLen = uint32(len(m.Front))
	h.MiddleLen = uint32(len(m.Middle))
	h.DataLen = uint32(len(m.Data))
	h.DataOff = uint16(HeaderLength + len(m.Front))
	h.Encode(b)
	b.PutRaw(m.Front)
	b.PutRaw(m.Middle)
	b.PutRaw(m.Data)
}

// DecodeMessage reads a header and slices the three payload segments
// according to the lengths it declares.
func DecodeMessage(b *denc.Buffer) (Message, error) {
	h, err := DecodeMsgHeader(b)
	if err != nil {
		return Message{}, err
	}
	front, err := b.GetRaw(int(h.FrontLen))
	if err != nil {
		return Message{}, err
	}
	middle, err := b.GetRaw(int(h.MiddleLen))
	if err != nil {
		return Message{}, err
	}
	data, err := b.GetRaw(int(h.DataLen))
	if err != nil {
		return Message{}, err
	}
	return Message{Header: h, Front: front, Middle: middle, Data: data}, nil
}

// Footer carries integrity/authenticity fields trailing a message
// (spec §4.4 "epilogue"). Footer is encoded and decoded here only;
// Conn does not send it, and frames are not encrypted.
type Footer struct {
	FrontCRC  uint32
	MiddleCRC uint32
	DataCRC   uint32
	Sig       uint64
	Flags     uint8
}

const FooterLength = 4 + 4 + 4 + 8 + 1

func (f Footer) Encode(b *denc.Buffer) {
	b.PutU32(f.FrontCRC)
	b.PutU32(f.MiddleCRC)
	b.PutU32(f.DataCRC)
	b.PutU64(f.Sig)
	b.PutU8(f.Flags)
}

func DecodeFooter(b *denc.Buffer) (Footer, error) {
	var f Footer
	var err error
	if f.FrontCRC, err = b.GetU32(); err != nil {
		return f, err
	}
	if f.MiddleCRC, err = b.GetU32(); err != nil {
		return f, err
	}
	if f.DataCRC, err = b.GetU32(); err != nil {
		return f, err
	}
	if f.Sig, err = b.GetU64(); err != nil {
		return f, err
	}
	if f.Flags, err = b.GetU8(); err != nil {
		return f, err
	}
	return f, nil
}
