// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "github.com/tchaikov/ceph-sub002/denc"

// CephBanner is the fixed ASCII prefix every msgr2 connection opens
// with, before either side has agreed on anything else.
const CephBanner = "ceph v2"

// Banner is the first thing exchanged on a new connection: the fixed
// prefix, a newline, a 2-byte payload length (always 16), and the two
// 8-byte feature fields (spec §4.4 "Banner exchange").
type Banner struct {
	SupportedFeatures FeatureSet
	RequiredFeatures  FeatureSet
}

// NewBanner advertises this client's standard feature set: msgr2-only,
// nothing required of the peer.
func NewBanner() Banner {
	return Banner{SupportedFeatures: FeatureMsgr2, RequiredFeatures: FeatureEmpty}
}

// Encode writes the full 26-byte banner: 7-byte prefix + newline +
// 2-byte length + 8+8 feature bytes.
func (bn Banner) Encode(b *denc.Buffer) {
	b.PutRaw([]byte(CephBanner))
	b.PutU8('\n')
	b.PutU16(16)
	b.PutU64(bn.SupportedFeatures.Value())
	b.PutU64(bn.RequiredFeatures.Value())
}

// DecodeBanner reads and validates the banner prefix and newline, then
// the feature payload. A payload longer than 16 bytes is tolerated by
// skipping the extra bytes before the two feature fields, matching
// what daemons that later grow the banner payload will still send.
func DecodeBanner(b *denc.Buffer) (Banner, error) {
	prefix, err := b.GetRaw(len(CephBanner))
	if err != nil {
		return Banner{}, wrapErr(KindInvalidData, err, "reading banner prefix")
	}
	if string(prefix[:6]) != "ceph v" {
		return Banner{}, newErr(KindProtocol, "invalid banner prefix %q", prefix)
	}

	newline, err := b.GetU8()
	if err != nil {
		return Banner{}, err
	}
	if newline != '\n' {
		return Banner{}, newErr(KindProtocol, "expected newline after banner, got %d", newline)
	}

	payloadLen, err := b.GetU16()
	if err != nil {
		return Banner{}, err
	}
	if payloadLen < 16 {
		return Banner{}, newErr(KindProtocol, "banner payload too short: %d bytes", payloadLen)
	}
	if payloadLen > 16 {
		if _, err := b.GetRaw(int(payloadLen) - 16); err != nil {
			return Banner{}, err
		}
	}

	supported, err := b.GetU64()
	if err != nil {
		return Banner{}, err
	}
	required, err := b.GetU64()
	if err != nil {
		return Banner{}, err
	}
	return Banner{SupportedFeatures: NewFeatureSet(supported), RequiredFeatures: NewFeatureSet(required)}, nil
}

// ConnectMessage is the client's half of the connect handshake: its
// feature set, the entity type it's connecting as, sequence numbers
// for this global connection and this connect attempt, the protocol
// version, and an optional authorizer payload length (spec §4.4
// "Connect/ConnectReply").
type ConnectMessage struct {
	Features           FeatureSet
	HostType           uint32
	GlobalSeq          uint32
	ConnectSeq         uint32
	ProtocolVersion    uint32
	AuthorizerProtocol uint32
	AuthorizerLen      uint32
	Flags              uint8
}

// ProtocolVersion is the msgr2 wire protocol version this client speaks.
const ProtocolVersion uint32 = 2

// ConnectMessageLength is the fixed 36-byte encoded size (8+4*6+1+3 pad).
const ConnectMessageLength = 36

func NewConnectMessage(features FeatureSet, hostType uint32) ConnectMessage {
	return ConnectMessage{Features: features, HostType: hostType, ProtocolVersion: ProtocolVersion}
}

func (c ConnectMessage) WithAuth(authProtocol, authorizerLen uint32) ConnectMessage {
	c.AuthorizerProtocol = authProtocol
	c.AuthorizerLen = authorizerLen
	return c
}

func (c ConnectMessage) Encode(b *denc.Buffer) {
	b.PutU64(c.Features.Value())
	b.PutU32(c.HostType)
	b.PutU32(c.GlobalSeq)
	b.PutU32(c.ConnectSeq)
	b.PutU32(c.ProtocolVersion)
	b.PutU32(c.AuthorizerProtocol)
	b.PutU32(c.AuthorizerLen)
	b.PutU8(c.Flags)
	b.PutRaw([]byte{0, 0, 0}) // explicit pad to a 36-byte fixed layout
}

func DecodeConnectMessage(b *denc.Buffer) (ConnectMessage, error) {
	var c ConnectMessage
	features, err := b.GetU64()
	if err != nil {
		return c, err
	}
	c.Features = NewFeatureSet(features)
	if c.HostType, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.GlobalSeq, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.ConnectSeq, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.ProtocolVersion, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.AuthorizerProtocol, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.AuthorizerLen, err = b.GetU32(); err != nil {
		return c, err
	}
	if c.Flags, err = b.GetU8(); err != nil {
		return c, err
	}
	if _, err := b.GetRaw(3); err != nil {
		return c, err
	}
	return c, nil
}

// Reply tags a ConnectReplyMessage may carry, per Ceph's msgr2 protocol.
const (
	ReplyTagReady         uint8 = 1
	ReplyTagResetSession  uint8 = 2
	ReplyTagWait          uint8 = 3
	ReplyTagRetrySession  uint8 = 4
	ReplyTagRetryGlobal   uint8 = 5
	ReplyTagBadProtoVer   uint8 = 6
	ReplyTagBadAuthorizer uint8 = 7
	ReplyTagFeatures      uint8 = 8
	ReplyTagSeq           uint8 = 9
)

// ConnectReplyMessage is the daemon's half of the connect handshake.
type ConnectReplyMessage struct {
	Tag             uint8
	Features        FeatureSet
	GlobalSeq       uint32
	ConnectSeq      uint32
	ProtocolVersion uint32
	AuthorizerLen   uint32
	Flags           uint8
}

func ReadyReply(features FeatureSet, globalSeq, connectSeq uint32) ConnectReplyMessage {
	return ConnectReplyMessage{
		Tag:             ReplyTagReady,
		Features:        features,
		GlobalSeq:       globalSeq,
		ConnectSeq:      connectSeq,
		ProtocolVersion: ProtocolVersion,
	}
}

func (r ConnectReplyMessage) Encode(b *denc.Buffer) {
	b.PutU8(r.Tag)
	b.PutU64(r.Features.Value())
	b.PutU32(r.GlobalSeq)
	b.PutU32(r.ConnectSeq)
	b.PutU32(r.ProtocolVersion)
	b.PutU32(r.AuthorizerLen)
	b.PutU8(r.Flags)
	b.PutU8(0)
	b.PutU8(0)
}

func DecodeConnectReplyMessage(b *denc.Buffer) (ConnectReplyMessage, error) {
	var r ConnectReplyMessage
	tag, err := b.GetU8()
	if err != nil {
		return r, err
	}
	r.Tag = tag
	features, err := b.GetU64()
	if err != nil {
		return r, err
	}
	r.Features = NewFeatureSet(features)
	if r.GlobalSeq, err = b.GetU32(); err != nil {
		return r, err
	}
	if r.ConnectSeq, err = b.GetU32(); err != nil {
		return r, err
	}
	if r.ProtocolVersion, err = b.GetU32(); err != nil {
		return r, err
	}
	if r.AuthorizerLen, err = b.GetU32(); err != nil {
		return r, err
	}
	if r.Flags, err = b.GetU8(); err != nil {
		return r, err
	}
	if _, err := b.GetU8(); err != nil {
		return r, err
	}
	if _, err := b.GetU8(); err != nil {
		return r, err
	}
	return r, nil
}

func (r ConnectReplyMessage) IsReady() bool { return r.Tag == ReplyTagReady }

func (r ConnectReplyMessage) IsRetry() bool {
	return r.Tag == ReplyTagRetrySession || r.Tag == ReplyTagRetryGlobal
}

func (r ConnectReplyMessage) IsError() bool {
	switch r.Tag {
	case ReplyTagBadProtoVer, ReplyTagBadAuthorizer, ReplyTagFeatures:
		return true
	default:
		return false
	}
}
