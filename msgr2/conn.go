// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"io"
	"net"

	"github.com/tchaikov/ceph-sub002/denc"
)

// Conn wraps a raw network connection with msgr2 framing: banners,
// frames, and messages go over it as whole units rather than as a raw
// byte stream the caller has to chunk themselves (spec §4.4).
type Conn struct {
	nc net.Conn
}

func NewConn(nc net.Conn) *Conn { return &Conn{nc: nc} }

func (c *Conn) Close() error { return c.nc.Close() }

func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// WriteBanner sends the fixed 26-byte banner.
func (c *Conn) WriteBanner(bn Banner) error {
	b := denc.NewEncoder(26)
	bn.Encode(b)
	if _, err := c.nc.Write(b.Bytes()); err != nil {
		return wrapErr(KindIO, err, "writing banner")
	}
	return nil
}

// ReadBanner reads the banner's fixed prefix, learns its declared
// payload length, and reads that many additional bytes before
// decoding the feature fields (spec §4.4). A payload longer than 16
// bytes is accepted: the features are read from its first 16 bytes
// and the rest is ignored, whereas DecodeBanner skips the extra bytes
// before the feature fields.
func (c *Conn) ReadBanner() (Banner, error) {
	head := make([]byte, len(CephBanner)+1+2)
	if _, err := io.ReadFull(c.nc, head); err != nil {
		return Banner{}, wrapErr(KindIO, err, "reading banner head")
	}
	hb := denc.NewDecoder(head)
	prefix, err := hb.GetRaw(len(CephBanner))
	if err != nil {
		return Banner{}, err
	}
	if string(prefix[:6]) != "ceph v" {
		return Banner{}, newErr(KindProtocol, "invalid banner prefix %q", prefix)
	}
	newline, err := hb.GetU8()
	if err != nil {
		return Banner{}, err
	}
	if newline != '\n' {
		return Banner{}, newErr(KindProtocol, "expected newline after banner, got %d", newline)
	}
	payloadLen, err := hb.GetU16()
	if err != nil {
		return Banner{}, err
	}
	if payloadLen < 16 {
		return Banner{}, newErr(KindProtocol, "banner payload too short: %d bytes", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(c.nc, payload); err != nil {
		return Banner{}, wrapErr(KindIO, err, "reading banner payload")
	}
	pb := denc.NewDecoder(payload)
	supported, err := pb.GetU64()
	if err != nil {
		return Banner{}, err
	}
	required, err := pb.GetU64()
	if err != nil {
		return Banner{}, err
	}
	return Banner{SupportedFeatures: NewFeatureSet(supported), RequiredFeatures: NewFeatureSet(required)}, nil
}

// WriteConnectMessage sends a fixed 36-byte ConnectMessage, followed by
// an authorizer payload if AuthorizerLen is nonzero.
func (c *Conn) WriteConnectMessage(m ConnectMessage, authorizer []byte) error {
	b := denc.NewEncoder(ConnectMessageLength + len(authorizer))
	m.Encode(b)
	b.PutRaw(authorizer)
	if _, err := c.nc.Write(b.Bytes()); err != nil {
		return wrapErr(KindIO, err, "writing connect message")
	}
	return nil
}

// ReadConnectMessage reads the fixed ConnectMessage and any authorizer
// payload it declares.
func (c *Conn) ReadConnectMessage() (ConnectMessage, []byte, error) {
	head := make([]byte, ConnectMessageLength)
	if _, err := io.ReadFull(c.nc, head); err != nil {
		return ConnectMessage{}, nil, wrapErr(KindIO, err, "reading connect message")
	}
	b := denc.NewDecoder(head)
	m, err := DecodeConnectMessage(b)
	if err != nil {
		return m, nil, err
	}
	if m.AuthorizerLen == 0 {
		return m, nil, nil
	}
	auth := make([]byte, m.AuthorizerLen)
	if _, err := io.ReadFull(c.nc, auth); err != nil {
		return m, nil, wrapErr(KindIO, err, "reading connect authorizer")
	}
	return m, auth, nil
}

// WriteConnectReply sends the fixed 28-byte ConnectReplyMessage,
// followed by an authorizer reply payload if AuthorizerLen is nonzero.
func (c *Conn) WriteConnectReply(r ConnectReplyMessage, authorizerReply []byte) error {
	b := denc.NewEncoder(28 + len(authorizerReply))
	r.Encode(b)
	b.PutRaw(authorizerReply)
	if _, err := c.nc.Write(b.Bytes()); err != nil {
		return wrapErr(KindIO, err, "writing connect reply")
	}
	return nil
}

func (c *Conn) ReadConnectReply() (ConnectReplyMessage, []byte, error) {
	head := make([]byte, 28)
	if _, err := io.ReadFull(c.nc, head); err != nil {
		return ConnectReplyMessage{}, nil, wrapErr(KindIO, err, "reading connect reply")
	}
	b := denc.NewDecoder(head)
	r, err := DecodeConnectReplyMessage(b)
	if err != nil {
		return r, nil, err
	}
	if r.AuthorizerLen == 0 {
		return r, nil, nil
	}
	auth := make([]byte, r.AuthorizerLen)
	if _, err := io.ReadFull(c.nc, auth); err != nil {
		return r, nil, wrapErr(KindIO, err, "reading connect reply authorizer")
	}
	return r, auth, nil
}

// WriteFrame encodes and writes f as a whole.
func (c *Conn) WriteFrame(f Frame) error {
	total := 0
	for _, s := range f.Segments {
		total += len(s)
	}
	b := denc.NewEncoder(PreambleLength + total)
	f.Encode(b)
	if _, err := c.nc.Write(b.Bytes()); err != nil {
		return wrapErr(KindIO, err, "writing frame")
	}
	return nil
}

// ReadFrame reads one complete frame: the fixed preamble, then every
// segment it declares.
func (c *Conn) ReadFrame() (Frame, error) {
	head := make([]byte, PreambleLength)
	if _, err := io.ReadFull(c.nc, head); err != nil {
		return Frame{}, wrapErr(KindIO, err, "reading frame preamble")
	}
	hb := denc.NewDecoder(head)
	p, err := DecodePreamble(hb)
	if err != nil {
		return Frame{}, err
	}

	segs := make([][]byte, 0, p.NumSegments)
	for i := 0; i < int(p.NumSegments); i++ {
		seg := make([]byte, p.SegmentLens[i])
		if len(seg) > 0 {
			if _, err := io.ReadFull(c.nc, seg); err != nil {
				return Frame{}, wrapErr(KindIO, err, "reading frame segment")
			}
		}
		segs = append(segs, seg)
	}
	return Frame{Preamble: p, Segments: segs}, nil
}

// WriteMessage frames msg as a single-segment TagMessage frame.
func (c *Conn) WriteMessage(msg Message) error {
	b := denc.NewEncoder(int(msg.TotalLen()))
	msg.Encode(b)
	return c.WriteFrame(NewFrame(TagMessage, b.Bytes()))
}

// ReadMessageFromFrame decodes an already-read frame's first segment
// as a Message; it does not check that the frame's tag is TagMessage.
func ReadMessageFromFrame(f Frame) (Message, error) {
	if len(f.Segments) == 0 {
		return Message{}, newErr(KindProtocol, "message frame has no segments")
	}
	b := denc.NewDecoder(f.Segments[0])
	return DecodeMessage(b)
}
