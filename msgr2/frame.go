// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "github.com/tchaikov/ceph-sub002/denc"

// Tag identifies a frame's purpose within the msgr2 stream (handshake
// control frames vs. application messages).
type Tag uint8

const (
	TagHello Tag = iota + 1
	TagAuthRequest
	TagAuthBadMethod
	TagAuthReplyMore
	TagAuthRequestMore
	TagAuthDone
	TagAuthSignature
	TagClientIdent
	TagServerIdent
	TagIdentMissingFeatures
	TagSessionReconnect
	TagSessionReset
	TagSessionRetry
	TagSessionRetryGlobal
	TagSessionReconnectOK
	TagWait
	TagMessage
	TagKeepalive2
	TagKeepalive2Ack
	TagAckPing
	TagCompressionRequest
	TagCompressionDone
)

// FrameEarlyDataCompressed is set on Preamble.Flags when the first
// segment was compressed before the rest of the frame's segments.
const FrameEarlyDataCompressed uint8 = 1 << 0

// Preamble is the fixed-size prefix at the start of every frame: the
// tag, the number of segments, each segment's length, and a flags byte
// (spec §4.4 "Frame: preamble, segments, epilogue").
type Preamble struct {
	Tag          Tag
	SegmentLens  [4]uint32 // msgr2 supports up to 4 segments per frame
	NumSegments  uint8
	Flags        uint8
}

const maxSegments = 4

func (p Preamble) Encode(b *denc.Buffer) {
	b.PutU8(uint8(p.Tag))
	b.PutU8(p.NumSegments)
	for i := 0; i < maxSegments; i++ {
		b.PutU32(p.SegmentLens[i])
	}
	b.PutU8(p.Flags)
}

// PreambleLength is the fixed encoded size of Preamble.
const PreambleLength = 1 + 1 + 4*maxSegments + 1

func DecodePreamble(b *denc.Buffer) (Preamble, error) {
	var p Preamble
	tag, err := b.GetU8()
	if err != nil {
		return p, err
	}
	p.Tag = Tag(tag)
	if p.NumSegments, err = b.GetU8(); err != nil {
		return p, err
	}
	if p.NumSegments > maxSegments {
		return p, newErr(KindProtocol, "frame declares %d segments, max %d", p.NumSegments, maxSegments)
	}
	for i := 0; i < maxSegments; i++ {
		if p.SegmentLens[i], err = b.GetU32(); err != nil {
			return p, err
		}
	}
	if p.Flags, err = b.GetU8(); err != nil {
		return p, err
	}
	return p, nil
}

// Frame is a complete preamble plus its segment payloads. The epilogue
// (per-segment CRCs) is modeled by Footer in message.go and is not
// written here: frames go over the connection as preamble plus raw
// segments, with neither CRCs nor encryption.
type Frame struct {
	Preamble Preamble
	Segments [][]byte
}

// NewFrame builds a single-segment frame carrying payload.
func NewFrame(tag Tag, payload []byte) Frame {
	p := Preamble{Tag: tag, NumSegments: 1}
	p.SegmentLens[0] = uint32(len(payload))
	return Frame{Preamble: p, Segments: [][]byte{payload}}
}

// Compress applies ctx to the frame's first segment, when it clears
// the configured threshold, and sets FrameEarlyDataCompressed
// accordingly (spec §4.4; grounded on the reference client's
// compression_integration test matrix).
func (f Frame) Compress(ctx CompressionContext) (Frame, error) {
	if len(f.Segments) == 0 || !ctx.ShouldCompress(f.Segments[0]) {
		return f, nil
	}
	compressed, err := ctx.Compress(f.Segments[0])
	if err != nil {
		return Frame{}, err
	}
	out := f
	out.Segments = append([][]byte(nil), f.Segments...)
	out.Segments[0] = compressed
	out.Preamble.SegmentLens[0] = uint32(len(compressed))
	out.Preamble.Flags |= FrameEarlyDataCompressed
	return out, nil
}

// Decompress reverses Compress when the compressed flag is set;
// originalSize hints the first segment's decompressed length.
func (f Frame) Decompress(ctx CompressionContext, originalSize int) (Frame, error) {
	if f.Preamble.Flags&FrameEarlyDataCompressed == 0 || len(f.Segments) == 0 {
		return f, nil
	}
	plain, err := ctx.Decompress(f.Segments[0], originalSize)
	if err != nil {
		return Frame{}, err
	}
	out := f
	out.Segments = append([][]byte(nil), f.Segments...)
	out.Segments[0] = plain
	out.Preamble.SegmentLens[0] = uint32(len(plain))
	out.Preamble.Flags &^= FrameEarlyDataCompressed
	return out, nil
}

// Encode writes the preamble followed by every segment's raw bytes.
func (f Frame) Encode(b *denc.Buffer) {
	f.Preamble.Encode(b)
	for _, seg := range f.Segments {
		b.PutRaw(seg)
	}
}

// DecodeFrame reads a preamble and then the segments it declares.
func DecodeFrame(b *denc.Buffer) (Frame, error) {
	p, err := DecodePreamble(b)
	if err != nil {
		return Frame{}, err
	}
	segs := make([][]byte, 0, p.NumSegments)
	for i := 0; i < int(p.NumSegments); i++ {
		seg, err := b.GetRaw(int(p.SegmentLens[i]))
		if err != nil {
			return Frame{}, err
		}
		segs = append(segs, seg)
	}
	return Frame{Preamble: p, Segments: segs}, nil
}
