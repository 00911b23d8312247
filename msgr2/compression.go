// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/DataDog/zstd"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionAlgorithm selects the codec negotiated for a connection's
// early-data segment (spec §4.4 "Compression"). zlib has no third-party
// competitor in the retrieved corpus, so it is the one algorithm here
// implemented against the standard library (recorded in DESIGN.md).
type CompressionAlgorithm uint8

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionZlib
)

// DefaultCompressionThreshold is the minimum payload size worth paying
// a compression round trip for; smaller frames are sent raw.
const DefaultCompressionThreshold = 512

// CompressionContext pairs an algorithm with the size threshold below
// which compression is skipped.
type CompressionContext struct {
	Algorithm CompressionAlgorithm
	Threshold int
}

func NewCompressionContext(algo CompressionAlgorithm) CompressionContext {
	return CompressionContext{Algorithm: algo, Threshold: DefaultCompressionThreshold}
}

func NewCompressionContextWithThreshold(algo CompressionAlgorithm, threshold int) CompressionContext {
	return CompressionContext{Algorithm: algo, Threshold: threshold}
}

// ShouldCompress reports whether payload is large enough to be worth
// compressing under ctx's threshold.
func (ctx CompressionContext) ShouldCompress(payload []byte) bool {
	return ctx.Algorithm != CompressionNone && len(payload) >= ctx.Threshold
}

// Compress encodes payload with ctx's algorithm. Callers are expected
// to have already checked ShouldCompress.
func (ctx CompressionContext) Compress(payload []byte) ([]byte, error) {
	switch ctx.Algorithm {
	case CompressionSnappy:
		return snappy.Encode(nil, payload), nil
	case CompressionZstd:
		return zstd.Compress(nil, payload)
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, wrapErr(KindCompression, err, "lz4 compress")
		}
		if err := w.Close(); err != nil {
			return nil, wrapErr(KindCompression, err, "lz4 flush")
		}
		return buf.Bytes(), nil
	case CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, wrapErr(KindCompression, err, "zlib compress")
		}
		if err := w.Close(); err != nil {
			return nil, wrapErr(KindCompression, err, "zlib flush")
		}
		return buf.Bytes(), nil
	default:
		return payload, nil
	}
}

// Decompress reverses Compress. originalSize is the caller's hint of
// the decompressed length (carried in the frame preamble); it sizes
// the output buffer but is not required to be exact for every codec.
func (ctx CompressionContext) Decompress(compressed []byte, originalSize int) ([]byte, error) {
	switch ctx.Algorithm {
	case CompressionSnappy:
		out, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, wrapErr(KindCompression, err, "snappy decompress")
		}
		return out, nil
	case CompressionZstd:
		out, err := zstd.Decompress(make([]byte, 0, originalSize), compressed)
		if err != nil {
			return nil, wrapErr(KindCompression, err, "zstd decompress")
		}
		return out, nil
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(compressed))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, wrapErr(KindCompression, err, "lz4 decompress")
		}
		return out, nil
	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, wrapErr(KindCompression, err, "zlib open")
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, wrapErr(KindCompression, err, "zlib decompress")
		}
		return out, nil
	default:
		return compressed, nil
	}
}
