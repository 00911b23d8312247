// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBannerRoundTripOverConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	done := make(chan error, 1)
	go func() { done <- cc.WriteBanner(NewBanner()) }()

	got, err := sc.ReadBanner()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.True(t, got.SupportedFeatures.Has(FeatureMsgr2))
}

func TestConnectMessageRoundTripOverConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	msg := NewConnectMessage(NewFeatureSet(FeatureMsgr2.Value()), HostTypeClient)
	done := make(chan error, 1)
	go func() { done <- cc.WriteConnectMessage(msg, nil) }()

	got, auth, err := sc.ReadConnectMessage()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Nil(t, auth)
	require.Equal(t, msg.HostType, got.HostType)
	require.Equal(t, ProtocolVersion, got.ProtocolVersion)
}

func TestConnectReplyRoundTripOverConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	reply := ReadyReply(NewFeatureSet(FeatureMsgr2.Value()), 1, 1)
	done := make(chan error, 1)
	go func() { done <- sc.WriteConnectReply(reply, nil) }()

	got, _, err := cc.ReadConnectReply()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.True(t, got.IsReady())
}

func TestFrameRoundTripOverConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	f := NewFrame(TagMessage, []byte("hello world"))
	done := make(chan error, 1)
	go func() { done <- cc.WriteFrame(f) }()

	got, err := sc.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, TagMessage, got.Preamble.Tag)
	require.Equal(t, []byte("hello world"), got.Segments[0])
}

func TestMessageRoundTripOverConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	msg := Ping().WithSeq(5).WithTid(9)
	done := make(chan error, 1)
	go func() { done <- cc.WriteMessage(msg) }()

	f, err := sc.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, TagMessage, f.Preamble.Tag)

	decoded, err := ReadMessageFromFrame(f)
	require.NoError(t, err)
	require.Equal(t, MsgPing, decoded.Header.MsgType)
	require.EqualValues(t, 5, decoded.Header.Seq)
	require.EqualValues(t, 9, decoded.Header.Tid)
}

func TestFrameCompressionRoundTrip(t *testing.T) {
	ctx := NewCompressionContextWithThreshold(CompressionSnappy, 4)
	payload := []byte("this payload is definitely long enough to compress")
	f := NewFrame(TagMessage, payload)

	compressed, err := f.Compress(ctx)
	require.NoError(t, err)
	require.NotZero(t, compressed.Preamble.Flags&FrameEarlyDataCompressed)

	decompressed, err := compressed.Decompress(ctx, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, decompressed.Segments[0])
}
