// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/cephx"
)

// fakeMonitor drives the server half of the handshake by hand, playing
// the role a real monitor daemon would over the wire, so DialClient can
// be exercised without a live cluster.
func fakeMonitor(t *testing.T, nc net.Conn, keyring *cephx.Keyring, serviceSecret cephx.CryptoKey) {
	t.Helper()
	conn := NewConn(nc)
	defer conn.Close()

	_, err := conn.ReadBanner()
	require.NoError(t, err)
	require.NoError(t, conn.WriteBanner(NewBanner()))

	server := cephx.NewServerHandler(keyring)
	server.AddServiceSecret(cephx.ServiceMon, serviceSecret)

	initFrame, err := conn.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, TagAuthRequest, initFrame.Preamble.Tag)

	entity, globalID, challengeResp, err := server.HandleInitialRequest(firstSegment(initFrame))
	require.NoError(t, err)
	require.NoError(t, conn.WriteFrame(NewFrame(TagAuthReplyMore, challengeResp)))

	authFrame, err := conn.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, TagAuthRequestMore, authFrame.Preamble.Tag)

	_, authBody, err := server.HandleAuthenticate(entity, globalID, firstSegment(authFrame))
	require.NoError(t, err)
	done := cephx.BuildAuthDoneResponse(globalID, 0, authBody)
	require.NoError(t, conn.WriteFrame(NewFrame(TagAuthDone, done)))

	connectMsg, _, err := conn.ReadConnectMessage()
	require.NoError(t, err)
	reply := ReadyReply(connectMsg.Features, 1, 1)
	require.NoError(t, conn.WriteConnectReply(reply, nil))
}

// TestHandshakeClientRejectsUnsatisfiedRequiredFeature covers spec §4.4
// "A peer rejects the connection when its supported-set does not
// satisfy the other's required-set": a monitor whose banner requires a
// feature bit this client doesn't advertise must cause the handshake
// to fail at the banner step, before any auth frame is sent.
func TestHandshakeClientRejectsUnsatisfiedRequiredFeature(t *testing.T) {
	const featureUnknown FeatureSet = 1 << 63

	serverConn, clientConn := net.Pipe()
	go func() {
		conn := NewConn(serverConn)
		defer conn.Close()
		_, _ = conn.ReadBanner()
		_ = conn.WriteBanner(Banner{SupportedFeatures: FeatureMsgr2, RequiredFeatures: featureUnknown})
	}()

	entity := cephx.EntityName{Type: cephx.EntityTypeClient, ID: "admin"}
	secret, err := cephx.GenerateAESKey()
	require.NoError(t, err)
	authenticator := cephx.NewClientHandler(entity, secret, cephx.AuthModeMon)

	_, err = handshakeClient(NewConn(clientConn), authenticator, 0)
	require.Error(t, err)
	var msgrErr *Error
	require.ErrorAs(t, err, &msgrErr)
	require.Equal(t, KindProtocol, msgrErr.Kind)
}

func TestDialClientFullHandshake(t *testing.T) {
	secret, err := cephx.GenerateAESKey()
	require.NoError(t, err)
	serviceSecret, err := cephx.GenerateAESKey()
	require.NoError(t, err)

	kr, err := cephx.ParseKeyring("[client.admin]\nkey = " + secret.Base64() + "\n")
	require.NoError(t, err)

	serverConn, clientConn := net.Pipe()
	go fakeMonitor(t, serverConn, kr, serviceSecret)

	entity := cephx.EntityName{Type: cephx.EntityTypeClient, ID: "admin"}
	authenticator := cephx.NewClientHandler(entity, secret, cephx.AuthModeMon)

	connCh := make(chan *Session, 1)
	errCh := make(chan error, 1)
	go func() {
		sess, err := handshakeClient(NewConn(clientConn), authenticator, 0)
		if err != nil {
			errCh <- err
			return
		}
		connCh <- sess
	}()

	select {
	case sess := <-connCh:
		require.True(t, sess.Features.Has(FeatureMsgr2))
	case err := <-errCh:
		t.Fatalf("handshake failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake timed out")
	}
	_ = context.Background()
}
