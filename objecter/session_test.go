// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/msgr2"
)

// fakeOSD plays the server half of the handshake and then answers
// exactly one MOSDOp with a successful MOSDOpReply, the way
// msgr2/connect_test.go's fakeMonitor exercises the monitor side.
func fakeOSD(t *testing.T, nc net.Conn, keyring *cephx.Keyring, serviceSecret cephx.CryptoKey) {
	t.Helper()
	conn := msgr2.NewConn(nc)
	defer conn.Close()

	_, err := conn.ReadBanner()
	require.NoError(t, err)
	require.NoError(t, conn.WriteBanner(msgr2.NewBanner()))

	server := cephx.NewServerHandler(keyring)
	server.AddServiceSecret(cephx.ServiceOSD, serviceSecret)

	initFrame, err := conn.ReadFrame()
	require.NoError(t, err)
	entity, globalID, challengeResp, err := server.HandleInitialRequest(initFrame.Segments[0])
	require.NoError(t, err)
	require.NoError(t, conn.WriteFrame(msgr2.NewFrame(msgr2.TagAuthReplyMore, challengeResp)))

	authFrame, err := conn.ReadFrame()
	require.NoError(t, err)
	_, authBody, err := server.HandleAuthenticate(entity, globalID, authFrame.Segments[0])
	require.NoError(t, err)
	done := cephx.BuildAuthDoneResponse(globalID, 0, authBody)
	require.NoError(t, conn.WriteFrame(msgr2.NewFrame(msgr2.TagAuthDone, done)))

	connectMsg, _, err := conn.ReadConnectMessage()
	require.NoError(t, err)
	reply := msgr2.ReadyReply(connectMsg.Features, 1, 1)
	require.NoError(t, conn.WriteConnectReply(reply, nil))

	frame, err := conn.ReadFrame()
	require.NoError(t, err)
	msg, err := msgr2.ReadMessageFromFrame(frame)
	require.NoError(t, err)
	require.Equal(t, msgr2.MsgOSDOp, msg.Header.MsgType)

	req, err := DecodeMOSDOp(msg.Front)
	require.NoError(t, err)

	osdReply := MOSDOpReply{
		Tid:     msg.Header.Tid,
		RetVal:  0,
		Version: 1,
		Results: []OpResult{{RetVal: 0, Data: []byte("ack-for-" + req.Oid)}},
	}
	replyMsg := msgr2.NewMessage(msgr2.MsgOSDOpReply, osdReply.Encode()).WithTid(msg.Header.Tid)
	require.NoError(t, conn.WriteMessage(replyMsg))
}

func TestDaemonSessionSendRoundTrip(t *testing.T) {
	secret, err := cephx.GenerateAESKey()
	require.NoError(t, err)
	serviceSecret, err := cephx.GenerateAESKey()
	require.NoError(t, err)

	kr, err := cephx.ParseKeyring("[client.admin]\nkey = " + secret.Base64() + "\n")
	require.NoError(t, err)

	serverConn, clientConn := net.Pipe()
	go fakeOSD(t, serverConn, kr, serviceSecret)

	entity := cephx.EntityName{Type: cephx.EntityTypeClient, ID: "admin"}
	authenticator := cephx.NewClientHandler(entity, secret, cephx.AuthModeOSD)
	rawSess, err := msgr2.HandshakeClient(clientConn, authenticator, 0)
	require.NoError(t, err)

	ds := &daemonSession{
		daemonID: 0,
		sess:     rawSess,
		tracker:  NewTracker(),
		backoffs: NewBackoffTracker(DefaultBackoffConfig()),
		log:      log.NewNoOpLogger(),
	}
	go ds.readLoop()

	req := MOSDOp{Pool: 1, Oid: "foo", Ops: []OSDOp{WriteFullOp([]byte("hi"))}}
	reply, err := ds.Send(context.Background(), req, BackoffKey{Pool: 1, PG: 0}, time.Now().Add(2*time.Second), nil)
	require.NoError(t, err)
	require.True(t, reply.IsSuccess())
	require.Len(t, reply.Results, 1)
	require.Equal(t, "ack-for-foo", string(reply.Results[0].Data))
}
