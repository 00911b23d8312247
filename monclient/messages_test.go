// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMMonSubscribeRoundTrip(t *testing.T) {
	sub := NewMMonSubscribe()
	sub.Add("osdmap", SubscribeItem{Start: 42, Flags: CephSubscribeOnetime})

	decoded, err := DecodeMMonSubscribe(sub.Encode())
	require.NoError(t, err)
	require.Equal(t, sub.Items, decoded.Items)
}

func TestMMonSubscribeAckRoundTrip(t *testing.T) {
	ack := MMonSubscribeAck{IntervalSecs: 30}
	decoded, err := DecodeMMonSubscribeAck(ack.Encode())
	require.NoError(t, err)
	require.Equal(t, ack.IntervalSecs, decoded.IntervalSecs)
}

func TestMMonGetVersionRoundTrip(t *testing.T) {
	req := NewMMonGetVersion(7, "osdmap")
	decoded, err := DecodeMMonGetVersion(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestMMonGetVersionReplyRoundTrip(t *testing.T) {
	reply := MMonGetVersionReply{Handle: 7, Version: 100, OldestVersion: 10}
	decoded, err := DecodeMMonGetVersionReply(reply.Encode())
	require.NoError(t, err)
	require.Equal(t, reply, decoded)
}

func TestMMonCommandRoundTrip(t *testing.T) {
	cmd := NewMMonCommand([]string{`{"prefix": "status"}`})
	cmd.Paxos = NewPaxosFields(5)
	front := cmd.Encode()

	decoded, err := DecodeMMonCommand(front, []byte("input-blob"))
	require.NoError(t, err)
	require.Equal(t, cmd.Cmd, decoded.Cmd)
	require.Equal(t, uint64(5), decoded.Paxos.Version)
	require.Equal(t, []byte("input-blob"), decoded.Inbl)
}

func TestMMonCommandAckRoundTrip(t *testing.T) {
	ack := MMonCommandAck{Paxos: NewPaxosFields(3), Cmd: []string{"status"}, R: 0, Rs: "ok"}
	decoded, err := DecodeMMonCommandAck(ack.Encode())
	require.NoError(t, err)
	require.Equal(t, ack.Cmd, decoded.Cmd)
	require.Equal(t, ack.R, decoded.R)
	require.Equal(t, ack.Rs, decoded.Rs)
}

func TestMPoolOpRoundTrip(t *testing.T) {
	op := MPoolOp{Paxos: NewPaxosFields(1), Op: PoolOpCreate, Pool: 5, Name: "rbd", CrushRule: 0}
	decoded, err := DecodeMPoolOp(op.Encode())
	require.NoError(t, err)
	require.Equal(t, op.Op, decoded.Op)
	require.Equal(t, op.Pool, decoded.Pool)
	require.Equal(t, op.Name, decoded.Name)
}

func TestMPoolOpReplyRoundTrip(t *testing.T) {
	reply := MPoolOpReply{Paxos: NewPaxosFields(1), ReplyCode: 0, Epoch: 12}
	decoded, err := DecodeMPoolOpReply(reply.Encode())
	require.NoError(t, err)
	require.True(t, decoded.Result().IsSuccess())
	require.EqualValues(t, 12, decoded.Result().Epoch)
}

func TestMAuthRoundTrip(t *testing.T) {
	auth := MAuth{Protocol: 2, Payload: []byte("handshake-bytes"), MonmapEpoch: 9}
	decoded, err := DecodeMAuth(auth.Encode())
	require.NoError(t, err)
	require.Equal(t, auth.Protocol, decoded.Protocol)
	require.Equal(t, auth.Payload, decoded.Payload)
	require.Equal(t, auth.MonmapEpoch, decoded.MonmapEpoch)
}

func TestMAuthReplyRoundTrip(t *testing.T) {
	reply := MAuthReply{ProtocolVersion: 2, Result: 0, GlobalID: 1001, ResultMsg: "", Payload: []byte("ticket")}
	decoded, err := DecodeMAuthReply(reply.Encode())
	require.NoError(t, err)
	require.True(t, decoded.IsSuccess())
	require.NoError(t, decoded.Err())
	require.Equal(t, reply.GlobalID, decoded.GlobalID)
	require.Equal(t, reply.Payload, decoded.Payload)
}

func TestMAuthReplyFailureErr(t *testing.T) {
	reply := MAuthReply{Result: -1, ResultMsg: "bad ticket"}
	require.False(t, reply.IsSuccess())
	require.Error(t, reply.Err())
}
