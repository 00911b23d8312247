// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/denc"
)

func TestOSDOpRoundTrip(t *testing.T) {
	ops := []OSDOp{
		ReadOp(10, 20),
		SparseReadOp(0, 4096),
		WriteFullOp([]byte("hello")),
		StatOp(),
		DeleteOp(),
	}
	for _, op := range ops {
		b := denc.NewEncoder(32)
		op.Encode(b)
		decoded, err := DecodeOSDOp(denc.NewDecoder(b.Bytes()))
		require.NoError(t, err)
		require.Equal(t, op.Code, decoded.Code)
		require.Equal(t, op.Offset, decoded.Offset)
		require.Equal(t, op.Length, decoded.Length)
		require.True(t, bytes.Equal(op.Data, decoded.Data))
	}
}

func TestListCursorRoundTrip(t *testing.T) {
	c := ListCursor{Hash: 0x1234, Pool: 7, Snap: SnapHead, End: false, Namespace: "ns", Locator: "loc", Nspace: "nsp"}
	b := denc.NewEncoder(48)
	c.Encode(b)
	decoded, err := DecodeListCursor(denc.NewDecoder(b.Bytes()))
	require.NoError(t, err)
	require.Equal(t, c, decoded)
}

func TestListCursorZeroValueStartsListing(t *testing.T) {
	var c ListCursor
	require.False(t, c.End)
	require.Zero(t, c.Hash)
}

func TestStatResultRoundTrip(t *testing.T) {
	mtime := time.Unix(1700000000, 500).UTC()
	data := EncodeStatResult(4096, mtime)
	decoded, err := DecodeStatResult(data)
	require.NoError(t, err)
	require.EqualValues(t, 4096, decoded.Size)
	require.True(t, decoded.Mtime.Equal(mtime))
}

func TestMOSDOpRoundTrip(t *testing.T) {
	req := MOSDOp{
		Pool:      3,
		Oid:       "object-name",
		Ops:       []OSDOp{WriteFullOp([]byte("payload"))},
		Flags:     1,
		ClientInc: 1,
		Tid:       42,
		Epoch:     7,
	}
	decoded, err := DecodeMOSDOp(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestMOSDOpReplyRoundTrip(t *testing.T) {
	reply := MOSDOpReply{
		Tid:     42,
		RetVal:  0,
		Version: 9,
		Results: []OpResult{
			{RetVal: 0, Data: []byte("data"), Extents: []SparseExtent{{Offset: 0, Length: 4}}, Entries: []string{}, Cursor: ListCursor{}},
		},
	}
	decoded, err := DecodeMOSDOpReply(reply.Encode())
	require.NoError(t, err)
	require.Equal(t, reply, decoded)
}

func TestMOSDOpReplyIsSuccess(t *testing.T) {
	require.True(t, MOSDOpReply{RetVal: 0}.IsSuccess())
	require.False(t, MOSDOpReply{RetVal: -2}.IsSuccess())
}

func TestOpCodeString(t *testing.T) {
	require.Equal(t, "list", OpList.String())
	require.Equal(t, "write-full", OpWriteFull.String())
	require.Equal(t, "unknown", OpCode(99).String())
}
