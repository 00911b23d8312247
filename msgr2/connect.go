// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import (
	"context"
	"net"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/denc"
)

// AuthorizerProtocolCephX is the authorizer protocol ID a ConnectMessage
// carries when the session authenticates with CephX (spec §4.2/§4.4).
const AuthorizerProtocolCephX uint32 = 2

// HostTypeClient is the host_type value librados-style clients send in
// ConnectMessage (spec §4.4, Ceph's CEPH_ENTITY_TYPE_CLIENT).
const HostTypeClient uint32 = 8

// ClientAuthenticator is the subset of cephx.ClientHandler the connect
// driver needs; kept as an interface so tests can substitute a fake
// without a real keyring.
type ClientAuthenticator interface {
	BuildInitialRequest(globalID uint64) ([]byte, error)
	HandleServerChallenge(payload []byte) ([]byte, error)
	HandleAuthSessionKeyResponse(payload []byte) error
	SessionKey() cephx.CryptoKey
}

// Session is a connection that has completed the handshake: banner,
// authentication, and feature negotiation are all done, and it is
// ready to carry application Messages (spec §4.4 state "Ready").
type Session struct {
	Conn       *Conn
	GlobalID   uint64
	PeerBanner Banner
	Features   FeatureSet
	GlobalSeq  uint32
	ConnectSeq uint32
}

// DialClient opens addr, performs the banner exchange, drives auth
// through authenticator, and negotiates features, returning a Session
// in StateReady. globalID is 0 on a first-ever connection to let the
// monitor allocate one.
func DialClient(ctx context.Context, addr string, authenticator ClientAuthenticator, globalID uint64) (*Session, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wrapErr(KindConnection, err, "dialing %s", addr)
	}

	sess, err := HandshakeClient(nc, authenticator, globalID)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return sess, nil
}

// HandshakeClient drives the banner/auth/connect handshake over an
// already-established net.Conn, returning a Session in StateReady. It
// underlies DialClient and lets callers (including tests) supply their
// own transport, such as a net.Pipe, instead of a dialed TCP socket.
func HandshakeClient(nc net.Conn, authenticator ClientAuthenticator, globalID uint64) (*Session, error) {
	return handshakeClient(NewConn(nc), authenticator, globalID)
}

func handshakeClient(conn *Conn, authenticator ClientAuthenticator, globalID uint64) (*Session, error) {
	// Banner
	if err := conn.WriteBanner(NewBanner()); err != nil {
		return nil, err
	}
	peerBanner, err := conn.ReadBanner()
	if err != nil {
		return nil, err
	}
	ourBanner := NewBanner()
	if !ourBanner.SupportedFeatures.Satisfies(peerBanner.RequiredFeatures) {
		conn.Close()
		return nil, newErr(KindProtocol, "peer requires features %#x we don't support (we support %#x)",
			peerBanner.RequiredFeatures.Value(), ourBanner.SupportedFeatures.Value())
	}

	// Auth: initial request -> server challenge -> session key + tickets.
	initReq, err := authenticator.BuildInitialRequest(globalID)
	if err != nil {
		return nil, wrapErr(KindAuth, err, "building initial auth request")
	}
	if err := conn.WriteFrame(NewFrame(TagAuthRequest, initReq)); err != nil {
		return nil, err
	}

	challengeFrame, err := conn.ReadFrame()
	if err != nil {
		return nil, err
	}
	if challengeFrame.Preamble.Tag != TagAuthReplyMore {
		return nil, newErr(KindAuth, "expected auth reply, got tag %d", challengeFrame.Preamble.Tag)
	}
	authReq, err := authenticator.HandleServerChallenge(firstSegment(challengeFrame))
	if err != nil {
		return nil, wrapErr(KindAuth, err, "handling server challenge")
	}
	if err := conn.WriteFrame(NewFrame(TagAuthRequestMore, authReq)); err != nil {
		return nil, err
	}

	doneFrame, err := conn.ReadFrame()
	if err != nil {
		return nil, err
	}
	if doneFrame.Preamble.Tag != TagAuthDone {
		return nil, newErr(KindAuth, "expected auth done, got tag %d", doneFrame.Preamble.Tag)
	}
	resolvedGlobalID, body, err := decodeAuthDone(firstSegment(doneFrame))
	if err != nil {
		return nil, wrapErr(KindAuth, err, "decoding auth done")
	}
	if err := authenticator.HandleAuthSessionKeyResponse(body); err != nil {
		return nil, wrapErr(KindAuth, err, "handling session key response")
	}

	// Feature negotiation.
	connectMsg := NewConnectMessage(NewFeatureSet(FeatureMsgr2.Value()), HostTypeClient)
	if err := conn.WriteConnectMessage(connectMsg, nil); err != nil {
		return nil, err
	}
	reply, _, err := conn.ReadConnectReply()
	if err != nil {
		return nil, err
	}
	if reply.IsError() {
		return nil, newErr(KindProtocol, "connect rejected with tag %d", reply.Tag)
	}
	if !reply.IsReady() {
		return nil, newErr(KindProtocol, "unexpected connect reply tag %d", reply.Tag)
	}

	return &Session{
		Conn:       conn,
		GlobalID:   resolvedGlobalID,
		PeerBanner: peerBanner,
		Features:   reply.Features,
		GlobalSeq:  reply.GlobalSeq,
		ConnectSeq: reply.ConnectSeq,
	}, nil
}

func firstSegment(f Frame) []byte {
	if len(f.Segments) == 0 {
		return nil
	}
	return f.Segments[0]
}

// decodeAuthDone splits BuildAuthDoneResponse's layout (global_id,
// connection_mode, auth body) back apart; the connection mode byte is
// read and discarded.
func decodeAuthDone(payload []byte) (uint64, []byte, error) {
	b := denc.NewDecoder(payload)
	globalID, err := b.GetU64()
	if err != nil {
		return 0, nil, err
	}
	if _, err := b.GetU8(); err != nil {
		return 0, nil, err
	}
	rest, err := b.GetRaw(b.Remaining())
	if err != nil {
		return 0, nil, err
	}
	return globalID, rest, nil
}
