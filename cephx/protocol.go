// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import "github.com/tchaikov/ceph-sub002/denc"

// AuthMode selects which daemon family the client is authenticating
// against; CephX's challenge math is identical across modes, but the
// entity name and service tickets requested differ (spec §4.4).
type AuthMode uint8

const (
	AuthModeNone AuthMode = iota
	AuthModeMon
	AuthModeOSD
)

func (m AuthMode) byte() byte { return byte(m) }

func authModeFromByte(b byte) (AuthMode, bool) {
	switch AuthMode(b) {
	case AuthModeNone, AuthModeMon, AuthModeOSD:
		return AuthMode(b), true
	default:
		return 0, false
	}
}

// Request type carried in a CephXRequestHeader; only the session-key
// request is implemented since that is the only step this client's
// handshake drives (spec §4.4 steps 1-4).
const RequestGetAuthSessionKey uint16 = 0x0100

// RequestHeader precedes a CephXAuthenticate payload.
type RequestHeader struct {
	RequestType uint16
}

func (h RequestHeader) EncodeBody(b *denc.Buffer) { b.PutU16(h.RequestType) }

func (h *RequestHeader) DecodeBody(b *denc.Buffer, structVersion uint8) error {
	v, err := b.GetU16()
	if err != nil {
		return err
	}
	h.RequestType = v
	return nil
}

// EncodeRequestHeader and the Authenticate/ServerChallenge pairs below
// write plain (non-versioned) bodies: these are fixed, never-revised
// handshake fields, not the evolvable structures denc's versioned
// envelope exists for.
func EncodeRequestHeader(b *denc.Buffer, h RequestHeader) { h.EncodeBody(b) }

func DecodeRequestHeader(b *denc.Buffer) (RequestHeader, error) {
	var h RequestHeader
	err := h.DecodeBody(b, 0)
	return h, err
}

// ServerChallenge is step 1's response: a fresh random nonce the
// client must fold into its encrypted reply (spec §4.4 "the server
// issues a random challenge").
type ServerChallenge struct {
	ServerChallenge uint64
}

func (c ServerChallenge) EncodeBody(b *denc.Buffer) { b.PutU64(c.ServerChallenge) }

func (c *ServerChallenge) DecodeBody(b *denc.Buffer, structVersion uint8) error {
	v, err := b.GetU64()
	if err != nil {
		return err
	}
	c.ServerChallenge = v
	return nil
}

func EncodeServerChallenge(b *denc.Buffer, c ServerChallenge) { c.EncodeBody(b) }

func DecodeServerChallenge(b *denc.Buffer) (ServerChallenge, error) {
	var c ServerChallenge
	err := c.DecodeBody(b, 0)
	return c, err
}

// Authenticate is step 2's payload: the client's own challenge plus
// the server challenge incremented by one, encrypted under the shared
// secret (spec §4.4 "the client echoes challenge+1, encrypted").
type Authenticate struct {
	ClientChallenge uint64
	Key             []byte // encrypted(server_challenge + 1), opaque on the wire
}

func (a Authenticate) EncodeBody(b *denc.Buffer) {
	b.PutU64(a.ClientChallenge)
	b.PutBytes(a.Key)
}

func (a *Authenticate) DecodeBody(b *denc.Buffer, structVersion uint8) error {
	v, err := b.GetU64()
	if err != nil {
		return err
	}
	key, err := b.GetBytes()
	if err != nil {
		return err
	}
	a.ClientChallenge, a.Key = v, key
	return nil
}

func EncodeAuthenticate(b *denc.Buffer, a Authenticate) { a.EncodeBody(b) }

func DecodeAuthenticate(b *denc.Buffer) (Authenticate, error) {
	var a Authenticate
	err := a.DecodeBody(b, 0)
	return a, err
}
