// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cephx implements the CephX challenge-response authentication
// protocol: keyring parsing, session-key encrypt/decrypt, and the
// client- and server-side handshake state machines (spec §4.4, §6).
package cephx

import (
	"fmt"
	"strings"

	"github.com/tchaikov/ceph-sub002/denc"
)

// Entity type prefixes, per spec §6 "entity names are <type>.<id>".
const (
	EntityTypeClient = "client"
	EntityTypeMon    = "mon"
	EntityTypeOSD    = "osd"
	EntityTypeMDS    = "mds"
	EntityTypeMgr    = "mgr"
)

// Service ids, matching Ceph's CEPH_ENTITY_TYPE_* bitmask values; a
// service ticket is scoped to exactly one of these.
const (
	ServiceMon uint32 = 1 << 0
	ServiceOSD uint32 = 1 << 1
	ServiceMDS uint32 = 1 << 2
	ServiceMgr uint32 = 1 << 3
)

// CryptoAlgorithm identifies the cipher a CryptoKey's secret is used
// with; CephX only ever negotiates AES-128-CBC in practice (spec §4.4).
type CryptoAlgorithm uint16

const (
	CryptoNone CryptoAlgorithm = 0
	CryptoAES  CryptoAlgorithm = 1
)

// EntityName identifies a client or daemon participating in the
// protocol, e.g. "client.admin".
type EntityName struct {
	Type string
	ID   string
}

func (e EntityName) String() string { return e.Type + "." + e.ID }

// ParseEntityName splits "type.id" into an EntityName.
func ParseEntityName(s string) (EntityName, error) {
	t, id, ok := strings.Cut(s, ".")
	if !ok {
		return EntityName{}, fmt.Errorf("cephx: malformed entity name %q", s)
	}
	return EntityName{Type: t, ID: id}, nil
}

func (e EntityName) EncodeBody(b *denc.Buffer) {
	b.PutString(e.Type)
	b.PutString(e.ID)
}

func (e *EntityName) DecodeBody(b *denc.Buffer, structVersion uint8) error {
	typ, err := b.GetString()
	if err != nil {
		return err
	}
	id, err := b.GetString()
	if err != nil {
		return err
	}
	e.Type, e.ID = typ, id
	return nil
}

// EncodeEntityName and DecodeEntityName write/read the plain (non-
// versioned) field pair CephX's handshake payloads embed directly.
func EncodeEntityName(b *denc.Buffer, e EntityName) { e.EncodeBody(b) }

func DecodeEntityName(b *denc.Buffer) (EntityName, error) {
	var e EntityName
	err := e.DecodeBody(b, 0)
	return e, err
}

// AuthCapsInfo carries the serialized capability grant a ticket allows;
// the wire format is an opaque blob the server composes from keyring
// "caps <service>" lines and the client never needs to parse (spec §6).
type AuthCapsInfo struct {
	CapsBlob []byte
}

// AuthTicket is the server-issued proof of identity embedded in each
// service ticket (spec §4.4 "a signed ticket binding entity name,
// global id, and a validity window").
type AuthTicket struct {
	Name       EntityName
	GlobalID   uint64
	ValidFrom  uint64 // unix seconds
	ValidUntil uint64 // unix seconds
	Caps       AuthCapsInfo
	Flags      uint8
}

// NewAuthTicket creates a ticket with validity left unset.
func NewAuthTicket(name EntityName, globalID uint64) AuthTicket {
	return AuthTicket{Name: name, GlobalID: globalID}
}

func (t *AuthTicket) SetValidity(from, until uint64) {
	t.ValidFrom, t.ValidUntil = from, until
}

// ServiceTicketInfo is the per-service session key plus the ticket that
// authorizes it, encrypted end-to-end with the service's own secret
// before being handed back to the client (spec §4.4 step 3).
type ServiceTicketInfo struct {
	Ticket     AuthTicket
	SessionKey CryptoKey
}

func NewServiceTicketInfo(ticket AuthTicket, sessionKey CryptoKey) ServiceTicketInfo {
	return ServiceTicketInfo{Ticket: ticket, SessionKey: sessionKey}
}

// TicketBlob is the opaque, encrypted form of a ServiceTicketInfo as it
// travels on the wire and is later presented back to the issuing
// service (spec §4.4 "an opaque, server-held blob").
type TicketBlob struct {
	SecretID uint64
	Blob     []byte
}
