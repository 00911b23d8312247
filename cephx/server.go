// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"

	"github.com/tchaikov/ceph-sub002/denc"
)

// ServerHandler drives the server side of the CephX handshake: it
// verifies a client's keyring secret, mints a session key, and signs
// per-service tickets (spec §4.4, grounded on the reference server's
// "start global_id allocation at 1000" convention).
type ServerHandler struct {
	keyring *Keyring

	serverChallenge uint64
	nextGlobalID    uint64
	serviceSecrets  map[uint32]CryptoKey

	log log.Logger
}

// NewServerHandler creates a handler backed by keyring.
func NewServerHandler(keyring *Keyring) *ServerHandler {
	return &ServerHandler{
		keyring:        keyring,
		nextGlobalID:   1000,
		serviceSecrets: make(map[uint32]CryptoKey),
		log:            log.NewNoOpLogger(),
	}
}

func (h *ServerHandler) SetLogger(l log.Logger) { h.log = l }

// AddServiceSecret registers the secret used to encrypt tickets for a
// service (MON, OSD, MDS, or Mgr).
func (h *ServerHandler) AddServiceSecret(serviceID uint32, secret CryptoKey) {
	h.serviceSecrets[serviceID] = secret
}

func (h *ServerHandler) allocateGlobalID() uint64 {
	id := h.nextGlobalID
	h.nextGlobalID++
	return id
}

// HandleInitialRequest processes step 1: the client's auth mode, entity
// name, and requested global_id. It returns the entity, the resolved
// global_id, and the encoded ServerChallenge response.
func (h *ServerHandler) HandleInitialRequest(payload []byte) (EntityName, uint64, []byte, error) {
	b := denc.NewDecoder(payload)

	modeByte, err := b.GetU8()
	if err != nil {
		return EntityName{}, 0, nil, errors.Wrap(err, "cephx: reading auth mode")
	}
	if _, ok := authModeFromByte(modeByte); !ok {
		return EntityName{}, 0, nil, errors.Newf("cephx: invalid auth mode %d", modeByte)
	}

	entity, err := DecodeEntityName(b)
	if err != nil {
		return EntityName{}, 0, nil, errors.Wrap(err, "cephx: reading entity name")
	}
	h.log.Debug("server received auth request", "entity", entity.String())

	clientGlobalID, err := b.GetU64()
	if err != nil {
		return EntityName{}, 0, nil, errors.Wrap(err, "cephx: reading global_id")
	}

	if !h.keyring.HasEntity(entity.String()) {
		h.log.Warn("client not found in keyring", "entity", entity.String())
		return EntityName{}, 0, nil, errors.Newf("cephx: client %s not found", entity)
	}

	globalID := clientGlobalID
	if globalID == 0 {
		globalID = h.allocateGlobalID()
	}

	var challengeBytes [8]byte
	if _, err := rand.Read(challengeBytes[:]); err != nil {
		return EntityName{}, 0, nil, errors.Wrap(err, "cephx: generating server challenge")
	}
	h.serverChallenge = binary.LittleEndian.Uint64(challengeBytes[:])

	resp := denc.NewEncoder(8)
	EncodeServerChallenge(resp, ServerChallenge{ServerChallenge: h.serverChallenge})
	return entity, globalID, resp.Bytes(), nil
}

// HandleAuthenticate processes step 2: verifies the client's encrypted
// challenge response, mints a session key, and signs service tickets.
// Returns the session key and the encoded (session-key, tickets) body.
func (h *ServerHandler) HandleAuthenticate(entity EntityName, globalID uint64, payload []byte) (CryptoKey, []byte, error) {
	b := denc.NewDecoder(payload)

	header, err := DecodeRequestHeader(b)
	if err != nil {
		return CryptoKey{}, nil, errors.Wrap(err, "cephx: reading request header")
	}
	if header.RequestType != RequestGetAuthSessionKey {
		return CryptoKey{}, nil, errors.Newf("cephx: unexpected request type 0x%04x", header.RequestType)
	}

	authenticate, err := DecodeAuthenticate(b)
	if err != nil {
		return CryptoKey{}, nil, errors.Wrap(err, "cephx: reading authenticate payload")
	}

	clientSecret, ok := h.keyring.Key(entity.String())
	if !ok {
		return CryptoKey{}, nil, errors.Newf("cephx: no secret for %s", entity)
	}

	expected := h.serverChallenge + 1
	decrypted, err := clientSecret.Decrypt(authenticate.Key)
	if err != nil {
		return CryptoKey{}, nil, errors.Wrap(err, "cephx: decrypting challenge response")
	}
	if len(decrypted) < 8 {
		return CryptoKey{}, nil, errors.New("cephx: invalid challenge response")
	}
	got := binary.LittleEndian.Uint64(decrypted[:8])
	if got != expected {
		h.log.Warn("challenge verification failed", "expected", expected, "got", got)
		return CryptoKey{}, nil, errors.New("cephx: challenge verification failed")
	}

	sessionKey, err := GenerateAESKey()
	if err != nil {
		return CryptoKey{}, nil, err
	}
	h.log.Debug("client authenticated", "entity", entity.String())

	tickets, err := h.generateServiceTickets(entity, globalID)
	if err != nil {
		return CryptoKey{}, nil, err
	}

	resp := denc.NewEncoder(64)
	encryptedSessionKey, err := clientSecret.Encrypt(sessionKey.Secret)
	if err != nil {
		return CryptoKey{}, nil, err
	}
	resp.PutBytes(encryptedSessionKey)
	resp.PutCount(len(tickets))
	for _, t := range tickets {
		resp.PutU64(t.SecretID)
		resp.PutBytes(t.Blob)
	}

	return sessionKey, resp.Bytes(), nil
}

func (h *ServerHandler) generateServiceTickets(entity EntityName, globalID uint64) ([]TicketBlob, error) {
	now := time.Now().Unix()
	validFrom := uint64(now)
	validUntil := validFrom + 3600

	tickets := make([]TicketBlob, 0, len(h.serviceSecrets))
	for serviceID, secret := range h.serviceSecrets {
		serviceKey, err := GenerateAESKey()
		if err != nil {
			return nil, err
		}

		ticket := NewAuthTicket(entity, globalID)
		ticket.SetValidity(validFrom, validUntil)

		info := NewServiceTicketInfo(ticket, serviceKey)
		encoded := encodeServiceTicketInfo(info)

		encrypted, err := secret.Encrypt(encoded)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, TicketBlob{SecretID: uint64(serviceID), Blob: encrypted})
	}
	return tickets, nil
}

// BuildAuthDoneResponse assembles the AUTH_DONE payload (global_id,
// negotiated connection mode, and the session-key+tickets body already
// produced by HandleAuthenticate).
func BuildAuthDoneResponse(globalID uint64, connectionMode uint8, authPayload []byte) []byte {
	resp := denc.NewEncoder(16 + len(authPayload))
	resp.PutU64(globalID)
	resp.PutU8(connectionMode)
	resp.PutRaw(authPayload)
	return resp.Bytes()
}

func encodeServiceTicketInfo(info ServiceTicketInfo) []byte {
	b := denc.NewEncoder(64)
	EncodeEntityName(b, info.Ticket.Name)
	b.PutU64(info.Ticket.GlobalID)
	b.PutU64(info.Ticket.ValidFrom)
	b.PutU64(info.Ticket.ValidUntil)
	b.PutBytes(info.Ticket.Caps.CapsBlob)
	b.PutU8(info.Ticket.Flags)
	b.PutU16(uint16(info.SessionKey.Type))
	b.PutBytes(info.SessionKey.Secret)
	return b.Bytes()
}

func decodeServiceTicketInfo(raw []byte) (ServiceTicketInfo, error) {
	b := denc.NewDecoder(raw)
	name, err := DecodeEntityName(b)
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	globalID, err := b.GetU64()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	validFrom, err := b.GetU64()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	validUntil, err := b.GetU64()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	capsBlob, err := b.GetBytes()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	flags, err := b.GetU8()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	keyType, err := b.GetU16()
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	secret, err := b.GetBytes()
	if err != nil {
		return ServiceTicketInfo{}, err
	}

	ticket := AuthTicket{
		Name:       name,
		GlobalID:   globalID,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		Caps:       AuthCapsInfo{CapsBlob: capsBlob},
		Flags:      flags,
	}
	return ServiceTicketInfo{
		Ticket:     ticket,
		SessionKey: CryptoKey{Type: CryptoAlgorithm(keyType), Secret: secret},
	}, nil
}
