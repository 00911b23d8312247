// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"

	"github.com/tchaikov/ceph-sub002/denc"
)

// ClientHandler drives the client side of the CephX handshake against
// one authenticating daemon (spec §4.4 "the client authenticates once
// per session, then presents per-service tickets thereafter").
type ClientHandler struct {
	entity EntityName
	secret CryptoKey
	mode   AuthMode

	globalID        uint64
	clientChallenge uint64
	sessionKey      CryptoKey
	tickets         map[uint32]TicketBlob

	log log.Logger
}

// NewClientHandler builds a handler for entity, authenticating with
// secret under mode.
func NewClientHandler(entity EntityName, secret CryptoKey, mode AuthMode) *ClientHandler {
	return &ClientHandler{
		entity:  entity,
		secret:  secret,
		mode:    mode,
		tickets: make(map[uint32]TicketBlob),
		log:     log.NewNoOpLogger(),
	}
}

func (c *ClientHandler) SetLogger(l log.Logger) { c.log = l }

// BuildInitialRequest encodes step 1: auth_mode, entity_name, and the
// client's previously-assigned global_id (0 if none yet).
func (c *ClientHandler) BuildInitialRequest(globalID uint64) ([]byte, error) {
	c.globalID = globalID
	b := denc.NewEncoder(32)
	b.PutU8(c.mode.byte())
	EncodeEntityName(b, c.entity)
	b.PutU64(globalID)
	return b.Bytes(), nil
}

// HandleServerChallenge processes the step 1 response and builds the
// step 2 request: the server challenge incremented by one, encrypted
// under the shared secret, sent together with the client's own nonce
// in the clear (spec §4.4).
func (c *ClientHandler) HandleServerChallenge(payload []byte) ([]byte, error) {
	b := denc.NewDecoder(payload)
	challenge, err := DecodeServerChallenge(b)
	if err != nil {
		return nil, errors.Wrap(err, "cephx: decoding server challenge")
	}

	var nonce [8]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "cephx: generating client challenge")
	}
	c.clientChallenge = binary.LittleEndian.Uint64(nonce[:])

	var responsePlain [8]byte
	binary.LittleEndian.PutUint64(responsePlain[:], challenge.ServerChallenge+1)
	encryptedResponse, err := c.secret.Encrypt(responsePlain[:])
	if err != nil {
		return nil, err
	}

	req := denc.NewEncoder(64)
	EncodeRequestHeader(req, RequestHeader{RequestType: RequestGetAuthSessionKey})
	EncodeAuthenticate(req, Authenticate{ClientChallenge: c.clientChallenge, Key: encryptedResponse})
	return req.Bytes(), nil
}

// HandleAuthSessionKeyResponse decrypts the session key and records the
// per-service tickets the server minted (spec §4.4 step 3-4).
func (c *ClientHandler) HandleAuthSessionKeyResponse(payload []byte) error {
	b := denc.NewDecoder(payload)

	encryptedSessionKey, err := b.GetBytes()
	if err != nil {
		return errors.Wrap(err, "cephx: reading encrypted session key")
	}
	sessionKeyBytes, err := c.secret.Decrypt(encryptedSessionKey)
	if err != nil {
		return errors.Wrap(err, "cephx: decrypting session key")
	}
	c.sessionKey = NewAESKey(sessionKeyBytes)

	count, err := b.GetCount()
	if err != nil {
		return errors.Wrap(err, "cephx: reading ticket count")
	}
	for i := 0; i < count; i++ {
		secretID, err := b.GetU64()
		if err != nil {
			return err
		}
		blob, err := b.GetBytes()
		if err != nil {
			return err
		}
		c.tickets[uint32(secretID)] = TicketBlob{SecretID: secretID, Blob: blob}
	}
	c.log.Debug("client authenticated", "entity", c.entity.String(), "tickets", len(c.tickets))
	return nil
}

// SessionKey returns the negotiated session key once the handshake has
// completed.
func (c *ClientHandler) SessionKey() CryptoKey { return c.sessionKey }

// Ticket returns the raw, still-encrypted ticket blob for serviceID, as
// received from the server (the service itself decrypts it with its
// own secret, which this client never holds).
func (c *ClientHandler) Ticket(serviceID uint32) (TicketBlob, bool) {
	t, ok := c.tickets[serviceID]
	return t, ok
}

// DecryptServiceTicket is used only in tests and single-process
// simulations where the caller happens to also hold the service
// secret; in a real deployment only the target daemon can do this.
func DecryptServiceTicket(serviceSecret CryptoKey, blob TicketBlob) (ServiceTicketInfo, error) {
	plain, err := serviceSecret.Decrypt(blob.Blob)
	if err != nil {
		return ServiceTicketInfo{}, errors.Wrap(err, "cephx: decrypting service ticket")
	}
	return decodeServiceTicketInfo(plain)
}
