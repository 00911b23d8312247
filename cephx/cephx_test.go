// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptoKeyEncodeDecodeRoundTrip(t *testing.T) {
	secret := make([]byte, secretLen)
	for i := range secret {
		secret[i] = byte(i)
	}
	k := NewAESKey(secret)
	encoded := k.Encoded()
	require.Len(t, encoded, 28, "keyring envelope is 12-byte header + 16-byte secret")

	decoded, err := DecodeCryptoKey(encoded)
	require.NoError(t, err)
	require.Equal(t, k.Secret, decoded.Secret)
	require.Equal(t, k.Type, decoded.Type)
}

func TestCryptoKeyBase64RoundTrip(t *testing.T) {
	secret := make([]byte, secretLen)
	for i := range secret {
		secret[i] = byte(0xAA)
	}
	k := NewAESKey(secret)
	s := k.Base64()

	decoded, err := FromBase64(s)
	require.NoError(t, err)
	require.Equal(t, k.Secret, decoded.Secret)
}

func TestCryptoKeyEncryptDecryptRoundTrip(t *testing.T) {
	k, err := GenerateAESKey()
	require.NoError(t, err)

	plaintext := []byte("authenticate me please")
	ciphertext, err := k.Encrypt(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	decrypted, err := k.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestParseKeyring(t *testing.T) {
	secret := make([]byte, secretLen)
	for i := range secret {
		secret[i] = byte(i + 1)
	}
	key := NewAESKey(secret).Base64()

	content := "\n[client.admin]\n\tkey = " + key + "\n\tcaps mgr = \"allow *\"\n\tcaps mon = \"allow *\"\n\n[client.test]\n\tkey = " + key + "\n\tcaps mon = \"allow r\"\n"

	kr, err := ParseKeyring(content)
	require.NoError(t, err)

	require.True(t, kr.HasEntity("client.admin"))
	require.True(t, kr.HasEntity("client.test"))
	require.False(t, kr.HasEntity("client.nonexistent"))

	adminKey, ok := kr.Key("client.admin")
	require.True(t, ok)
	require.Len(t, adminKey.Encoded(), 28)

	caps, ok := kr.Caps("client.admin", "mon")
	require.True(t, ok)
	require.Equal(t, `"allow *"`, caps)

	require.Len(t, kr.Entities(), 2)
}

func TestEntityNameRoundTrip(t *testing.T) {
	e, err := ParseEntityName("client.admin")
	require.NoError(t, err)
	require.Equal(t, "client", e.Type)
	require.Equal(t, "admin", e.ID)
	require.Equal(t, "client.admin", e.String())

	_, err = ParseEntityName("malformed")
	require.Error(t, err)
}

func TestFullHandshake(t *testing.T) {
	secret := make([]byte, secretLen)
	for i := range secret {
		secret[i] = byte(i + 3)
	}
	clientSecret := NewAESKey(secret)

	kr := NewKeyring()
	kr.keys["client.admin"] = clientSecret

	serviceSecretBytes := make([]byte, secretLen)
	for i := range serviceSecretBytes {
		serviceSecretBytes[i] = byte(200 + i)
	}
	serviceSecret := NewAESKey(serviceSecretBytes)

	server := NewServerHandler(kr)
	server.AddServiceSecret(ServiceMon, serviceSecret)

	entity, err := ParseEntityName("client.admin")
	require.NoError(t, err)
	client := NewClientHandler(entity, clientSecret, AuthModeMon)

	initialReq, err := client.BuildInitialRequest(0)
	require.NoError(t, err)

	gotEntity, globalID, challengeResp, err := server.HandleInitialRequest(initialReq)
	require.NoError(t, err)
	require.Equal(t, entity, gotEntity)
	require.EqualValues(t, 1000, globalID)

	authReq, err := client.HandleServerChallenge(challengeResp)
	require.NoError(t, err)

	sessionKey, authResp, err := server.HandleAuthenticate(gotEntity, globalID, authReq)
	require.NoError(t, err)
	require.Len(t, sessionKey.Secret, secretLen)

	require.NoError(t, client.HandleAuthSessionKeyResponse(authResp))
	require.Equal(t, sessionKey.Secret, client.SessionKey().Secret)

	blob, ok := client.Ticket(ServiceMon)
	require.True(t, ok)

	info, err := DecryptServiceTicket(serviceSecret, blob)
	require.NoError(t, err)
	require.Equal(t, entity, info.Ticket.Name)
	require.Equal(t, globalID, info.Ticket.GlobalID)
}

func TestHandshakeRejectsUnknownEntity(t *testing.T) {
	kr := NewKeyring()
	server := NewServerHandler(kr)

	entity, err := ParseEntityName("client.ghost")
	require.NoError(t, err)
	client := NewClientHandler(entity, CryptoKey{Secret: make([]byte, secretLen)}, AuthModeMon)

	req, err := client.BuildInitialRequest(0)
	require.NoError(t, err)

	_, _, _, err = server.HandleInitialRequest(req)
	require.Error(t, err)
}

func TestHandshakeRejectsWrongSecret(t *testing.T) {
	correctSecret := NewAESKey(make([]byte, secretLen))
	wrongBytes := make([]byte, secretLen)
	wrongBytes[0] = 1
	wrongSecret := NewAESKey(wrongBytes)

	kr := NewKeyring()
	kr.keys["client.admin"] = correctSecret
	server := NewServerHandler(kr)

	entity, _ := ParseEntityName("client.admin")
	client := NewClientHandler(entity, wrongSecret, AuthModeMon)

	req, err := client.BuildInitialRequest(0)
	require.NoError(t, err)
	gotEntity, globalID, challengeResp, err := server.HandleInitialRequest(req)
	require.NoError(t, err)

	authReq, err := client.HandleServerChallenge(challengeResp)
	require.NoError(t, err)

	_, _, err = server.HandleAuthenticate(gotEntity, globalID, authReq)
	require.Error(t, err)
}
