// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// cephIV is the fixed CBC initialization vector CephX uses for every
// AES-128 session-key and ticket encryption; it is public (not a
// secret) and exists only so both ends agree on a block-chaining seed.
//
// No third-party AES implementation appears anywhere in the retrieved
// corpus, so this package uses crypto/aes + crypto/cipher directly
// (recorded in DESIGN.md as a justified stdlib-only component).
var cephIV = [aes.BlockSize]byte{'c', 'e', 'p', 'h', 's', 'a', 'g', 'e', 'y', 'u', 'd', 'a', 'g', 'r', 'e', 'g'}

const secretLen = 16 // AES-128 key size

// CryptoKey is a secret plus the small header Ceph stores alongside it
// on the wire and in keyrings: an algorithm tag and a creation
// timestamp (spec §6 "keys are versioned AES-128 secrets").
type CryptoKey struct {
	Type       CryptoAlgorithm
	CreatedSec uint32
	CreatedNsec uint32
	Secret     []byte // 16 bytes for CryptoAES
}

// NewAESKey wraps a 16-byte secret as a CEPH_CRYPTO_AES key.
func NewAESKey(secret []byte) CryptoKey {
	return CryptoKey{Type: CryptoAES, Secret: secret}
}

// GenerateAESKey produces a fresh random AES-128 session key (spec
// §4.4 "the server mints a fresh random session key per authentication").
func GenerateAESKey() (CryptoKey, error) {
	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return CryptoKey{}, errors.Wrap(err, "cephx: generating session key")
	}
	return NewAESKey(secret), nil
}

// Len returns the length of the raw secret material.
func (k CryptoKey) Len() int { return len(k.Secret) }

// encodedSize is the on-wire/keyring footprint: a 12-byte header
// (type + created, padded) followed by the 16-byte secret.
const encodedSize = 12 + secretLen

// Encoded serializes the key into the 28-byte envelope keyrings store
// (header then raw secret — spec §6).
func (k CryptoKey) Encoded() []byte {
	out := make([]byte, encodedSize)
	binary.LittleEndian.PutUint16(out[0:2], uint16(k.Type))
	binary.LittleEndian.PutUint32(out[2:6], k.CreatedSec)
	binary.LittleEndian.PutUint32(out[6:10], k.CreatedNsec)
	// out[10:12] reserved, left zero.
	copy(out[12:], k.Secret)
	return out
}

// DecodeCryptoKey parses the 28-byte envelope produced by Encoded.
func DecodeCryptoKey(b []byte) (CryptoKey, error) {
	if len(b) != encodedSize {
		return CryptoKey{}, errors.Newf("cephx: crypto key envelope must be %d bytes, got %d", encodedSize, len(b))
	}
	k := CryptoKey{
		Type:        CryptoAlgorithm(binary.LittleEndian.Uint16(b[0:2])),
		CreatedSec:  binary.LittleEndian.Uint32(b[2:6]),
		CreatedNsec: binary.LittleEndian.Uint32(b[6:10]),
		Secret:      append([]byte(nil), b[12:]...),
	}
	if k.Type != CryptoAES && k.Type != CryptoNone {
		return CryptoKey{}, errors.Newf("cephx: unsupported crypto algorithm %d", k.Type)
	}
	return k, nil
}

// FromBase64 parses the value of a keyring "key = ..." line.
func FromBase64(s string) (CryptoKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return CryptoKey{}, errors.Wrap(err, "cephx: decoding base64 key")
	}
	return DecodeCryptoKey(raw)
}

// Base64 re-encodes the key the way a keyring file stores it.
func (k CryptoKey) Base64() string {
	return base64.StdEncoding.EncodeToString(k.Encoded())
}

func (k CryptoKey) block() (cipher.Block, error) {
	if len(k.Secret) != secretLen {
		return nil, errors.Newf("cephx: AES key must be %d bytes, got %d", secretLen, len(k.Secret))
	}
	return aes.NewCipher(k.Secret)
}

// Encrypt PKCS#7-pads plaintext to a block multiple and CBC-encrypts it
// under this key (spec §4.4 "challenge responses and ticket payloads are
// AES-128-CBC encrypted under the relevant shared secret").
func (k CryptoKey) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := k.block()
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, cephIV[:]).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt, validating and stripping the PKCS#7 pad.
func (k CryptoKey) Decrypt(ciphertext []byte) ([]byte, error) {
	block, err := k.block()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.Newf("cephx: ciphertext length %d is not a block multiple", len(ciphertext))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, cephIV[:]).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("cephx: cannot unpad empty buffer")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errors.New("cephx: invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("cephx: invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
