// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cephx

import (
	"os"
	"strings"

	"github.com/luxfi/log"
)

// Keyring holds the secrets and capability strings parsed from a Ceph
// keyring file: one [entity.name] section per client or daemon, a
// "key = ..." line, and zero or more "caps <service> = ..." lines
// (spec §6 "keyring files").
type Keyring struct {
	keys map[string]CryptoKey
	caps map[string]map[string]string

	log log.Logger
}

// NewKeyring returns an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{
		keys: make(map[string]CryptoKey),
		caps: make(map[string]map[string]string),
		log:  log.NewNoOpLogger(),
	}
}

// SetLogger overrides the keyring's logger (the zero value logs
// nothing, matching how denc and crush stay silent by default).
func (kr *Keyring) SetLogger(l log.Logger) { kr.log = l }

// LoadFile reads and parses a keyring file from disk.
func LoadFile(path string) (*Keyring, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKeyring(string(content))
}

// ParseKeyring parses keyring file content held in memory.
func ParseKeyring(content string) (*Keyring, error) {
	kr := NewKeyring()

	var current string
	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = line[1 : len(line)-1]
			kr.log.Debug("found keyring entity", "entity", current)
			continue
		}

		if current == "" {
			continue
		}

		field, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)

		switch {
		case field == "key":
			key, err := FromBase64(value)
			if err != nil {
				return nil, err
			}
			kr.keys[current] = key
			kr.log.Debug("loaded key for entity", "entity", current)

		case strings.HasPrefix(field, "caps "):
			service := strings.TrimSpace(field[len("caps "):])
			if kr.caps[current] == nil {
				kr.caps[current] = make(map[string]string)
			}
			kr.caps[current][service] = value

		default:
			kr.log.Warn("unknown keyring field", "field", field, "value", value)
		}
	}

	kr.log.Debug("loaded keyring", "entities", len(kr.keys))
	return kr, nil
}

// Key returns the secret registered for entity, if any.
func (kr *Keyring) Key(entity string) (CryptoKey, bool) {
	k, ok := kr.keys[entity]
	return k, ok
}

// Caps returns the capability string an entity was granted for
// service, verbatim (including the surrounding quotes Ceph keyrings
// use, e.g. `"allow *"`).
func (kr *Keyring) Caps(entity, service string) (string, bool) {
	m, ok := kr.caps[entity]
	if !ok {
		return "", false
	}
	c, ok := m[service]
	return c, ok
}

// HasEntity reports whether entity has a registered key.
func (kr *Keyring) HasEntity(entity string) bool {
	_, ok := kr.keys[entity]
	return ok
}

// Entities lists every entity name with a registered key.
func (kr *Keyring) Entities() []string {
	out := make([]string, 0, len(kr.keys))
	for name := range kr.keys {
		out = append(out, name)
	}
	return out
}
