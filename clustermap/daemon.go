// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clustermap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// AddrType distinguishes the legacy and secure (msgr2) wire variants of
// an address (spec §3 "Addresses carry a type tag distinguishing legacy
// and secure variants").
type AddrType uint8

const (
	AddrLegacy AddrType = iota
	AddrMsgr2
)

// Addr is one network endpoint a daemon can be reached at.
type Addr struct {
	Type  AddrType
	Nonce uint32 // disambiguates process incarnations
	Host  string
	Port  uint16
}

func (a Addr) String() string {
	prefix := "v1"
	if a.Type == AddrMsgr2 {
		prefix = "v2"
	}
	return fmt.Sprintf("%s:%s:%d", prefix, a.Host, a.Port)
}

// ParseAddr parses the "v1:host:port" / "v2:host:port" form mon_host
// entries and daemon addresses are written in (spec §6 "mon_host:
// comma-separated endpoints 'v2:host:port'").
func ParseAddr(s string) (Addr, error) {
	prefix, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Addr{}, errors.Newf("clustermap: malformed address %q", s)
	}
	var typ AddrType
	switch prefix {
	case "v1":
		typ = AddrLegacy
	case "v2":
		typ = AddrMsgr2
	default:
		return Addr{}, errors.Newf("clustermap: unknown address prefix %q in %q", prefix, s)
	}

	host, portStr, ok := strings.Cut(rest, ":")
	if !ok {
		return Addr{}, errors.Newf("clustermap: address %q has no port", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Addr{}, errors.Wrapf(err, "clustermap: invalid port in %q", s)
	}
	return Addr{Type: typ, Host: host, Port: uint16(port)}, nil
}

// AddrVec is the set of addresses (legacy and/or msgr2) a daemon
// publishes.
type AddrVec struct {
	Addrs []Addr
}

// Msgr2 returns the first msgr2 address, if any.
func (v AddrVec) Msgr2() (Addr, bool) {
	for _, a := range v.Addrs {
		if a.Type == AddrMsgr2 {
			return a, true
		}
	}
	return Addr{}, false
}

// DaemonState is the up/in/out status bitmask of spec §3.
type DaemonState uint8

const (
	StateUp DaemonState = 1 << iota
	StateIn
)

func (s DaemonState) Up() bool { return s&StateUp != 0 }
func (s DaemonState) In() bool { return s&StateIn != 0 }

// Daemon is one OSD-family storage process (spec §3 "Daemon map").
type Daemon struct {
	ID      int32
	State   DaemonState
	Weight  uint32 // 16.16 fixed-point; 0x10000 == fully in
	Addrs   AddrVec
}
