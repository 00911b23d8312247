// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package msgr2 implements the secure messenger wire protocol: banner
// exchange, the connect/connect-reply handshake, frame encoding, and
// the per-connection state machine a Ceph client speaks to every
// monitor and OSD daemon (spec §4.4).
package msgr2

// FeatureSet is the 64-bit feature bitmask exchanged in the banner and
// connect messages; daemons refuse connections that don't supply every
// bit in their required set.
type FeatureSet uint64

const (
	FeatureEmpty FeatureSet = 0
	// FeatureMsgr2 is the single bit this client always advertises: it
	// only ever speaks the v2 wire protocol, never legacy v1 framing.
	FeatureMsgr2 FeatureSet = 1 << 0
)

func NewFeatureSet(v uint64) FeatureSet { return FeatureSet(v) }

func (f FeatureSet) Value() uint64    { return uint64(f) }
func (f FeatureSet) Has(bit FeatureSet) bool { return f&bit != 0 }
func (f FeatureSet) With(bit FeatureSet) FeatureSet { return f | bit }

// Satisfies reports whether f (typically this client's supported set)
// carries every bit required set requires (spec §4.4 "A peer rejects
// the connection when its supported-set does not satisfy the other's
// required-set").
func (f FeatureSet) Satisfies(required FeatureSet) bool {
	return required&^f == 0
}

// ConnectionState is the per-connection handshake/session state (spec
// §4.4 "Banner -> Auth -> FeatureNegotiation -> Ready -> {ResetPending,
// Closed}").
type ConnectionState uint8

const (
	StateBanner ConnectionState = iota
	StateAuth
	StateFeatureNegotiation
	StateReady
	StateResetPending
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateBanner:
		return "banner"
	case StateAuth:
		return "auth"
	case StateFeatureNegotiation:
		return "feature-negotiation"
	case StateReady:
		return "ready"
	case StateResetPending:
		return "reset-pending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
