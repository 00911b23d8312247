// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import "fmt"

// ErrorKind classifies an object-client failure into the taxonomy spec
// §7 describes, so callers can decide retry policy without
// string-matching (mirrors msgr2.ErrorKind's role one layer up).
type ErrorKind uint8

const (
	// KindCodec covers short-buffer, version-unsupported, and
	// value-out-of-range decode failures; the owning session should be
	// reset rather than retried as-is.
	KindCodec ErrorKind = iota
	// KindTransport covers connection-reset, timeout, and MAC-failure
	// conditions; recoverable by reconnecting and replaying.
	KindTransport
	// KindAuthentication covers bad-key, ticket-expired, bad-authorizer,
	// and feature-mismatch failures; fatal.
	KindAuthentication
	// KindPlacement covers no-pool, no-rule, and no-live-daemon
	// conditions; fatal for the request that hit them, not for the
	// client as a whole.
	KindPlacement
	// KindOperation covers object-not-found, permission-denied, and
	// other server-returned error codes, surfaced verbatim.
	KindOperation
	// KindBudget covers throttle-exceeded and deadline-elapsed
	// conditions, always surfaced as Timeout.
	KindBudget
)

func (k ErrorKind) String() string {
	switch k {
	case KindCodec:
		return "codec"
	case KindTransport:
		return "transport"
	case KindAuthentication:
		return "authentication"
	case KindPlacement:
		return "placement"
	case KindOperation:
		return "operation"
	case KindBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// Error is the objecter package's error type; Kind lets callers branch
// on category without parsing the message (spec §7).
type Error struct {
	Kind    ErrorKind
	Message string
	RetVal  int32 // the server's raw return code, for KindOperation
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("objecter: %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("objecter: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func opErr(retVal int32, oid string) *Error {
	return &Error{Kind: KindOperation, Message: fmt.Sprintf("osd returned error for %q", oid), RetVal: retVal}
}

// Recoverable reports whether retrying (reconnect-and-replay for
// Transport) can plausibly fix the failure (spec §7 "Transport errors
// are recoverable via reconnect and replay").
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindTransport, KindBudget:
		return true
	default:
		return false
	}
}
