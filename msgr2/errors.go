// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "fmt"

// ErrorKind classifies a messenger failure the way the reference
// client's error enum does, so callers can decide retry policy without
// string-matching (spec §7 "errors are categorized as Codec, Transport,
// or Authentication").
type ErrorKind uint8

const (
	KindProtocol ErrorKind = iota
	KindIO
	KindDenc
	KindAuth
	KindConnection
	KindTimeout
	KindInvalidData
	KindCompression
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindIO:
		return "io"
	case KindDenc:
		return "denc"
	case KindAuth:
		return "auth"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindInvalidData:
		return "invalid-data"
	case KindCompression:
		return "compression"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is the messenger package's error type; Kind lets callers branch
// on category without parsing the message (spec §7).
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("msgr2: %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("msgr2: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Recoverable reports whether the failure is a transient network
// condition worth retrying: connection resets, timeouts, and the like
// (spec §7 "transport errors are typically recoverable; codec and
// authentication errors are not").
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindIO:
		return true
	default:
		return false
	}
}

// Fatal is the logical negation of Recoverable for protocol and auth
// failures that retrying will never fix.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindProtocol, KindAuth, KindConfig, KindInvalidData:
		return true
	default:
		return !e.Recoverable()
	}
}
