// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "sync"

// maxUnackedMessages bounds how many sent-but-unacknowledged messages a
// SeqTracker retains before it refuses new sends; this is the msgr2
// analogue of the reference client's outbound throttle (spec §4.4
// "Ready" state, grounded on the teacher's timeout.Manager request-
// tracking shape).
const maxUnackedMessages = 1024

// unackedMessage pairs a sent Message with the seq it was assigned, so
// it can be replayed verbatim after a reconnect.
type unackedMessage struct {
	seq uint64
	msg Message
}

// SeqTracker assigns per-connection sequence numbers to outgoing
// messages and retains copies until the peer acknowledges them,
// mirroring msgr2's session_reconnect replay semantics: a connection
// that drops and comes back re-sends everything the peer never
// acked, rather than forcing the caller to resend from scratch (spec
// §4.4 "Ready -> ResetPending", grounded on the teacher's
// RegisterRequest/RegisterResponse pairing in timeout.Manager).
type SeqTracker struct {
	mu       sync.Mutex
	nextSeq  uint64
	inSeq    uint64
	unacked  []unackedMessage
}

// NewSeqTracker returns a tracker with its sequence counters at zero,
// matching a freshly established connection.
func NewSeqTracker() *SeqTracker {
	return &SeqTracker{}
}

// NextSend assigns the next outbound seq to msg, records it as
// unacked, and returns the stamped message ready to encode. It returns
// false if the unacked queue is already at capacity, signaling the
// caller to apply backpressure instead of sending.
func (s *SeqTracker) NextSend(msg Message) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.unacked) >= maxUnackedMessages {
		return Message{}, false
	}

	s.nextSeq++
	stamped := msg.WithSeq(s.nextSeq)
	s.unacked = append(s.unacked, unackedMessage{seq: s.nextSeq, msg: stamped})
	return stamped, true
}

// Ack drops every unacked message with seq <= ackedSeq, the peer having
// confirmed receipt up through that point (spec §4.4 "acked_seq").
func (s *SeqTracker) Ack(ackedSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := 0
	for ; i < len(s.unacked); i++ {
		if s.unacked[i].seq > ackedSeq {
			break
		}
	}
	s.unacked = s.unacked[i:]
}

// ObserveReceived records the seq of an inbound message so AckSeq can
// report how far this side has read.
func (s *SeqTracker) ObserveReceived(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.inSeq {
		s.inSeq = seq
	}
}

// AckSeq returns the highest inbound seq this side has seen, the value
// to send back to the peer in an ack frame.
func (s *SeqTracker) AckSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inSeq
}

// Pending returns every message still waiting on an ack, in send order,
// for replay after a SessionReconnect handshake.
func (s *SeqTracker) Pending() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.unacked))
	for i, u := range s.unacked {
		out[i] = u.msg
	}
	return out
}

// Reset clears all tracked state; used when a connection is abandoned
// rather than reconnected (spec §4.4 state "Closed").
func (s *SeqTracker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq = 0
	s.inSeq = 0
	s.unacked = nil
}
