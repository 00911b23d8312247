// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrTimeout is returned when an operation's deadline elapses before a
// reply arrives (spec §7 "Budget: throttle-exceeded or deadline-elapsed
// -> Timeout").
var ErrTimeout = errors.New("objecter: operation timed out")

// ErrCancelled is returned when an operation's revocation channel
// fires before a reply arrives (spec §5 "Cancellation via revocation
// channel observed at send and completion").
var ErrCancelled = errors.New("objecter: operation cancelled")

// pendingOp is one in-flight request awaiting a reply, keyed by tid.
type pendingOp struct {
	replyCh  chan MOSDOpReply
	deadline time.Time
}

// Tracker matches outbound request tids to their eventual replies,
// adapting the teacher's RegisterRequest/RegisterResponse pairing
// (networking/timeout.Manager) into a real pending-tid table (spec
// §4.6 step 5 "transmit and track tid" / step 6 "match tid, resolve
// the completion").
type Tracker struct {
	mu      sync.Mutex
	pending map[uint64]*pendingOp
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[uint64]*pendingOp)}
}

// Register records tid as awaiting a reply until deadline, returning
// the channel its reply will be delivered on. The caller must
// eventually call Forget(tid), whether or not a reply arrived.
func (t *Tracker) Register(tid uint64, deadline time.Time) <-chan MOSDOpReply {
	ch := make(chan MOSDOpReply, 1)
	t.mu.Lock()
	t.pending[tid] = &pendingOp{replyCh: ch, deadline: deadline}
	t.mu.Unlock()
	return ch
}

// Resolve delivers reply to tid's waiter, if one is still registered.
// It reports whether a waiter was found; a false return means the tid
// was unknown (already resolved, expired, or never ours) and the
// reply should be dropped.
func (t *Tracker) Resolve(tid uint64, reply MOSDOpReply) bool {
	t.mu.Lock()
	op, ok := t.pending[tid]
	if ok {
		delete(t.pending, tid)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	op.replyCh <- reply
	return true
}

// Forget removes tid's entry without delivering a reply, used once a
// waiter has stopped waiting (it timed out, was cancelled, or already
// received its reply).
func (t *Tracker) Forget(tid uint64) {
	t.mu.Lock()
	delete(t.pending, tid)
	t.mu.Unlock()
}

// ExpireBefore removes and returns every tid whose deadline is at or
// before now, for the caller to surface as ErrTimeout.
func (t *Tracker) ExpireBefore(now time.Time) []uint64 {
	var expired []uint64
	t.mu.Lock()
	for tid, op := range t.pending {
		if !op.deadline.After(now) {
			expired = append(expired, tid)
			delete(t.pending, tid)
		}
	}
	t.mu.Unlock()
	return expired
}

// Len reports how many operations are currently pending.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Wait blocks until tid's reply arrives, ctx is done, revoke fires, or
// the deadline passed to Register elapses, whichever comes first. It
// always forgets tid before returning.
func (t *Tracker) Wait(ctx context.Context, tid uint64, replyCh <-chan MOSDOpReply, deadline time.Time, revoke <-chan struct{}) (MOSDOpReply, error) {
	defer t.Forget(tid)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return MOSDOpReply{}, ctx.Err()
	case <-revoke:
		return MOSDOpReply{}, ErrCancelled
	case <-timer.C:
		return MOSDOpReply{}, ErrTimeout
	}
}
