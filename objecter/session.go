// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
	"github.com/tchaikov/ceph-sub002/msgr2"
)

// daemonSession is one authenticated connection to one OSD, with a
// background read loop fanning replies out to the tracker (adapted
// from monclient/connection.go's monSession, with the monitor-specific
// command/version dispatch replaced by MOSDOpReply/backoff handling).
type daemonSession struct {
	daemonID int32
	sess     *msgr2.Session
	tracker  *Tracker
	backoffs *BackoffTracker
	log      log.Logger

	tid uint64

	mu     sync.Mutex
	closed bool
}

// dialDaemon opens an authenticated msgr2 connection to an OSD's
// msgr2 address and starts its read loop.
func dialDaemon(ctx context.Context, entity cephx.EntityName, secret cephx.CryptoKey, daemonID int32, addr clustermap.Addr, backoffs *BackoffTracker, logger log.Logger) (*daemonSession, error) {
	authenticator := cephx.NewClientHandler(entity, secret, cephx.AuthModeOSD)
	netAddr := fmt.Sprintf("%s:%d", addr.Host, addr.Port)

	sess, err := msgr2.DialClient(ctx, netAddr, authenticator, 0)
	if err != nil {
		return nil, wrapErr(KindTransport, err, "dialing osd.%d", daemonID)
	}

	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	ds := &daemonSession{
		daemonID: daemonID,
		sess:     sess,
		tracker:  NewTracker(),
		backoffs: backoffs,
		log:      logger,
	}
	go ds.readLoop()
	return ds, nil
}

func (s *daemonSession) nextTid() uint64 { return atomic.AddUint64(&s.tid, 1) }

// readLoop drains inbound frames until the connection closes,
// decoding MOSDOpReply and resolving the matching tracked operation.
func (s *daemonSession) readLoop() {
	for {
		frame, err := s.sess.Conn.ReadFrame()
		if err != nil {
			s.log.Debug("osd read loop exiting", "daemon", s.daemonID, "error", err)
			s.close()
			return
		}
		if frame.Preamble.Tag != msgr2.TagMessage {
			continue
		}
		msg, err := msgr2.ReadMessageFromFrame(frame)
		if err != nil {
			s.log.Warn("decoding message frame", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *daemonSession) dispatch(msg msgr2.Message) {
	switch msg.Header.MsgType {
	case msgr2.MsgOSDOpReply:
		reply, err := DecodeMOSDOpReply(msg.Front)
		if err != nil {
			s.log.Warn("decoding MOSDOpReply", "error", err)
			return
		}
		if !s.tracker.Resolve(reply.Tid, reply) {
			s.log.Debug("dropping reply for unknown tid", "tid", reply.Tid)
		}
	default:
		s.log.Debug("ignoring unhandled osd message", "type", msg.Header.MsgType)
	}
}

// Send transmits req under a fresh tid and blocks for its reply,
// honoring any backoff currently in effect for the target PG, and
// re-issuing the wait if the reply itself carries a Backoff signal
// (spec §4.6 "On a backoff reply, honor a bounded sleep and resend").
func (s *daemonSession) Send(ctx context.Context, req MOSDOp, backoffKey BackoffKey, deadline time.Time, revoke <-chan struct{}) (MOSDOpReply, error) {
	for {
		if err := s.backoffs.Wait(ctx, backoffKey); err != nil {
			return MOSDOpReply{}, err
		}

		tid := s.nextTid()
		req.Tid = tid
		replyCh := s.tracker.Register(tid, deadline)

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			s.tracker.Forget(tid)
			return MOSDOpReply{}, newErr(KindTransport, "session to osd.%d is closed", s.daemonID)
		}

		msg := msgr2.NewMessage(msgr2.MsgOSDOp, req.Encode()).WithTid(tid)
		if err := s.sess.Conn.WriteMessage(msg); err != nil {
			s.tracker.Forget(tid)
			return MOSDOpReply{}, wrapErr(KindTransport, err, "sending op to osd.%d", s.daemonID)
		}

		reply, err := s.tracker.Wait(ctx, tid, replyCh, deadline, revoke)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return MOSDOpReply{}, wrapErr(KindBudget, err, "op to osd.%d", s.daemonID)
			}
			return MOSDOpReply{}, err
		}
		if reply.Backoff {
			s.backoffs.Mark(backoffKey, 0)
			continue
		}
		return reply, nil
	}
}

func (s *daemonSession) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = s.sess.Conn.Close()
}

func (s *daemonSession) Close() error {
	s.close()
	return nil
}
