// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/msgr2"
)

// monSession is the msgr2-backed Session implementation: one
// authenticated connection to one monitor, with a background read
// loop fanning inbound messages out to waiting callers and to the
// map/command dispatch tables (spec §4.5).
type monSession struct {
	sess *msgr2.Session
	tid  uint64
	log  log.Logger

	mu           sync.Mutex
	pending      map[uint64]chan MMonCommandAck
	pendingVers  map[uint64]chan MMonGetVersionReply
	closed       bool

	onMonMap func(MMonMap)
	onOSDMap func(MOSDMap)
}

// DialOpts configures dialMon beyond the bare entity/secret/address.
type DialOpts struct {
	GlobalID uint64
	OnMonMap func(MMonMap)
	OnOSDMap func(MOSDMap)
}

// dialMon opens an authenticated msgr2 connection to one monitor
// address and starts its read loop.
func dialMon(ctx context.Context, entity EntityName, secret cephx.CryptoKey, addr string, opts DialOpts) (*monSession, error) {
	authEntity := cephx.EntityName{Type: entity.Type, ID: entity.ID}
	authenticator := cephx.NewClientHandler(authEntity, secret, cephx.AuthModeMon)

	sess, err := msgr2.DialClient(ctx, addr, authenticator, opts.GlobalID)
	if err != nil {
		return nil, errors.Wrap(err, "monclient: dialing monitor")
	}

	ms := &monSession{
		sess:        sess,
		log:         log.NewNoOpLogger(),
		pending:     make(map[uint64]chan MMonCommandAck),
		pendingVers: make(map[uint64]chan MMonGetVersionReply),
		onMonMap:    opts.OnMonMap,
		onOSDMap:    opts.OnOSDMap,
	}
	go ms.readLoop()
	return ms, nil
}

func (s *monSession) SetLogger(l log.Logger) { s.log = l }

func (s *monSession) nextTid() uint64 { return atomic.AddUint64(&s.tid, 1) }

// readLoop drains inbound frames until the connection closes,
// dispatching each message by type. Unrecognized types are logged and
// skipped rather than treated as fatal, since a monitor may send
// message types (pings, keepalives) this client doesn't act on.
func (s *monSession) readLoop() {
	for {
		frame, err := s.sess.Conn.ReadFrame()
		if err != nil {
			s.log.Debug("monitor read loop exiting", "error", err)
			s.failPending(err)
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

func (s *monSession) dispatch(msg msgr2.Message) {
	switch msg.Header.MsgType {
	case msgr2.MsgMonCommandAck:
		ack, err := DecodeMMonCommandAck(msg.Front)
		if err != nil {
			s.log.Warn("decoding MMonCommandAck", "error", err)
			return
		}
		s.deliverCommandAck(msg.Header.Tid, ack)
	case msgr2.MsgMonGetVersionReply:
		reply, err := DecodeMMonGetVersionReply(msg.Front)
		if err != nil {
			s.log.Warn("decoding MMonGetVersionReply", "error", err)
			return
		}
		s.deliverGetVersionReply(reply.Handle, reply)
	case msgr2.MsgMonMap:
		mm, err := DecodeMMonMap(msg.Front)
		if err != nil {
			s.log.Warn("decoding MMonMap", "error", err)
			return
		}
		if s.onMonMap != nil {
			s.onMonMap(mm)
		}
	case msgr2.MsgOSDMap:
		om, err := DecodeMOSDMap(msg.Front)
		if err != nil {
			s.log.Warn("decoding MOSDMap", "error", err)
			return
		}
		if s.onOSDMap != nil {
			s.onOSDMap(om)
		}
	default:
		s.log.Debug("ignoring unhandled monitor message", "type", msg.Header.MsgType)
	}
}

func (s *monSession) deliverCommandAck(tid uint64, ack MMonCommandAck) {
	s.mu.Lock()
	ch, ok := s.pending[tid]
	if ok {
		delete(s.pending, tid)
	}
	s.mu.Unlock()
	if ok {
		ch <- ack
	}
}

func (s *monSession) deliverGetVersionReply(handle uint64, reply MMonGetVersionReply) {
	s.mu.Lock()
	ch, ok := s.pendingVers[handle]
	if ok {
		delete(s.pendingVers, handle)
	}
	s.mu.Unlock()
	if ok {
		ch <- reply
	}
}

func (s *monSession) failPending(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for tid, ch := range s.pending {
		close(ch)
		delete(s.pending, tid)
	}
	for handle, ch := range s.pendingVers {
		close(ch)
		delete(s.pendingVers, handle)
	}
}

// GetVersion asks the monitor for the newest/oldest committed version
// of a named paxos service and blocks for the reply.
func (s *monSession) GetVersion(ctx context.Context, what string) (newest, oldest uint64, err error) {
	handle := s.nextTid()

	ch := make(chan MMonGetVersionReply, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, 0, errors.New("monclient: session closed")
	}
	s.pendingVers[handle] = ch
	s.mu.Unlock()

	front := NewMMonGetVersion(handle, what).Encode()
	msg := msgr2.NewMessage(msgr2.MsgMonGetVersion, front)
	if err := s.sess.Conn.WriteMessage(msg); err != nil {
		s.mu.Lock()
		delete(s.pendingVers, handle)
		s.mu.Unlock()
		return 0, 0, errors.Wrap(err, "monclient: sending get-version request")
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return 0, 0, errors.New("monclient: session closed while waiting for version reply")
		}
		return reply.Version, reply.OldestVersion, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pendingVers, handle)
		s.mu.Unlock()
		return 0, 0, ctx.Err()
	}
}

// SendCommand issues an MMonCommand and blocks for its MMonCommandAck.
func (s *monSession) SendCommand(ctx context.Context, prefix string, args map[string]string) (CommandResult, error) {
	cmd := buildCommandVector(prefix, args)
	mmc := NewMMonCommand(cmd)
	tid := s.nextTid()

	ch := make(chan MMonCommandAck, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CommandResult{}, errors.New("monclient: session closed")
	}
	s.pending[tid] = ch
	s.mu.Unlock()

	front := mmc.Encode()
	msg := msgr2.NewMessage(msgr2.MsgMonCommand, front).WithTid(tid)
	if err := s.sess.Conn.WriteMessage(msg); err != nil {
		s.mu.Lock()
		delete(s.pending, tid)
		s.mu.Unlock()
		return CommandResult{}, errors.Wrap(err, "monclient: sending command")
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return CommandResult{}, errors.New("monclient: session closed while waiting for command reply")
		}
		return CommandResult{RetVal: ack.R, Outs: ack.Rs}, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, tid)
		s.mu.Unlock()
		return CommandResult{}, ctx.Err()
	}
}

// Subscribe sends a want-subscriptions message; map updates arrive
// asynchronously through the OnMonMap/OnOSDMap callbacks.
func (s *monSession) Subscribe(sub *MMonSubscribe) error {
	front := sub.Encode()
	msg := msgr2.NewMessage(msgr2.MsgMonSubscribe, front)
	return s.sess.Conn.WriteMessage(msg)
}

func (s *monSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.sess.Conn.Close()
}

func buildCommandVector(prefix string, args map[string]string) []string {
	cmd := make([]string, 0, 1+len(args))
	cmd = append(cmd, `{"prefix": "`+prefix+`"}`)
	for k, v := range args {
		cmd = append(cmd, k+"="+v)
	}
	return cmd
}
