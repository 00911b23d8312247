// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package msgr2

import "sync"

// Dispatcher receives messages of the types it was registered for.
// Components (MonClient's subscription handler, Objecter's op
// completion path) implement this to receive messages off a
// Connection's read loop without that loop knowing about them
// directly (spec §4.5/§4.6 "per-type message routing").
type Dispatcher interface {
	Dispatch(msg Message) error
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(msg Message) error

func (f DispatcherFunc) Dispatch(msg Message) error { return f(msg) }

// Bus routes inbound messages to every Dispatcher registered for their
// type, in registration order. Unlike a queue, dispatch is synchronous
// and in-line with the caller (spec §4.4 "delivery is direct, not
// buffered").
type Bus struct {
	mu       sync.RWMutex
	handlers map[uint16][]Dispatcher
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[uint16][]Dispatcher)}
}

// Register adds d to the list of dispatchers invoked for msgType.
func (b *Bus) Register(msgType uint16, d Dispatcher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[msgType] = append(b.handlers[msgType], d)
}

// Dispatch delivers msg to every dispatcher registered for its type.
// An unhandled message type is an error: it usually means a bug, not a
// message the client should silently drop (spec §4.4, grounded on the
// reference bus's "error on unhandled" behavior).
func (b *Bus) Dispatch(msg Message) error {
	b.mu.RLock()
	handlers := append([]Dispatcher(nil), b.handlers[msg.Header.MsgType]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return newErr(KindProtocol, "no dispatcher registered for message type %s", msgTypeName(msg.Header.MsgType))
	}
	for _, h := range handlers {
		if err := h.Dispatch(msg); err != nil {
			return err
		}
	}
	return nil
}
