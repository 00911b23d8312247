// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package monclient implements the monitor client: hunting for a
// reachable monitor, maintaining map subscriptions, and a synchronous
// command facade (spec §4.5).
package monclient

import "time"

// CephSubscribeOnetime marks a subscription that should be dropped
// after a single update is received.
const CephSubscribeOnetime uint8 = 1

// SubscribeItem is one (start version, flags) pair for a named map
// subscription.
type SubscribeItem struct {
	Start uint64
	Flags uint8
}

// MonSub tracks which maps the client wants updates for and the
// renewal lifecycle monitors impose on subscriptions (spec §4.5
// "Subscriptions renew on a server-dictated interval").
type MonSub struct {
	subNew  map[string]SubscribeItem
	subSent map[string]SubscribeItem

	renewSent  *time.Time
	renewAfter *time.Time

	now func() time.Time
}

// NewMonSub returns an empty subscription tracker.
func NewMonSub() *MonSub {
	return &MonSub{
		subNew:  make(map[string]SubscribeItem),
		subSent: make(map[string]SubscribeItem),
		now:     time.Now,
	}
}

func (s *MonSub) HaveNew() bool { return len(s.subNew) > 0 }

func (s *MonSub) NeedRenew() bool {
	return s.renewAfter != nil && s.now().After(*s.renewAfter)
}

// Subs returns the subscriptions pending their first send.
func (s *MonSub) Subs() map[string]SubscribeItem { return s.subNew }

// Renewed moves every pending subscription into the sent set.
func (s *MonSub) Renewed() {
	if s.renewSent == nil {
		t := s.now()
		s.renewSent = &t
	}
	for what, item := range s.subNew {
		s.subSent[what] = item
		delete(s.subNew, what)
	}
}

// Acked schedules the next renewal at half the monitor-dictated
// interval, per the reference client's renewal cadence.
func (s *MonSub) Acked(intervalSecs uint32) {
	if s.renewSent == nil {
		return
	}
	next := s.renewSent.Add(time.Duration(intervalSecs/2) * time.Second)
	s.renewAfter = &next
	s.renewSent = nil
}

// Got records that an update for `what` at `version` arrived, advancing
// or dropping (if one-time) the matching subscription.
func (s *MonSub) Got(what string, version uint64) {
	if item, ok := s.subNew[what]; ok {
		if item.Start <= version {
			if item.Flags&CephSubscribeOnetime != 0 {
				delete(s.subNew, what)
			} else {
				item.Start = version + 1
				s.subNew[what] = item
			}
		}
		return
	}
	if item, ok := s.subSent[what]; ok {
		if item.Start <= version {
			if item.Flags&CephSubscribeOnetime != 0 {
				delete(s.subSent, what)
			} else {
				item.Start = version + 1
				s.subSent[what] = item
			}
		}
	}
}

// Reload moves every sent subscription back to pending, for
// re-sending after a reconnect. Returns true if there is now anything
// to send.
func (s *MonSub) Reload() bool {
	for what, item := range s.subSent {
		if _, ok := s.subNew[what]; !ok {
			s.subNew[what] = item
		}
	}
	return s.HaveNew()
}

// Want adds or replaces a subscription; returns false if the identical
// subscription already exists.
func (s *MonSub) Want(what string, start uint64, flags uint8) bool {
	newItem := SubscribeItem{Start: start, Flags: flags}
	if item, ok := s.subNew[what]; ok {
		if item == newItem {
			return false
		}
	} else if item, ok := s.subSent[what]; ok {
		if item == newItem {
			return false
		}
	}
	s.subNew[what] = newItem
	return true
}

// IncWant raises a subscription's start version, ignoring requests
// that would move it backward.
func (s *MonSub) IncWant(what string, start uint64, flags uint8) bool {
	if item, ok := s.subNew[what]; ok {
		if item.Start >= start {
			return false
		}
		s.subNew[what] = SubscribeItem{Start: start, Flags: flags}
		return true
	}
	if item, ok := s.subSent[what]; ok {
		if item.Start >= start {
			return false
		}
	}
	s.subNew[what] = SubscribeItem{Start: start, Flags: flags}
	return true
}

// Unwant removes a subscription from both the pending and sent sets.
func (s *MonSub) Unwant(what string) {
	delete(s.subNew, what)
	delete(s.subSent, what)
}

// Clear drops every subscription and renewal timer.
func (s *MonSub) Clear() {
	s.subNew = make(map[string]SubscribeItem)
	s.subSent = make(map[string]SubscribeItem)
	s.renewSent = nil
	s.renewAfter = nil
}
