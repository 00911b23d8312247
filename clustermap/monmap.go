// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clustermap

// MonInfo is one monitor's identity and reachable addresses, as shipped
// in the monitor map the client bootstraps from (spec §4.5 "the client
// starts from a configured list of monitor addresses").
type MonInfo struct {
	Name  string
	Addrs AddrVec
}

// MonMap is the set of monitors the client may hunt against. Unlike
// Map, it is small and rarely epoch-gated in practice here: the client
// only needs the current membership to drive its hunt, not a history of
// snapshots.
type MonMap struct {
	Epoch uint32
	Mons  []MonInfo
}

// ByName returns the monitor with the given name, if present.
func (mm *MonMap) ByName(name string) (MonInfo, bool) {
	for _, m := range mm.Mons {
		if m.Name == name {
			return m, true
		}
	}
	return MonInfo{}, false
}
