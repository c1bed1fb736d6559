// internal/cache/snapshot.go
package cache

import (
	"sort"

	"github.com/jmceleney/et112-proxy/internal/catalog"
)

// RegisterSnapshot is one register's state at the snapshot instant.
type RegisterSnapshot struct {
	Definition    catalog.Definition
	Value         string
	HighWaterMark string
	LowWaterMark  string
}

// Snapshot is a point-in-time view over a set of registers, captured
// atomically with respect to concurrent writes.
type Snapshot struct {
	Registers   map[uint16]RegisterSnapshot
	Unexpected  []uint16
	InsaneCount uint64
}

// Snapshot captures the requested addresses, the unexpected-register set and
// the insane-value counter under one read barrier. Independent snapshot
// calls are not ordered relative to each other.
func (s *Store) Snapshot(addrs []uint16) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Registers:   make(map[uint16]RegisterSnapshot, len(addrs)),
		InsaneCount: s.insane,
	}

	for _, addr := range addrs {
		def, ok := s.cat.Lookup(addr)
		if !ok {
			continue
		}

		rs := RegisterSnapshot{
			Definition: def,
			Value:      FormatValue(def, scaled(def, s.values[addr])),
		}

		if hi, seeded := s.high[addr]; seeded {
			rs.HighWaterMark = FormatValue(def, scaled(def, hi))
			rs.LowWaterMark = FormatValue(def, scaled(def, s.low[addr]))
		} else {
			rs.HighWaterMark = FormatValue(def, 0)
			rs.LowWaterMark = FormatValue(def, 0)
		}

		snap.Registers[addr] = rs
	}

	for addr := range s.unexpected {
		snap.Unexpected = append(snap.Unexpected, addr)
	}
	sort.Slice(snap.Unexpected, func(i, j int) bool { return snap.Unexpected[i] < snap.Unexpected[j] })

	return snap
}
