// internal/cache/store.go
package cache

import (
	"log"
	"math"
	"sort"
	"sync"

	"github.com/jmceleney/et112-proxy/internal/catalog"
)

// Store holds the latest raw value of every defined register, plus high/low
// watermarks. Values are raw uint32 regardless of width; 16-bit values live
// in the low 16 bits.
//
// Writes come from validated remote responses and local single-register
// writes. Reads come from the protocol responders at any time.
type Store struct {
	cat *catalog.Catalog

	mu         sync.RWMutex
	values     map[uint16]uint32
	high       map[uint16]uint32 // raw watermark extremes, lazily seeded
	low        map[uint16]uint32
	unexpected map[uint16]struct{}
	insane     uint64
}

// New builds a store with every defined address initialized to zero.
func New(cat *catalog.Catalog) *Store {
	s := &Store{
		cat:        cat,
		values:     make(map[uint16]uint32),
		high:       make(map[uint16]uint32),
		low:        make(map[uint16]uint32),
		unexpected: make(map[uint16]struct{}),
	}
	for _, addr := range cat.Addresses() {
		s.values[addr] = 0
	}
	return s
}

// Read16 returns the stored 16-bit value at addr. An undefined address reads
// as zero and is recorded in the unexpected-register set.
func (s *Store) Read16(addr uint16) uint16 {
	return uint16(s.read(addr))
}

// Read32 returns the stored 32-bit value at addr. An undefined address reads
// as zero and is recorded in the unexpected-register set.
func (s *Store) Read32(addr uint16) uint32 {
	return s.read(addr)
}

func (s *Store) read(addr uint16) uint32 {
	s.mu.RLock()
	v, ok := s.values[addr]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	s.unexpected[addr] = struct{}{}
	s.mu.Unlock()
	return 0
}

// Write applies the sanity filter and, if the value passes and differs from
// the stored one, updates the store and watermarks. A width mismatch against
// the register's definition drops the write. Returns whether the store was
// updated.
func (s *Store) Write(addr uint16, raw uint32, is32 bool) bool {
	def, ok := s.cat.Lookup(addr)
	if !ok {
		s.mu.Lock()
		s.unexpected[addr] = struct{}{}
		s.mu.Unlock()
		return false
	}

	if def.Type.Is32Bit() != is32 {
		log.Printf("cache: width mismatch at %d: register is %s, write is %d-bit",
			addr, def.Type, writeWidth(is32))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := scaled(def, s.values[addr])
	proposed := scaled(def, raw)

	if !sane(def.Unit, current, proposed) {
		s.insane++
		return false
	}

	if s.values[addr] == raw {
		// Unchanged value: skip the watermark churn.
		return false
	}

	s.values[addr] = raw
	s.updateWaterMarks(def, addr, raw)
	return true
}

// updateWaterMarks widens the per-address extremes. Caller holds s.mu.
func (s *Store) updateWaterMarks(def catalog.Definition, addr uint16, raw uint32) {
	hi, seeded := s.high[addr]
	if !seeded {
		s.high[addr] = raw
		s.low[addr] = raw
		return
	}

	v := scaled(def, raw)
	if v > scaled(def, hi) {
		s.high[addr] = raw
	}
	if v < scaled(def, s.low[addr]) {
		s.low[addr] = raw
	}
}

// ScaledValue returns the register's current value in engineering units, or
// 0 for an undefined address.
func (s *Store) ScaledValue(addr uint16) float64 {
	def, ok := s.cat.Lookup(addr)
	if !ok {
		return 0
	}
	return scaled(def, s.read(addr))
}

// WaterMarks returns the scaled high/low extremes observed at addr. Before
// the first accepted write both are zero.
func (s *Store) WaterMarks(addr uint16) (high, low float64) {
	def, ok := s.cat.Lookup(addr)
	if !ok {
		return 0, 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hi, seeded := s.high[addr]
	if !seeded {
		return 0, 0
	}
	return scaled(def, hi), scaled(def, s.low[addr])
}

// InsaneCount is the number of writes rejected by the sanity filter.
func (s *Store) InsaneCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insane
}

// Unexpected returns the sorted set of addresses seen without a definition.
func (s *Store) Unexpected() []uint16 {
	s.mu.RLock()
	out := make([]uint16, 0, len(s.unexpected))
	for addr := range s.unexpected {
		out = append(out, addr)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Catalog returns the register catalog backing the store.
func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// scaled interprets a raw value per the register's declared type and applies
// the scaling factor.
func scaled(def catalog.Definition, raw uint32) float64 {
	var v float64
	switch def.Type {
	case catalog.Uint16:
		v = float64(uint16(raw))
	case catalog.Int16:
		v = float64(int16(raw))
	case catalog.Uint32:
		v = float64(raw)
	case catalog.Int32:
		v = float64(int32(raw))
	case catalog.Float32:
		v = float64(math.Float32frombits(raw))
	}
	return v * def.ScaleOr1()
}

func writeWidth(is32 bool) int {
	if is32 {
		return 32
	}
	return 16
}
