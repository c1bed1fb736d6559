// internal/server/emulator.go
package server

import (
	"math"

	"github.com/jmceleney/et112-proxy/internal/cache"
	"github.com/jmceleney/et112-proxy/internal/catalog"
)

// Emulator answers reads against a secondary register map whose values are
// derived from cached primary registers via scaling and transforms, for
// cross-vendor compatibility.
type Emulator struct {
	store *cache.Store
	emap  *catalog.Catalog
	eng   engine
	unit  uint8
}

// NewEmulator builds an emulator serving the given map and unit id.
func NewEmulator(store *cache.Store, emap *catalog.Catalog, eng engine, unit uint8) *Emulator {
	return &Emulator{store: store, emap: emap, eng: eng, unit: unit}
}

// Respond implements Handler. The emulated map is read-only.
func (e *Emulator) Respond(req Request) []byte {
	if req.UnitID != e.unit {
		return nil
	}
	if !e.eng.Operational() {
		return nil
	}
	if req.Function != 3 && req.Function != 4 {
		return nil
	}
	if req.Quantity == 0 || req.Quantity > 125 {
		return nil
	}

	out := make([]byte, 0, 2+2*req.Quantity)
	out = append(out, req.Function, byte(2*req.Quantity))

	i := uint16(0)
	for i < req.Quantity {
		addr := req.Address + i
		def, ok := e.emap.Lookup(addr)
		if !ok {
			out = appendU16(out, 0)
			i++
			continue
		}

		raw, words := e.derive(def)
		if words == 2 {
			// Emulated reads answer high word first, then low word,
			// truncated once the requested count is reached.
			out = appendU16(out, uint16(raw>>16))
			if i+1 < req.Quantity {
				out = appendU16(out, uint16(raw))
			}
			i += 2
			continue
		}
		out = appendU16(out, uint16(raw))
		i++
	}

	return out[:2+2*req.Quantity]
}

// derive produces the raw output value for one emulated register: scaled
// source value, optional transform, reinterpreted as the destination type.
func (e *Emulator) derive(def catalog.Definition) (raw uint32, words uint16) {
	words = def.Words()
	if def.Backend == nil {
		return 0, words
	}

	v := e.store.ScaledValue(*def.Backend)
	v = applyTransform(e.store, def.Transform, v)

	switch def.Type {
	case catalog.Float32:
		return math.Float32bits(float32(v)), words
	case catalog.Int32:
		return uint32(int32(math.Round(v))), words
	case catalog.Uint32:
		return uint32(math.Round(v)), words
	case catalog.Int16:
		return uint32(uint16(int16(math.Round(v)))), words
	default:
		return uint32(uint16(math.Round(v))), words
	}
}

// applyTransform dispatches the closed set of transform variants.
func applyTransform(store *cache.Store, t catalog.Transform, v float64) float64 {
	switch t.Kind {
	case catalog.TransformInvert:
		return -v
	case catalog.TransformArcCosDeg:
		if v < -1 || v > 1 {
			return 0
		}
		return math.Acos(v) * (180.0 / math.Pi)
	case catalog.TransformSum:
		return store.ScaledValue(t.AddrA) + store.ScaledValue(t.AddrB)
	}
	return v
}
