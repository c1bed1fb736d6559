// internal/server/responder.go
package server

import (
	"github.com/jmceleney/et112-proxy/internal/cache"
)

// engine is the part of the polling engine the responders need.
type engine interface {
	Operational() bool
	ForwardWrite(addr, value uint16)
}

// CacheResponder answers local read requests straight from the value store
// and forwards single-register writes to the remote device.
type CacheResponder struct {
	store *cache.Store
	eng   engine
	unit  uint8
}

// NewCacheResponder builds a responder serving the given unit id.
func NewCacheResponder(store *cache.Store, eng engine, unit uint8) *CacheResponder {
	return &CacheResponder{store: store, eng: eng, unit: unit}
}

// Respond implements Handler. While the cache is not operational every
// request is answered with silence rather than an error, so the requesting
// master times out instead of receiving stale or zero data framed as valid.
func (r *CacheResponder) Respond(req Request) []byte {
	if req.UnitID != r.unit {
		return nil
	}
	if !r.eng.Operational() {
		return nil
	}

	switch req.Function {
	case 3, 4:
		return r.respondRead(req)
	case 6:
		r.eng.ForwardWrite(req.Address, req.Value)
		// Echo the request back as the response.
		out := []byte{req.Function}
		out = appendU16(out, req.Address)
		return appendU16(out, req.Value)
	}

	return nil
}

func (r *CacheResponder) respondRead(req Request) []byte {
	if req.Quantity == 0 || req.Quantity > 125 {
		return nil
	}

	out := make([]byte, 0, 2+2*req.Quantity)
	out = append(out, req.Function, byte(2*req.Quantity))

	cat := r.store.Catalog()
	i := uint16(0)
	for i < req.Quantity {
		addr := req.Address + i
		if cat.Is32Bit(addr) {
			raw := r.store.Read32(addr)
			// Local cache reads answer low word first, high word second.
			out = appendU16(out, uint16(raw))
			if i+1 < req.Quantity {
				out = appendU16(out, uint16(raw>>16))
			}
			i += 2
			continue
		}
		out = appendU16(out, r.store.Read16(addr))
		i++
	}

	return out[:2+2*req.Quantity]
}
