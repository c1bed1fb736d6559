// internal/poll/ingest.go
package poll

import "log"

// OnData ingests a successful read response. The payload is the register
// bytes of the PDU (byte count stripped), two bytes per register big-endian.
// Responses may arrive out of token-issue order.
func (e *Engine) OnData(payload []byte, token uint32) {
	now := e.now()

	entry, ok := e.corr.Complete(token, now)
	if !ok {
		log.Printf("poll: token %d not found, response discarded", token)
		return
	}

	e.latency.Observe(now.Sub(entry.Issued))

	addr := entry.Start
	end := entry.Start + entry.Count
	i := 0

	for addr < end {
		if e.cat.Is32Bit(addr) {
			if i+4 > len(payload) {
				break
			}
			// The low word arrives first, each word big-endian: the 32-bit
			// field's bytes contribute in the order [1,0,3,2] from least
			// significant byte up.
			low := uint32(payload[i])<<8 | uint32(payload[i+1])
			high := uint32(payload[i+2])<<8 | uint32(payload[i+3])
			e.store.Write(addr, high<<16|low, true)
			e.markFetched(addr)
			addr += 2
			i += 4
			continue
		}

		if i+2 > len(payload) {
			break
		}
		e.store.Write(addr, uint32(payload[i])<<8|uint32(payload[i+1]), false)
		e.markFetched(addr)
		addr++
		i += 2
	}

	e.lastSuccess.Store(now.UnixNano())
	e.updateOperational()
}

// OnError handles a transport-reported failure for token. The entry is
// dropped; the scheduler re-requests the range on a later pass.
func (e *Engine) OnError(err error, token uint32) {
	if _, ok := e.corr.Complete(token, e.now()); !ok {
		log.Printf("poll: error for unknown token %d: %v", token, err)
		return
	}
	log.Printf("poll: request token=%d failed: %v", token, err)
}

// markFetched records addr in the per-cycle fetched set and flips the
// corresponding completion flag once the whole set has been seen. Static
// completion permanently switches the scheduler to dynamic polling.
func (e *Engine) markFetched(addr uint16) {
	switch {
	case e.cat.IsStatic(addr):
		e.mu.Lock()
		e.fetchedStatic[addr] = struct{}{}
		done := len(e.fetchedStatic) == len(e.cat.StaticAddresses())
		e.mu.Unlock()
		if done {
			e.staticDone.Store(true)
		}
	case e.cat.IsDynamic(addr):
		e.mu.Lock()
		e.fetchedDynamic[addr] = struct{}{}
		done := len(e.fetchedDynamic) == len(e.cat.DynamicAddresses())
		e.mu.Unlock()
		if done {
			e.dynamicDone.Store(true)
		}
	}
}
