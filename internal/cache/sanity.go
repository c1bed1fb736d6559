// internal/cache/sanity.go
package cache

import "github.com/jmceleney/et112-proxy/internal/catalog"

// sane evaluates the plausibility band for a proposed scaled value against
// the register's current scaled value.
//
// A current value of exactly zero means the register has never been
// populated; the proposal is accepted unconditionally to seed the cache.
func sane(unit catalog.Unit, current, proposed float64) bool {
	if current == 0 {
		return true
	}

	switch unit {
	case catalog.KWh, catalog.KVarh:
		// Energy counters move slowly; reject large jumps.
		delta := proposed - current
		return delta >= -30 && delta <= 30
	case catalog.Watts, catalog.VoltAmps, catalog.Var:
		return proposed >= -25000 && proposed <= 25000
	case catalog.Hertz:
		return proposed >= 40 && proposed <= 65
	case catalog.Amps:
		return proposed >= -150 && proposed <= 150
	case catalog.Volts:
		return proposed >= 205 && proposed <= 265
	}

	// No unit or unrecognized: always plausible.
	return true
}
