// internal/cache/format.go
package cache

import (
	"fmt"
	"strconv"

	"github.com/jmceleney/et112-proxy/internal/catalog"
)

// FormatValue renders a scaled value for the given register definition,
// e.g. "230.1 V" or "0.501 A". Unitless registers render as a bare number.
func FormatValue(def catalog.Definition, v float64) string {
	if def.Unit == catalog.NoUnit {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("%.*f %s", decimalsFor(def.ScaleOr1()), v, def.Unit)
}

// decimalsFor derives display precision from the scaling factor: a register
// scaled by 0.001 resolves to three decimal places.
func decimalsFor(scale float64) int {
	switch {
	case scale <= 0.001:
		return 3
	case scale <= 0.01:
		return 2
	default:
		return 1
	}
}

// FormattedValue renders the register's current value, or "" if the address
// is undefined.
func (s *Store) FormattedValue(addr uint16) string {
	def, ok := s.cat.Lookup(addr)
	if !ok {
		return ""
	}
	return FormatValue(def, s.ScaledValue(addr))
}

// FormattedWaterMarks renders the high/low extremes observed at addr.
func (s *Store) FormattedWaterMarks(addr uint16) (high, low string) {
	def, ok := s.cat.Lookup(addr)
	if !ok {
		return "", ""
	}
	h, l := s.WaterMarks(addr)
	return FormatValue(def, h), FormatValue(def, l)
}

// BaudRate formats the ET112 RS485 baud rate configuration register.
func (s *Store) BaudRate() string {
	switch s.Read16(catalog.BaudRateRegister) {
	case 1:
		return "9.6 kbps"
	case 2:
		return "19.2 kbps"
	case 3:
		return "38.4 kbps"
	case 4:
		return "57.6 kbps"
	case 5:
		return "115.2 kbps"
	}
	return "unknown"
}
