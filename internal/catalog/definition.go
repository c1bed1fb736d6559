// internal/catalog/definition.go
package catalog

// RegisterType is the wire type of a register's value.
type RegisterType uint8

const (
	Uint16 RegisterType = iota
	Int16
	Uint32
	Int32
	Float32
)

func (t RegisterType) String() string {
	switch t {
	case Uint16:
		return "UINT16"
	case Int16:
		return "INT16"
	case Uint32:
		return "UINT32"
	case Int32:
		return "INT32"
	case Float32:
		return "FLOAT"
	}
	return "UNKNOWN"
}

// Is32Bit reports whether the type occupies two register addresses.
func (t RegisterType) Is32Bit() bool {
	return t == Uint32 || t == Int32 || t == Float32
}

// Words is the number of 16-bit registers the type occupies.
func (t RegisterType) Words() uint16 {
	if t.Is32Bit() {
		return 2
	}
	return 1
}

// Unit is the physical unit a register measures, if any.
type Unit uint8

const (
	NoUnit Unit = iota
	Volts
	Amps
	Watts
	PowerFactor
	Hertz
	KWh
	KVarh
	VoltAmps
	Var
)

func (u Unit) String() string {
	switch u {
	case Volts:
		return "V"
	case Amps:
		return "A"
	case Watts:
		return "W"
	case PowerFactor:
		return "PF"
	case Hertz:
		return "Hz"
	case KWh:
		return "KWh"
	case KVarh:
		return "KVarh"
	case VoltAmps:
		return "VA"
	case Var:
		return "var"
	}
	return ""
}

// TransformKind selects one of the closed set of value transforms used by the
// emulated register map. Transforms are data, not callables, so register
// tables stay serializable.
type TransformKind uint8

const (
	// TransformNone passes the scaled source value through.
	TransformNone TransformKind = iota
	// TransformInvert flips the sign of the scaled source value.
	TransformInvert
	// TransformArcCosDeg converts a power factor into a phase angle in degrees.
	TransformArcCosDeg
	// TransformSum ignores the source value and returns the sum of the scaled
	// values of registers AddrA and AddrB.
	TransformSum
)

// Transform is an optional per-register derivation step. The zero value is
// TransformNone.
type Transform struct {
	Kind  TransformKind
	AddrA uint16
	AddrB uint16
}

// Definition describes one register. Immutable after construction.
type Definition struct {
	Address     uint16
	Type        RegisterType
	Description string

	// Scale converts the raw value to engineering units. Zero means 1.0.
	Scale float64

	Unit Unit

	// Backend, when set, points at the register this one is derived from.
	// Only the emulated map uses it.
	Backend *uint16

	Transform Transform
}

// Words is the number of 16-bit registers the definition occupies.
func (d Definition) Words() uint16 { return d.Type.Words() }

// ScaleOr1 returns the scaling factor, defaulting to 1.0.
func (d Definition) ScaleOr1() float64 {
	if d.Scale == 0 {
		return 1.0
	}
	return d.Scale
}
