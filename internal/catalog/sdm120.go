// internal/catalog/sdm120.go
package catalog

func backend(addr uint16) *uint16 { return &addr }

// SDM120Emulated is the Eastron SDM120 register map served by the emulator.
// Every register is a 32-bit float derived from an ET112 register through the
// backend address, the source's scaling factor and an optional transform.
func SDM120Emulated() []Definition {
	return []Definition{
		{Address: 0, Type: Float32, Description: "Volts", Scale: 1, Unit: Volts, Backend: backend(0)},
		{Address: 6, Type: Float32, Description: "Amps", Scale: 1, Unit: Amps, Backend: backend(2)},
		{Address: 12, Type: Float32, Description: "Watts", Scale: 1, Unit: Watts, Backend: backend(4)},
		{Address: 18, Type: Float32, Description: "VA", Scale: 1, Unit: VoltAmps, Backend: backend(6)},
		{Address: 24, Type: Float32, Description: "Volt Amp Reactive", Scale: 1, Unit: Var, Backend: backend(8)},
		{Address: 30, Type: Float32, Description: "Power Factor", Scale: 1, Unit: PowerFactor, Backend: backend(14)},
		{Address: 36, Type: Float32, Description: "Phase Angle", Scale: 1, Unit: PowerFactor, Backend: backend(14),
			Transform: Transform{Kind: TransformArcCosDeg}},
		{Address: 70, Type: Float32, Description: "Frequency", Scale: 1, Unit: Hertz, Backend: backend(15)},
		{Address: 72, Type: Float32, Description: "Energy kWh (+)", Scale: 1, Unit: KWh, Backend: backend(16)},
		{Address: 74, Type: Float32, Description: "Energy kWh (-)", Scale: 1, Unit: KWh, Backend: backend(32),
			Transform: Transform{Kind: TransformInvert}},
		{Address: 76, Type: Float32, Description: "Reactive Power Kvarh (+)", Scale: 1, Unit: KVarh, Backend: backend(18)},
		{Address: 78, Type: Float32, Description: "Reactive Power Kvarh (-)", Scale: 1, Unit: KVarh, Backend: backend(34),
			Transform: Transform{Kind: TransformInvert}},
		{Address: 84, Type: Float32, Description: "W Demand", Scale: 1, Unit: Watts, Backend: backend(10)},
		{Address: 86, Type: Float32, Description: "W Demand Peak", Scale: 1, Unit: Watts, Backend: backend(12)},
		{Address: 88, Type: Float32, Description: "kWh (+) PARTIAL", Scale: 1, Unit: KWh, Backend: backend(20)},
		{Address: 90, Type: Float32, Description: "Kvarh (+) PARTIAL", Scale: 1, Unit: KVarh, Backend: backend(22)},
		{Address: 92, Type: Float32, Description: "kWh (-) PARTIAL", Scale: 1, Unit: KWh, Backend: backend(34),
			Transform: Transform{Kind: TransformInvert}},
		{Address: 342, Type: Float32, Description: "kWh Energy Total", Scale: 1, Unit: KWh, Backend: backend(16),
			Transform: Transform{Kind: TransformSum, AddrA: 16, AddrB: 32}},
		{Address: 344, Type: Float32, Description: "Reactive Power Total", Scale: 1, Unit: KVarh, Backend: backend(18),
			Transform: Transform{Kind: TransformSum, AddrA: 18, AddrB: 34}},
	}
}
