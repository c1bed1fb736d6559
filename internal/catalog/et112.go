// internal/catalog/et112.go
package catalog

// BaudRateRegister is the ET112 RS485 baud rate configuration register.
// It is settable outside the generic register path.
const BaudRateRegister uint16 = 8193

// ET112Dynamic is the continuously polled measurement map of the
// Carlo Gavazzi ET112 energy meter.
func ET112Dynamic() []Definition {
	return []Definition{
		{Address: 0, Type: Int32, Description: "Volts", Scale: 0.1, Unit: Volts},
		{Address: 2, Type: Int32, Description: "Amps", Scale: 0.001, Unit: Amps},
		{Address: 4, Type: Int32, Description: "Watts", Scale: 0.1, Unit: Watts},
		{Address: 6, Type: Int32, Description: "VA", Scale: 0.1, Unit: VoltAmps},
		{Address: 8, Type: Int32, Description: "Volt Amp Reactive", Scale: 0.1, Unit: Var},
		// Word 11 is doubly mapped on the meter: it is both the high word
		// of W Demand and the static identification code register below.
		// The store keys on base address, so reads of 11 serve the
		// identification register.
		{Address: 10, Type: Int32, Description: "W Demand", Scale: 0.1, Unit: Watts},
		{Address: 12, Type: Int32, Description: "W Demand Peak", Scale: 0.1, Unit: Watts},
		{Address: 14, Type: Int16, Description: "Power Factor", Scale: 0.001, Unit: PowerFactor},
		{Address: 15, Type: Int16, Description: "Frequency", Scale: 0.1, Unit: Hertz},
		{Address: 16, Type: Int32, Description: "Energy kWh (+)", Scale: 0.1, Unit: KWh},
		{Address: 18, Type: Int32, Description: "Reactive Power Kvarh (+)", Scale: 0.1, Unit: KVarh},
		{Address: 20, Type: Int32, Description: "kWh (+) PARTIAL", Scale: 0.1, Unit: KWh},
		{Address: 22, Type: Int32, Description: "Kvarh (+) PARTIAL", Scale: 0.1, Unit: KVarh},
		{Address: 32, Type: Int32, Description: "Energy kWh (-)", Scale: 0.1, Unit: KWh},
		{Address: 34, Type: Int32, Description: "Reactive Power Kvarh (-)", Scale: 0.1, Unit: KVarh},
	}
}

// ET112Static is the fetch-once identity and configuration map.
func ET112Static() []Definition {
	return []Definition{
		{Address: 11, Type: Int16, Description: "Carlo Gavazzi Controls identification code"},
		{Address: 770, Type: Uint16, Description: "Version"},
		{Address: 771, Type: Uint16, Description: "Revision"},
		{Address: 4112, Type: Uint32, Description: "Integration Time for dmd calc"},
		{Address: 4355, Type: Int16, Description: "Measurement mode"},
		{Address: BaudRateRegister, Type: Uint16, Description: "RS485 baud rate"},
		{Address: 20480, Type: Uint16, Description: "Serial number 1"},
		{Address: 20481, Type: Uint16, Description: "Serial number 2"},
		{Address: 20482, Type: Uint16, Description: "Serial number 3"},
		{Address: 20483, Type: Uint16, Description: "Serial number 4"},
		{Address: 20484, Type: Uint16, Description: "Serial number 5"},
		{Address: 20485, Type: Uint16, Description: "Serial number 6"},
		{Address: 20486, Type: Uint16, Description: "Serial number 7"},
	}
}
