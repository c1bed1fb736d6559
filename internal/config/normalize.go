// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	p := &cfg.Proxy

	if p.Target.UnitID == 0 {
		p.Target.UnitID = 1
	}
	if p.Target.TimeoutMs == 0 {
		p.Target.TimeoutMs = 1000
	}
	if p.Target.Serial.Device != "" {
		normalizeSerial(&p.Target.Serial)
	}

	if p.Poll.IntervalMs == 0 {
		p.Poll.IntervalMs = 500
	}

	if s := p.Servers.TCP; s != nil && s.UnitID == 0 {
		s.UnitID = 1
	}
	if s := p.Servers.RTU; s != nil {
		normalizeSerial(&s.SerialConfig)
		if s.UnitID == 0 {
			s.UnitID = 1
		}
	}
	if s := p.Servers.Emulator; s != nil && s.UnitID == 0 {
		s.UnitID = 2
	}
}

func normalizeSerial(s *SerialConfig) {
	if s.BaudRate == 0 {
		s.BaudRate = 9600
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
}
