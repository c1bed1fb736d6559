// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	p := &cfg.Proxy

	// ------------------------------------------------------------
	// TARGET
	// ------------------------------------------------------------

	hasTCP := p.Target.Endpoint != ""
	hasRTU := p.Target.Serial.Device != ""

	if !hasTCP && !hasRTU {
		return errors.New("config: target requires endpoint or serial.device")
	}
	if hasTCP && hasRTU {
		return errors.New("config: target endpoint and serial.device are mutually exclusive")
	}

	if hasRTU {
		if err := validateSerial("target.serial", p.Target.Serial); err != nil {
			return err
		}
	}

	if p.Target.TimeoutMs < 0 {
		return errors.New("config: target.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if p.Poll.IntervalMs < 0 {
		return errors.New("config: poll.interval_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// LOCAL SERVERS
	// ------------------------------------------------------------

	if p.Servers.TCP == nil && p.Servers.RTU == nil && p.Servers.Emulator == nil {
		return errors.New("config: at least one local server must be configured")
	}

	if s := p.Servers.TCP; s != nil && s.Listen == "" {
		return errors.New("config: servers.tcp.listen required")
	}

	if s := p.Servers.RTU; s != nil {
		if s.Device == "" {
			return errors.New("config: servers.rtu.device required")
		}
		if err := validateSerial("servers.rtu", s.SerialConfig); err != nil {
			return err
		}
	}

	if s := p.Servers.Emulator; s != nil {
		if s.Listen == "" {
			return errors.New("config: servers.emulator.listen required")
		}
		// The emulated map is derived from a TCP-attached meter only.
		if hasRTU {
			return errors.New("config: servers.emulator requires a tcp target")
		}
	}

	return nil
}

func validateSerial(where string, s SerialConfig) error {
	switch s.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("config: %s.parity must be one of N, E, O", where)
	}

	switch s.DataBits {
	case 0, 7, 8:
	default:
		return fmt.Errorf("config: %s.data_bits must be 7 or 8", where)
	}

	switch s.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("config: %s.stop_bits must be 1 or 2", where)
	}

	if s.BaudRate < 0 {
		return fmt.Errorf("config: %s.baud_rate must be >= 0", where)
	}

	return nil
}
