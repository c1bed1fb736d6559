// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Proxy ProxyConfig `yaml:"proxy"`
}

type ProxyConfig struct {
	Target  TargetConfig  `yaml:"target"`
	Poll    PollConfig    `yaml:"poll"`
	Servers ServersConfig `yaml:"servers"`
}

// ---- TARGET ----

// TargetConfig addresses the remote meter. Exactly one of Endpoint (TCP)
// or Serial.Device (RTU) must be set.
type TargetConfig struct {
	Endpoint  string       `yaml:"endpoint"`
	Serial    SerialConfig `yaml:"serial"`
	UnitID    uint8        `yaml:"unit_id"`
	TimeoutMs int          `yaml:"timeout_ms"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- LOCAL SERVERS ----

// ServersConfig lists the local responders. Each entry is opt-in.
type ServersConfig struct {
	TCP      *TCPServerConfig `yaml:"tcp"`
	RTU      *RTUServerConfig `yaml:"rtu"`
	Emulator *TCPServerConfig `yaml:"emulator"`
}

type TCPServerConfig struct {
	Listen string `yaml:"listen"`
	UnitID uint8  `yaml:"unit_id"`
}

type RTUServerConfig struct {
	SerialConfig `yaml:",inline"`
	UnitID       uint8 `yaml:"unit_id"`
}

// Load reads and decodes a yaml config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}
