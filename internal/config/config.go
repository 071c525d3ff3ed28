package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SerialCfg struct {
	Port string `yaml:"port"` // e.g. /dev/ttyUSB0
	Baud int    `yaml:"baud"` // e.g. 115200
}

type SPICfg struct {
	Port       string `yaml:"port,omitempty"`    // spireg name; empty = first available
	FreqHz     int    `yaml:"freq_hz,omitempty"` // 0 = derived from the NRZ rate
	ColorOrder string `yaml:"color_order"`       // e.g. GRBW
}

type LedsCfg struct {
	Left  int `yaml:"left"`
	Top   int `yaml:"top"`
	Right int `yaml:"right"`
}

type TimeoutsCfg struct {
	IdleMs     int `yaml:"idle_ms"`      // silence before ambient color
	OffMs      int `yaml:"off_ms"`       // silence before fade to off
	FadeStepMs int `yaml:"fade_step_ms"` // pacing of each brightness step
}

type Config struct {
	Driver  string `yaml:"driver"`  // "spi" | "sim"
	Addr    string `yaml:"addr"`    // HTTP listen address
	Ambient string `yaml:"ambient"` // idle color, hex RRGGBB

	Serial   SerialCfg   `yaml:"serial"`
	SPI      SPICfg      `yaml:"spi,omitempty"`
	Leds     LedsCfg     `yaml:"leds"`
	Timeouts TimeoutsCfg `yaml:"timeouts"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ParseColor parses a hex RRGGBB color, with or without a leading '#'.
func ParseColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("color %q: want RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
