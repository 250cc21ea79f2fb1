// Package platform assembles device descriptors for concrete targets. The
// device list comes from a YAML configuration; each target package turns it
// into a registry plus the boot entries that bring the devices up.
package platform

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/hal"
)

// DeviceConfig describes one device instance of the target.
type DeviceConfig struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

// Config is the target device list.
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// Load decodes a configuration from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("could not decode platform config: %w", err)
	}
	return &cfg, nil
}

// LoadFile decodes a configuration from the file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open platform config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Device returns the entry with the given name.
func (c *Config) Device(name string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}

// Params returns the entry's parameters as a descriptor configuration.
func (d DeviceConfig) HalConfig() hal.Config {
	if d.Params == nil {
		return nil
	}
	return hal.Config(d.Params)
}
