package hal

import (
	"maps"
	"time"
)

// Config carries device construction parameters. Descriptors keep two
// copies: the immutable factory defaults and a runtime working copy that
// platform code may edit up to the first acquisition.
type Config map[string]any

// Clone returns an independent shallow copy.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	maps.Copy(out, c)
	return out
}

// String returns the string under key, or def when absent.
func (c Config) String(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

// Int returns the integer under key, or def when absent. YAML decoders
// produce int or float64 depending on the source, both are accepted.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Byte returns the integer under key narrowed to a byte, or def.
func (c Config) Byte(key string, def byte) byte {
	if _, ok := c[key]; !ok {
		return def
	}
	return byte(c.Int(key, int(def)))
}

// Bool returns the boolean under key, or def when absent.
func (c Config) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// Duration returns the duration under key, accepting either a
// time.Duration or a parseable string, or def when absent.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v)
	}
	return def
}

// Descriptor describes one device instance: its identity, configuration and
// construction entry points. Descriptors are built by platform code, live
// for the process lifetime and are owned by exactly one Registry.
type Descriptor struct {
	Name    string
	Kind    Kind
	Default Config
	Runtime Config

	// Construct builds and wires the device's interfaces. The registry
	// calls it at most once per construct/teardown cycle.
	Construct func(d *Descriptor) (Device, error)
	// Destruct reverses Construct. May be nil for devices without
	// teardown needs.
	Destruct func(d *Descriptor) error

	constructed bool
	refs        uint
	device      Device
}

// NewDescriptor builds a descriptor whose runtime configuration starts as a
// clone of the defaults.
func NewDescriptor(name string, kind Kind, cfg Config, construct func(*Descriptor) (Device, error), destruct func(*Descriptor) error) *Descriptor {
	return &Descriptor{
		Name:      name,
		Kind:      kind,
		Default:   cfg,
		Runtime:   cfg.Clone(),
		Construct: construct,
		Destruct:  destruct,
	}
}

// Constructed reports whether the device is currently built. A descriptor
// with zero references can still be constructed: it is idle, not torn down.
func (d *Descriptor) Constructed() bool { return d.constructed }

// Refs returns the current acquisition count.
func (d *Descriptor) Refs() uint { return d.refs }

// Device returns the constructed device, or nil.
func (d *Descriptor) Device() Device { return d.device }
