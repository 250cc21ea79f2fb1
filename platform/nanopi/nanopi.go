// Package nanopi builds the NanoPi NEO target: the board I2C bus through
// periph.io, the MCP23017 expander on it and the 25AA1024 EEPROM over the
// Gobot SPI adaptor.
package nanopi

import (
	"context"
	"fmt"

	gobotnanopi "gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/adapter"
	"github.com/mklimuk/hal/boot"
	"github.com/mklimuk/hal/conv"
	"github.com/mklimuk/hal/gpioexp"
	"github.com/mklimuk/hal/i2cbus"
	"github.com/mklimuk/hal/platform"
	"github.com/mklimuk/hal/store/eeprom"
	"github.com/mklimuk/hal/timer"
)

const (
	prioBus        = 10
	prioPeripheral = 20
	prioTimer      = 30
)

// DefaultBusDevice is the NanoPi NEO external I2C bus.
const DefaultBusDevice = "/dev/i2c-0"

// Platform is the real-board target.
type Platform struct {
	Registry *hal.Registry
	Boot     *boot.Sequencer
}

// DefaultConfig is the device list used when no configuration is given.
func DefaultConfig() *platform.Config {
	return &platform.Config{Devices: []platform.DeviceConfig{
		{Name: "i2c0", Kind: string(hal.KindBus), Params: map[string]any{"device": DefaultBusDevice}},
		{Name: "gpio0", Kind: string(hal.KindExpander), Params: map[string]any{"address": int(gpioexp.DefaultMCP23017Address)}},
		{Name: "adc0", Kind: string(hal.KindConverter), Params: map[string]any{"address": int(conv.DefaultADS1115Address)}},
		{Name: "eeprom0", Kind: string(hal.KindStore), Params: map[string]any{"bus": "0"}},
		{Name: "timer0", Kind: string(hal.KindTimer)},
	}}
}

// New assembles the board platform from the given device list, falling back
// to DefaultConfig when cfg is nil.
func New(cfg *platform.Config) (*Platform, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Platform{Boot: boot.New()}
	var descs []*hal.Descriptor
	var bus *i2cbus.Bus
	for _, dev := range cfg.Devices {
		switch hal.Kind(dev.Kind) {
		case hal.KindBus:
			var tr i2cbus.Transport
			switch backend := dev.HalConfig().String("transport", "periph"); backend {
			case "periph":
				tr = i2cbus.NewPeriph(dev.HalConfig().String("device", DefaultBusDevice))
			case "mcp2221":
				tr = adapter.NewMCP2221()
			default:
				return nil, fmt.Errorf("unknown bus transport %q: %w", backend, hal.ErrInvalidParameter)
			}
			b := i2cbus.New(dev.Name, tr)
			bus = b
			descs = append(descs, hal.NewDescriptor(dev.Name, hal.KindBus, dev.HalConfig(),
				func(d *hal.Descriptor) (hal.Device, error) { return b, nil }, nil))
		case hal.KindExpander:
			if bus == nil {
				return nil, fmt.Errorf("device %s declared before any bus: %w", dev.Name, hal.ErrInvalidParameter)
			}
			descs = append(descs, gpioexp.NewDescriptor(dev.Name, bus, dev.HalConfig()))
		case hal.KindConverter:
			if bus == nil {
				return nil, fmt.Errorf("device %s declared before any bus: %w", dev.Name, hal.ErrInvalidParameter)
			}
			descs = append(descs, conv.NewDescriptor(dev.Name, bus, dev.HalConfig()))
		case hal.KindStore:
			name := dev.Name
			spiBus := dev.HalConfig().String("bus", "0")
			cs := dev.HalConfig().Byte("cs", 0)
			descs = append(descs, hal.NewDescriptor(name, hal.KindStore, dev.HalConfig(),
				func(d *hal.Descriptor) (hal.Device, error) {
					return eeprom.New(name, gobotnanopi.NewNeoAdaptor(), spiBus, cs), nil
				}, nil))
		case hal.KindTimer:
			descs = append(descs, timer.NewDescriptor(dev.Name, nil))
		default:
			return nil, fmt.Errorf("unknown device kind %q: %w", dev.Kind, hal.ErrInvalidParameter)
		}
	}
	reg, err := hal.NewRegistry(descs...)
	if err != nil {
		return nil, err
	}
	p.Registry = reg
	for _, dev := range cfg.Devices {
		err = p.Boot.Register(bootPriority(hal.Kind(dev.Kind)), dev.Name, initEntry(reg, dev.Name))
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func bootPriority(kind hal.Kind) int {
	switch kind {
	case hal.KindBus:
		return prioBus
	case hal.KindTimer:
		return prioTimer
	}
	return prioPeripheral
}

func initEntry(reg *hal.Registry, name string) func() error {
	return func() error {
		dev, err := reg.Acquire(name)
		if err != nil {
			return err
		}
		return dev.Lifecycle().Init(context.Background())
	}
}

// Run executes the boot sequence.
func (p *Platform) Run() error {
	return p.Boot.Run()
}

// Close releases the registry and tears everything down.
func (p *Platform) Close() error {
	return p.Registry.Close()
}
