// Package host builds the simulation platform: every device family backed
// by the in-memory models from sim, so the framework runs on a development
// machine without hardware.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/boot"
	"github.com/mklimuk/hal/conv"
	"github.com/mklimuk/hal/gpioexp"
	"github.com/mklimuk/hal/i2cbus"
	"github.com/mklimuk/hal/platform"
	"github.com/mklimuk/hal/sim"
	"github.com/mklimuk/hal/store/eeprom"
	"github.com/mklimuk/hal/timer"
)

// boot priorities: the bus comes up before the peripherals attached to it.
const (
	prioBus        = 10
	prioPeripheral = 20
	prioTimer      = 30
)

// Platform is the simulated target. The backends stay reachable so tests
// can drive pin levels, input voltages and the clock.
type Platform struct {
	Bus      *sim.Bus
	Clock    *sim.Clock
	Expander *sim.Expander
	ADC      *sim.ADC
	Memory   *sim.Memory

	Registry *hal.Registry
	Boot     *boot.Sequencer
}

// DefaultConfig is the device list used when no configuration is given.
func DefaultConfig() *platform.Config {
	return &platform.Config{Devices: []platform.DeviceConfig{
		{Name: "i2c0", Kind: string(hal.KindBus)},
		{Name: "gpio0", Kind: string(hal.KindExpander), Params: map[string]any{"address": int(gpioexp.DefaultMCP23017Address)}},
		{Name: "adc0", Kind: string(hal.KindConverter), Params: map[string]any{"address": int(conv.DefaultADS1115Address)}},
		{Name: "eeprom0", Kind: string(hal.KindStore)},
		{Name: "timer0", Kind: string(hal.KindTimer)},
	}}
}

// New assembles the simulated platform from the given device list, falling
// back to DefaultConfig when cfg is nil.
func New(cfg *platform.Config) (*Platform, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Platform{
		Bus:      sim.NewBus(),
		Clock:    sim.NewClock(time.Unix(0, 0)),
		Expander: sim.NewExpander(),
		ADC:      sim.NewADC(),
		Memory:   sim.NewMemory(eeprom.Capacity),
		Boot:     boot.New(),
	}
	var descs []*hal.Descriptor
	var bus *i2cbus.Bus
	for _, dev := range cfg.Devices {
		switch hal.Kind(dev.Kind) {
		case hal.KindBus:
			b := i2cbus.New(dev.Name, p.Bus)
			bus = b
			descs = append(descs, hal.NewDescriptor(dev.Name, hal.KindBus, dev.HalConfig(),
				func(d *hal.Descriptor) (hal.Device, error) { return b, nil }, nil))
		case hal.KindExpander:
			if bus == nil {
				return nil, fmt.Errorf("device %s declared before any bus: %w", dev.Name, hal.ErrInvalidParameter)
			}
			p.Bus.Attach(dev.HalConfig().Byte("address", gpioexp.DefaultMCP23017Address), p.Expander)
			descs = append(descs, gpioexp.NewDescriptor(dev.Name, bus, dev.HalConfig()))
		case hal.KindConverter:
			if bus == nil {
				return nil, fmt.Errorf("device %s declared before any bus: %w", dev.Name, hal.ErrInvalidParameter)
			}
			p.Bus.Attach(dev.HalConfig().Byte("address", conv.DefaultADS1115Address), p.ADC)
			descs = append(descs, conv.NewDescriptor(dev.Name, bus, dev.HalConfig()))
		case hal.KindStore:
			descs = append(descs, eeprom.NewDescriptor(dev.Name, p.Memory))
		case hal.KindTimer:
			descs = append(descs, timer.NewDescriptor(dev.Name, p.Clock))
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
