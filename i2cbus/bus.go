// Package i2cbus implements the I2C bus device family. A Bus wraps a
// Transport backend (periph.io host bus, USB-HID bridge, or the in-memory
// simulation bus) with the framework lifecycle and transfer accounting.
package i2cbus

import (
	"context"
	"fmt"

	"github.com/mklimuk/hal"
)

// Transport is a bus backend the lifecycle can bring up and tear down.
type Transport interface {
	hal.I2C
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}

// Status is the diagnostic status record of a bus device.
type Status struct {
	State   hal.DeviceState
	Enabled bool
}

// Statistics counts bus traffic since init or the last clear.
type Statistics struct {
	Reads        uint32
	Writes       uint32
	BytesRead    uint64
	BytesWritten uint64
	Errors       uint32
}

// Bus is an I2C bus device.
type Bus struct {
	*hal.Core
	power hal.SoftPower

	transport Transport
	stats     Statistics
}

var _ hal.BusDevice = &Bus{}

// New returns a bus device over the given transport backend.
func New(name string, transport Transport) *Bus {
	b := &Bus{transport: transport}
	b.Core = hal.NewCore(name, hal.KindBus, hal.Hooks{
		Init:   b.bringUp,
		Deinit: b.tearDown,
	})
	return b
}

// NewDescriptor builds a registry descriptor for a bus device.
func NewDescriptor(name string, transport Transport) *hal.Descriptor {
	return hal.NewDescriptor(name, hal.KindBus, nil,
		func(d *hal.Descriptor) (hal.Device, error) {
			if transport == nil {
				return nil, fmt.Errorf("bus %s: no transport: %w", d.Name, hal.ErrNilArgument)
			}
			return New(d.Name, transport), nil
		}, nil)
}

func (b *Bus) bringUp(ctx context.Context) error {
	if b.transport == nil {
		return hal.ErrNilArgument
	}
	b.stats = Statistics{}
	return b.transport.Connect(ctx)
}

func (b *Bus) tearDown(ctx context.Context) error {
	return b.transport.Close(ctx)
}

// ReadFromAddr reads buffer from the device at address.
func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.Ready(); err != nil {
		return err
	}
	if err := b.transport.ReadFromAddr(ctx, address, buffer); err != nil {
		b.stats.Errors++
		return fmt.Errorf("bus %s: %w", b.Name(), err)
	}
	b.stats.Reads++
	b.stats.BytesRead += uint64(len(buffer))
	return nil
}

// WriteToAddr writes buffer to the device at address.
func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.Ready(); err != nil {
		return err
	}
	if err := b.transport.WriteToAddr(ctx, address, buffer); err != nil {
		b.stats.Errors++
		return fmt.Errorf("bus %s: %w", b.Name(), err)
	}
	b.stats.Writes++
	b.stats.BytesWritten += uint64(len(buffer))
	return nil
}

// Release asks the backend to free a busy bus engine.
func (b *Bus) Release(ctx context.Context) error {
	if err := b.Ready(); err != nil {
		return err
	}
	return b.transport.Release(ctx)
}

// Power exposes the bus power capability.
func (b *Bus) Power() hal.Power { return &b.power }

// Diagnostic exposes the bus diagnostic capability.
func (b *Bus) Diagnostic() hal.Diagnostic { return busDiag{b} }

// Reset forcibly returns the bus to Uninitialized and clears its counters.
// Test fixtures only.
func (b *Bus) Reset() {
	b.Core.Reset()
	b.stats = Statistics{}
}

type busDiag struct {
	b *Bus
}

func (d busDiag) Status(dst any) error {
	out, ok := dst.(*Status)
	if !ok || out == nil {
		return fmt.Errorf("bus status: destination must be *i2cbus.Status: %w", hal.ErrInvalidParameter)
	}
	*out = Status{State: d.b.State(), Enabled: d.b.power.Enabled()}
	return nil
}

func (d busDiag) Statistics(dst any) error {
	out, ok := dst.(*Statistics)
	if !ok || out == nil {
		return fmt.Errorf("bus statistics: destination must be *i2cbus.Statistics: %w", hal.ErrInvalidParameter)
	}
	*out = d.b.stats
	return nil
}

func (d busDiag) ClearStatistics() error {
	d.b.stats = Statistics{}
	return nil
}
