package i2cbus

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/hal"
)

var _ Transport = &Periph{}

// Periph is a bus transport over a periph.io host bus. The bus is opened
// during lifecycle init, not at construction.
type Periph struct {
	dev string
	bus i2c.BusCloser
}

// NewPeriph returns a transport for the named host bus (e.g. "/dev/i2c-0"
// or "1").
func NewPeriph(dev string) *Periph {
	return &Periph{dev: dev}
}

func (p *Periph) Connect(ctx context.Context) error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(p.dev)
	if err != nil {
		return fmt.Errorf("could not open i2c bus: %w", err)
	}
	p.bus = bus
	return nil
}

func (p *Periph) Close(ctx context.Context) error {
	if p.bus == nil {
		return nil
	}
	err := p.bus.Close()
	p.bus = nil
	return err
}

func (p *Periph) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if p.bus == nil {
		return fmt.Errorf("bus %s not open: %w", p.dev, hal.ErrNotInitialized)
	}
	err := p.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (p *Periph) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if p.bus == nil {
		return fmt.Errorf("bus %s not open: %w", p.dev, hal.ErrNotInitialized)
	}
	err := p.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (p *Periph) Release(ctx context.Context) error {
	return nil
}
