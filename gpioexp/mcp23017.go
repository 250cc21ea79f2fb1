// Package gpioexp implements the I/O expander device family over the
// MCP23017 16-bit expander. Port 0 maps to the device's A set, port 1 to the
// B set.
package gpioexp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/hal"
)

type register int

const DefaultMCP23017Address = 0x21

// PortCount is the number of 8-bit ports on the expander.
const PortCount = 2

// MCP23017 registers, addressed through BankAddr for the active bank.
const (
	IODIRA register = iota
	IOPOLA
	GPINTENA
	DEFVALA
	INTCONA
	IOCONA
	GPPUA
	INTFA
	INTCAPA
	GPIOA
	IODIRB
	IOPOLB
	GPINTENB
	DEFVALB
	INTCONB
	IOCONB
	GPPUB
	INTFB
	INTCAPB
	GPIOB
	OLATB
)

var (
	BankAddr = []map[register]byte{
		{
			IODIRA:   0x00,
			IOPOLA:   0x02,
			GPINTENA: 0x04,
			DEFVALA:  0x06,
			INTCONA:  0x08,
			IOCONA:   0x0A,
			GPPUA:    0x0C,
			INTFA:    0x0E,
			INTCAPA:  0x10,
			GPIOA:    0x12,
			IODIRB:   0x01,
			IOPOLB:   0x03,
			GPINTENB: 0x05,
			DEFVALB:  0x07,
			INTCONB:  0x09,
			IOCONB:   0x0B,
			GPPUB:    0x0D,
			INTFB:    0x0F,
			INTCAPB:  0x11,
			GPIOB:    0x13,
			OLATB:    0x15,
		},
		{
			IODIRA:   0x00,
			IOPOLA:   0x01,
			GPINTENA: 0x02,
			DEFVALA:  0x03,
			INTCONA:  0x04,
			IOCONA:   0x05,
			GPPUA:    0x06,
			INTFA:    0x07,
			INTCAPA:  0x08,
			GPIOA:    0x09,
			IODIRB:   0x10,
			IOPOLB:   0x11,
			GPINTENB: 0x12,
			DEFVALB:  0x13,
			INTCONB:  0x14,
			IOCONB:   0x15,
			GPPUB:    0x16,
			INTFB:    0x17,
			INTCAPB:  0x18,
			GPIOB:    0x19,
			OLATB:    0x1A,
		},
	}
)

// Ports holds the direction and pull-up bytes applied to both I/O sets
// during init. Direction bits follow the datasheet: 1 input, 0 output.
type Ports struct {
	DirA  byte
	DirB  byte
	PullA byte
	PullB byte
}

// Status is the diagnostic status record of an expander device.
type Status struct {
	State   hal.DeviceState
	Enabled bool
	Address byte
}

// Statistics counts expander traffic since init or the last clear. Retries
// are busy-bus release attempts, not failed operations.
type Statistics struct {
	Reads   uint32
	Writes  uint32
	Retries uint32
	Errors  uint32
}

// MCP23017 is an I/O expander device.
type MCP23017 struct {
	*hal.Core
	power hal.SoftPower

	mx         sync.Mutex
	transport  hal.I2C
	bank       int
	address    byte
	retryLimit int
	ports      Ports
	stats      Statistics
}

var _ hal.ExpanderDevice = &MCP23017{}

// New returns an expander over the given bus transport. The port
// configuration is applied when the lifecycle initializes the device.
func New(name string, bus hal.I2C, address byte, ports Ports) *MCP23017 {
	m := &MCP23017{retryLimit: 1, transport: bus, address: address, ports: ports}
	m.Core = hal.NewCore(name, hal.KindExpander, hal.Hooks{
		Init:   m.bringUp,
		Deinit: m.tearDown,
	})
	return m
}

// NewDescriptor builds a registry descriptor for an expander. Recognized
// configuration keys: address, dira, dirb, pulla, pullb.
func NewDescriptor(name string, bus hal.I2C, cfg hal.Config) *hal.Descriptor {
	return hal.NewDescriptor(name, hal.KindExpander, cfg,
		func(d *hal.Descriptor) (hal.Device, error) {
			if bus == nil {
				return nil, fmt.Errorf("expander %s: no bus: %w", d.Name, hal.ErrNilArgument)
			}
			ports := Ports{
				DirA:  d.Runtime.Byte("dira", 0xFF),
				DirB:  d.Runtime.Byte("dirb", 0xFF),
				PullA: d.Runtime.Byte("pulla", 0x00),
				PullB: d.Runtime.Byte("pullb", 0x00),
			}
			return New(d.Name, bus, d.Runtime.Byte("address", DefaultMCP23017Address), ports), nil
		}, nil)
}

func (m *MCP23017) bringUp(ctx context.Context) error {
	m.stats = Statistics{}
	err := m.writeRegister(ctx, IODIRA, m.ports.DirA)
	if err != nil {
		return fmt.Errorf("could not initialize gpio A set: %w", err)
	}
	err = m.writeRegister(ctx, IODIRB, m.ports.DirB)
	if err != nil {
		return fmt.Errorf("could not initialize gpio B set: %w", err)
	}
	err = m.writeRegister(ctx, GPPUA, m.ports.PullA)
	if err != nil {
		return fmt.Errorf("could not set pull-up on gpio A set: %w", err)
	}
	err = m.writeRegister(ctx, GPPUB, m.ports.PullB)
	if err != nil {
		return fmt.Errorf("could not set pull-up on gpio B set: %w", err)
	}
	return nil
}

func (m *MCP23017) tearDown(ctx context.Context) error {
	return nil
}

// Address returns the expander's bus address.
func (m *MCP23017) Address() byte { return m.address }

// ReadPort reads the input byte of the given I/O set.
func (m *MCP23017) ReadPort(ctx context.Context, port int) (byte, error) {
	if err := m.Ready(); err != nil {
		return 0x00, err
	}
	reg, err := portRegister(port, GPIOA, GPIOB)
	if err != nil {
		return 0x00, err
	}
	res, err := m.readRegister(ctx, reg)
	if err != nil {
		m.stats.Errors++
		return 0x00, fmt.Errorf("could not read gpio set %d: %w", port, err)
	}
	m.stats.Reads++
	return res, nil
}

// WritePort drives the output latch of the given I/O set.
func (m *MCP23017) WritePort(ctx context.Context, port int, value byte) error {
	if err := m.Ready(); err != nil {
		return err
	}
	reg, err := portRegister(port, GPIOA, GPIOB)
	if err != nil {
		return err
	}
	err = m.writeRegister(ctx, reg, value)
	if err != nil {
		m.stats.Errors++
		return fmt.Errorf("could not write gpio set %d: %w", port, err)
	}
	m.stats.Writes++
	return nil
}

// Read reads both I/O sets in device order.
func (m *MCP23017) Read(ctx context.Context) ([]byte, error) {
	res := make([]byte, PortCount)
	var err error
	res[0], err = m.ReadPort(ctx, 0)
	if err != nil {
		return nil, err
	}
	res[1], err = m.ReadPort(ctx, 1)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReadSettings reads the IOCON register of the given I/O set.
func (m *MCP23017) ReadSettings(ctx context.Context, port int) (byte, error) {
	if err := m.Ready(); err != nil {
		return 0x00, err
	}
	reg, err := portRegister(port, IOCONA, IOCONB)
	if err != nil {
		return 0x00, err
	}
	res, err := m.readRegister(ctx, reg)
	if err != nil {
		m.stats.Errors++
		return 0x00, fmt.Errorf("could not read settings of gpio set %d: %w", port, err)
	}
	return res, nil
}

// WriteSettings writes the IOCON register of the given I/O set.
func (m *MCP23017) WriteSettings(ctx context.Context, port int, settings byte) error {
	if err := m.Ready(); err != nil {
		return err
	}
	reg, err := portRegister(port, IOCONA, IOCONB)
	if err != nil {
		return err
	}
	err = m.writeRegister(ctx, reg, settings)
	if err != nil {
		m.stats.Errors++
		return fmt.Errorf("could not write settings of gpio set %d: %w", port, err)
	}
	return nil
}

func portRegister(port int, a, b register) (register, error) {
	switch port {
	case 0:
		return a, nil
	case 1:
		return b, nil
	}
	return a, fmt.Errorf("no gpio set %d: %w", port, hal.ErrInvalidParameter)
}

// writeRegister retries a busy bus after asking the transport to release it.
func (m *MCP23017) writeRegister(ctx context.Context, reg register, value byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	var err error
	for i := m.retryLimit; i >= 0; i-- {
		err = m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][reg], value})
		if err == nil {
			return nil
		}
		if !errors.Is(err, hal.ErrBusBusy) {
			return err
		}
		// try to release the bus
		m.stats.Retries++
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("retry limit reached: %w", err)
}

func (m *MCP23017) readRegister(ctx context.Context, reg register) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	var err error
	for i := m.retryLimit; i >= 0; i-- {
		var res byte
		res, err = m.readRegisterOnce(ctx, BankAddr[m.bank][reg])
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, hal.ErrBusBusy) {
			return 0x00, err
		}
		// try to release the bus
		m.stats.Retries++
		_ = m.transport.Release(ctx)
	}
	return 0x00, fmt.Errorf("retry limit reached: %w", err)
}

func (m *MCP23017) readRegisterOnce(ctx context.Context, addr byte) (byte, error) {
	err := m.transport.WriteToAddr(ctx, m.address, []byte{addr})
	if err != nil {
		return 0x00, fmt.Errorf("could not set I/O register address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read gpio data: %w", err)
	}
	return buf[0], nil
}

// Power exposes the expander's power capability.
func (m *MCP23017) Power() hal.Power { return &m.power }

// Diagnostic exposes the expander's diagnostic capability.
func (m *MCP23017) Diagnostic() hal.Diagnostic { return expDiag{m} }

// Reset forcibly returns the expander to Uninitialized and clears its
// counters. Test fixtures only.
func (m *MCP23017) Reset() {
	m.Core.Reset()
	m.stats = Statistics{}
}

type expDiag struct {
	m *MCP23017
}

func (d expDiag) Status(dst any) error {
	out, ok := dst.(*Status)
	if !ok || out == nil {
		return fmt.Errorf("expander status: destination must be *gpioexp.Status: %w", hal.ErrInvalidParameter)
	}
	*out = Status{State: d.m.State(), Enabled: d.m.power.Enabled(), Address: d.m.address}
	return nil
}

func (d expDiag) Statistics(dst any) error {
	out, ok := dst.(*Statistics)
	if !ok || out == nil {
		return fmt.Errorf("expander statistics: destination must be *gpioexp.Statistics: %w", hal.ErrInvalidParameter)
	}
	*out = d.m.stats
	return nil
}

func (d expDiag) ClearStatistics() error {
	d.m.stats = Statistics{}
	return nil
}
