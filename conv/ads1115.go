// Package conv implements the analog converter device family over the Texas
// Instruments ADS1115 16-bit ADC.
package conv

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mklimuk/hal"
)

const DefaultADS1115Address = 0x48

// ChannelCount is the number of single-ended inputs on the converter.
const ChannelCount = 4

// ADS1115 register pointers.
const (
	regConversion = 0x00
	regConfig     = 0x01
)

// Single-shot configuration word pieces. The full-scale range is fixed at
// +/-2.048V (PGA 010) so one code is 62.5uV.
const (
	cfgStartSingle = 0x8000
	cfgMuxSingle   = 0x4000
	cfgPGA2048     = 0x0400
	cfgModeSingle  = 0x0100
	cfgRate128SPS  = 0x0080
	cfgCompDisable = 0x0003
)

const fullScale = 2.048

// conversionWait covers one sample at 128 SPS with margin.
const conversionWait = 10 * time.Millisecond

// Status is the diagnostic status record of a converter device.
type Status struct {
	State   hal.DeviceState
	Enabled bool
	Address byte
}

// Statistics counts conversions since init or the last clear.
type Statistics struct {
	Conversions uint32
	Errors      uint32
}

// ADS1115 is an analog converter device. Channels are the four single-ended
// inputs measured against ground.
type ADS1115 struct {
	*hal.Core
	power hal.SoftPower

	transport hal.I2C
	address   byte
	stats     Statistics
}

var _ hal.ConverterDevice = &ADS1115{}

// New returns a converter over the given bus transport.
func New(name string, bus hal.I2C, address byte) *ADS1115 {
	c := &ADS1115{transport: bus, address: address}
	c.Core = hal.NewCore(name, hal.KindConverter, hal.Hooks{
		Init:   c.bringUp,
		Deinit: c.tearDown,
	})
	return c
}

// NewDescriptor builds a registry descriptor for a converter. Recognized
// configuration keys: address.
func NewDescriptor(name string, bus hal.I2C, cfg hal.Config) *hal.Descriptor {
	return hal.NewDescriptor(name, hal.KindConverter, cfg,
		func(d *hal.Descriptor) (hal.Device, error) {
			if bus == nil {
				return nil, fmt.Errorf("converter %s: no bus: %w", d.Name, hal.ErrNilArgument)
			}
			return New(d.Name, bus, d.Runtime.Byte("address", DefaultADS1115Address)), nil
		}, nil)
}

// bringUp probes the device by reading back the config register.
func (c *ADS1115) bringUp(ctx context.Context) error {
	c.stats = Statistics{}
	err := c.transport.WriteToAddr(ctx, c.address, []byte{regConfig})
	if err != nil {
		return fmt.Errorf("could not select config register: %w", err)
	}
	buf := make([]byte, 2)
	err = c.transport.ReadFromAddr(ctx, c.address, buf)
	if err != nil {
		return fmt.Errorf("could not probe converter: %w", err)
	}
	return nil
}

func (c *ADS1115) tearDown(ctx context.Context) error {
	return nil
}

// Address returns the converter's bus address.
func (c *ADS1115) Address() byte { return c.address }

// ReadChannel triggers a single-shot conversion on the given input and
// returns the measured voltage.
func (c *ADS1115) ReadChannel(ctx context.Context, channel int) (float64, error) {
	if err := c.Ready(); err != nil {
		return 0, err
	}
	if channel < 0 || channel >= ChannelCount {
		return 0, fmt.Errorf("no input channel %d: %w", channel, hal.ErrInvalidParameter)
	}
	config := uint16(cfgStartSingle | cfgMuxSingle | cfgPGA2048 | cfgModeSingle | cfgRate128SPS | cfgCompDisable)
	config |= uint16(channel) << 12
	req := make([]byte, 3)
	req[0] = regConfig
	binary.BigEndian.PutUint16(req[1:], config)
	err := c.transport.WriteToAddr(ctx, c.address, req)
	if err != nil {
		c.stats.Errors++
		return 0, fmt.Errorf("could not start conversion on channel %d: %w", channel, err)
	}
	// conversion at 128 SPS takes about 8ms
	time.Sleep(conversionWait)
	err = c.transport.WriteToAddr(ctx, c.address, []byte{regConversion})
	if err != nil {
		c.stats.Errors++
		return 0, fmt.Errorf("could not select conversion register: %w", err)
	}
	resp := make([]byte, 2)
	err = c.transport.ReadFromAddr(ctx, c.address, resp)
	if err != nil {
		c.stats.Errors++
		return 0, fmt.Errorf("could not read conversion result: %w", err)
	}
	raw := int16(binary.BigEndian.Uint16(resp))
	c.stats.Conversions++
	return float64(raw) * fullScale / 32768, nil
}

// Power exposes the converter's power capability.
func (c *ADS1115) Power() hal.Power { return &c.power }

// Diagnostic exposes the converter's diagnostic capability.
func (c *ADS1115) Diagnostic() hal.Diagnostic { return convDiag{c} }

// Reset forcibly returns the converter to Uninitialized and clears its
// counters. Test fixtures only.
func (c *ADS1115) Reset() {
	c.Core.Reset()
	c.stats = Statistics{}
}

type convDiag struct {
	c *ADS1115
}

func (d convDiag) Status(dst any) error {
	out, ok := dst.(*Status)
	if !ok || out == nil {
		return fmt.Errorf("converter status: destination must be *conv.Status: %w", hal.ErrInvalidParameter)
	}
	*out = Status{State: d.c.State(), Enabled: d.c.power.Enabled(), Address: d.c.address}
	return nil
}

func (d convDiag) Statistics(dst any) error {
	out, ok := dst.(*Statistics)
	if !ok || out == nil {
		return fmt.Errorf("converter statistics: destination must be *conv.Statistics: %w", hal.ErrInvalidParameter)
	}
	*out = d.c.stats
	return nil
}

func (d convDiag) ClearStatistics() error {
	d.c.stats = Statistics{}
	return nil
}
