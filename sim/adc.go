package sim

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// ADC models the ADS1115 conversion path. Voltages set through SetVoltage
// are quantized to the +/-2.048V full-scale range the converter driver
// configures.
type ADC struct {
	mx      sync.Mutex
	raw     [4]int16
	config  uint16
	pointer byte
}

const adcFullScale = 2.048

// NewADC returns a converter model with all inputs at 0V.
func NewADC() *ADC {
	return &ADC{}
}

// SetVoltage presents volts on the given single-ended input.
func (a *ADC) SetVoltage(channel int, volts float64) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if channel < 0 || channel >= len(a.raw) {
		return fmt.Errorf("no input channel %d", channel)
	}
	raw := volts * 32768 / adcFullScale
	switch {
	case raw > 32767:
		raw = 32767
	case raw < -32768:
		raw = -32768
	}
	a.raw[channel] = int16(raw)
	return nil
}

func (a *ADC) HandleWrite(buffer []byte) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if len(buffer) == 0 {
		return fmt.Errorf("empty register write")
	}
	a.pointer = buffer[0]
	if a.pointer > 0x03 {
		return fmt.Errorf("no register %#x", a.pointer)
	}
	if len(buffer) == 1 {
		return nil
	}
	if a.pointer != 0x01 || len(buffer) != 3 {
		return fmt.Errorf("unexpected write of %d bytes to register %#x", len(buffer)-1, a.pointer)
	}
	a.config = binary.BigEndian.Uint16(buffer[1:])
	return nil
}

func (a *ADC) HandleRead(buffer []byte) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	if len(buffer) != 2 {
		return fmt.Errorf("unexpected read of %d bytes", len(buffer))
	}
	switch a.pointer {
	case 0x00:
		// mux bits 14-12: 100 + channel selects single-ended input
		channel := int(a.config>>12) & 0x03
		binary.BigEndian.PutUint16(buffer, uint16(a.raw[channel]))
	case 0x01:
		// conversion always complete in simulation
		binary.BigEndian.PutUint16(buffer, a.config|0x8000)
	default:
		return fmt.Errorf("no register %#x", a.pointer)
	}
	return nil
}
