package sim

import (
	"fmt"
	"sync"
)

const expanderRegisterCount = 0x16

// Expander models the MCP23017 register file in bank 0 addressing. A bus
// write selects the register pointer and optionally writes through it; a
// bus read returns consecutive registers starting at the pointer.
type Expander struct {
	mx      sync.Mutex
	regs    [expanderRegisterCount]byte
	pointer byte
}

// register addresses in bank 0
const (
	expGPIOA = 0x12
	expGPIOB = 0x13
)

// NewExpander returns a register model with all pins low and all registers
// zero except the direction registers, which reset to all-input per the
// datasheet.
func NewExpander() *Expander {
	e := &Expander{}
	e.regs[0x00] = 0xFF
	e.regs[0x01] = 0xFF
	return e
}

func (e *Expander) HandleWrite(buffer []byte) error {
	e.mx.Lock()
	defer e.mx.Unlock()
	if len(buffer) == 0 {
		return fmt.Errorf("empty register write")
	}
	if buffer[0] >= expanderRegisterCount {
		return fmt.Errorf("no register %#x", buffer[0])
	}
	e.pointer = buffer[0]
	for i, v := range buffer[1:] {
		addr := int(e.pointer) + i
		if addr >= expanderRegisterCount {
			return fmt.Errorf("register write past %#x", expanderRegisterCount)
		}
		e.regs[addr] = v
	}
	return nil
}

func (e *Expander) HandleRead(buffer []byte) error {
	e.mx.Lock()
	defer e.mx.Unlock()
	for i := range buffer {
		addr := int(e.pointer) + i
		if addr >= expanderRegisterCount {
			return fmt.Errorf("register read past %#x", expanderRegisterCount)
		}
		buffer[i] = e.regs[addr]
	}
	return nil
}

// SetPins drives the input latch of the given I/O set (0 for A, 1 for B).
func (e *Expander) SetPins(port int, value byte) error {
	e.mx.Lock()
	defer e.mx.Unlock()
	switch port {
	case 0:
		e.regs[expGPIOA] = value
	case 1:
		e.regs[expGPIOB] = value
	default:
		return fmt.Errorf("no gpio set %d", port)
	}
	return nil
}

// Register returns the current value of a raw register, for assertions on
// configuration writes.
func (e *Expander) Register(addr byte) byte {
	e.mx.Lock()
	defer e.mx.Unlock()
	if addr >= expanderRegisterCount {
		return 0x00
	}
	return e.regs[addr]
}
