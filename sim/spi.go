package sim

import (
	"fmt"
	"sync"
)

// Memory models the 25AA1024 SPI EEPROM behind the store driver's
// connection contract: instruction framing, write-enable latch and a write
// cycle that completes instantly.
type Memory struct {
	mx          sync.Mutex
	data        []byte
	writeEnable bool
}

const (
	memRead  = 0x03
	memWrite = 0x02
	memWREN  = 0x06
	memRDSR  = 0x05
)

// NewMemory returns a memory model of the given capacity, erased to 0xFF.
func NewMemory(capacity int) *Memory {
	m := &Memory{data: make([]byte, capacity)}
	for i := range m.data {
		m.data[i] = 0xFF
	}
	return m
}

func (m *Memory) ReadCommandData(command []byte, data []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case memRDSR:
		if len(data) < 1 {
			return fmt.Errorf("status read needs a buffer")
		}
		// write cycles complete instantly, WIP always clear
		data[0] = 0x00
		return nil
	case memRead:
		if len(command) != 4 {
			return fmt.Errorf("read command needs a 24-bit address")
		}
		address := int(command[1])<<16 | int(command[2])<<8 | int(command[3])
		if address+len(data) > len(m.data) {
			return fmt.Errorf("read of %d bytes at %#x out of range", len(data), address)
		}
		copy(data, m.data[address:])
		return nil
	}
	return fmt.Errorf("unsupported command %#x", command[0])
}

func (m *Memory) WriteBytes(data []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if len(data) == 0 {
		return fmt.Errorf("empty transfer")
	}
	switch data[0] {
	case memWREN:
		m.writeEnable = true
		return nil
	case memWrite:
		if !m.writeEnable {
			return fmt.Errorf("write-enable latch not set")
		}
		if len(data) < 5 {
			return fmt.Errorf("write command needs a 24-bit address and data")
		}
		address := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
		payload := data[4:]
		if address+len(payload) > len(m.data) {
			return fmt.Errorf("write of %d bytes at %#x out of range", len(payload), address)
		}
		copy(m.data[address:], payload)
		m.writeEnable = false
		return nil
	}
	return fmt.Errorf("unsupported command %#x", data[0])
}

// Bytes returns a copy of the memory contents for assertions.
func (m *Memory) Bytes(address, length int) []byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	out := make([]byte, length)
	copy(out, m.data[address:address+length])
	return out
}
