// Package eeprom implements the persistent store device family over the
// Microchip 25AA1024 1-Mbit SPI EEPROM (page size 256 bytes, datasheet
// Table 3-1 instruction set).
package eeprom

import (
	"context"
	"fmt"
	"time"

	"gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/hal"
)

// instruction set (datasheet Table 3-1)
const (
	cmdRead  = 0x03
	cmdWrite = 0x02
	cmdWREN  = 0x06
	cmdRDSR  = 0x05

	statusWIP = 0x01

	// PageSize is the device write page in bytes.
	PageSize = 256
	// Capacity is the total device size in bytes (1 Mbit).
	Capacity = 131072
)

// writeCycle bounds one internal write cycle (max 6ms per datasheet).
const writeCycle = 10 * time.Millisecond

// Conn is the subset of the SPI connection the driver needs. The Gobot
// sysfs connection satisfies it, as does the simulation backend.
type Conn interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// Status is the diagnostic status record of a store device.
type Status struct {
	State    hal.DeviceState
	Enabled  bool
	Capacity uint32
}

// Statistics counts store traffic since init or the last clear.
type Statistics struct {
	Reads        uint32
	Writes       uint32
	BytesRead    uint64
	BytesWritten uint64
	Errors       uint32
}

// Store is a persistent storage device backed by the 25AA1024.
type Store struct {
	*hal.Core
	power hal.SoftPower

	driver *spi.Driver
	conn   Conn
	stats  Statistics
}

var _ hal.StoreDevice = &Store{}

// New returns a store bound to a Gobot SPI adaptor. bus and cs are the SPI
// bus number and chip-select line, matching the board's numbering.
func New(name string, adaptor spi.Connector, bus string, cs byte, opts ...func(spi.Config)) *Store {
	d := spi.NewDriver(adaptor, bus, opts...)
	// mode 0 (CPOL=0, CPHA=0), conservative 5 MHz against the 20 MHz limit
	d.SetMode(0)
	if d.GetSpeedOrDefault(0) == 0 {
		d.SetSpeed(5_000_000)
	}
	s := &Store{driver: d}
	s.Core = hal.NewCore(name, hal.KindStore, hal.Hooks{
		Init:   s.bringUp,
		Deinit: s.tearDown,
	})
	return s
}

// NewWithConn returns a store over an already established SPI connection.
// Used by the host simulation platform.
func NewWithConn(name string, conn Conn) *Store {
	s := &Store{conn: conn}
	s.Core = hal.NewCore(name, hal.KindStore, hal.Hooks{
		Init:   s.bringUp,
		Deinit: s.tearDown,
	})
	return s
}

// NewDescriptor builds a registry descriptor for a store over the given
// connection.
func NewDescriptor(name string, conn Conn) *hal.Descriptor {
	return hal.NewDescriptor(name, hal.KindStore, nil,
		func(d *hal.Descriptor) (hal.Device, error) {
			if conn == nil {
				return nil, fmt.Errorf("store %s: no connection: %w", d.Name, hal.ErrNilArgument)
			}
			return NewWithConn(d.Name, conn), nil
		}, nil)
}

func (s *Store) bringUp(ctx context.Context) error {
	s.stats = Statistics{}
	if s.driver != nil {
		err := s.driver.Start()
		if err != nil {
			return fmt.Errorf("could not start spi driver: %w", err)
		}
		conn, ok := s.driver.Connection().(Conn)
		if !ok {
			return fmt.Errorf("spi connection does not support required operations")
		}
		s.conn = conn
	}
	if s.conn == nil {
		return fmt.Errorf("store %s: no connection: %w", s.Name(), hal.ErrNilArgument)
	}
	return nil
}

func (s *Store) tearDown(ctx context.Context) error {
	if s.driver != nil {
		s.conn = nil
		return s.driver.Halt()
	}
	return nil
}

// Capacity returns the device size in bytes.
func (s *Store) Capacity() uint32 { return Capacity }

// ReadAt fills buffer with bytes starting at address. Reads that exceed the
// device's capacity are rejected.
func (s *Store) ReadAt(ctx context.Context, address uint32, buffer []byte) error {
	if err := s.Ready(); err != nil {
		return err
	}
	// two-step check, address+len would wrap around near the top of uint32
	if address >= Capacity || uint32(len(buffer)) > Capacity-address {
		return fmt.Errorf("read of %d bytes at %#x out of range: %w", len(buffer), address, hal.ErrInvalidParameter)
	}
	// command + 24-bit address, A16..A0 used, seven MSB are don't care
	header := []byte{cmdRead, byte(address >> 16), byte(address >> 8), byte(address)}
	err := s.conn.ReadCommandData(header, buffer)
	if err != nil {
		s.stats.Errors++
		return fmt.Errorf("could not read store data: %w", err)
	}
	s.stats.Reads++
	s.stats.BytesRead += uint64(len(buffer))
	return nil
}

// WriteAt writes data at the given start address. Data is split into
// page-bounded chunks and the status register polled until each internal
// write cycle completes.
func (s *Store) WriteAt(ctx context.Context, address uint32, data []byte) error {
	if err := s.Ready(); err != nil {
		return err
	}
	if address >= Capacity || uint32(len(data)) > Capacity-address {
		return fmt.Errorf("write of %d bytes at %#x out of range: %w", len(data), address, hal.ErrInvalidParameter)
	}
	for _, c := range pageChunks(address, len(data), PageSize) {
		err := s.pageWrite(ctx, c.address, data[c.offset:c.offset+c.length])
		if err != nil {
			s.stats.Errors++
			return err
		}
	}
	s.stats.Writes++
	s.stats.BytesWritten += uint64(len(data))
	return nil
}

type chunk struct {
	address uint32
	offset  int
	length  int
}

// pageChunks splits a write into page-bounded pieces. The first piece may be
// shorter when the address is not page aligned.
func pageChunks(address uint32, length, pageSize int) []chunk {
	var out []chunk
	offset := 0
	for offset < length {
		space := pageSize - int(address)%pageSize
		size := length - offset
		if size > space {
			size = space
		}
		out = append(out, chunk{address: address, offset: offset, length: size})
		offset += size
		address += uint32(size)
	}
	return out
}

func (s *Store) pageWrite(ctx context.Context, address uint32, data []byte) error {
	err := s.conn.WriteBytes([]byte{cmdWREN})
	if err != nil {
		return fmt.Errorf("could not set write-enable latch: %w", err)
	}
	header := []byte{cmdWrite, byte(address >> 16), byte(address >> 8), byte(address)}
	err = s.conn.WriteBytes(append(header, data...))
	if err != nil {
		return fmt.Errorf("could not write page at %#x: %w", address, err)
	}
	return s.waitUntilReady(ctx, writeCycle)
}

// waitUntilReady polls STATUS.WIP until the internal write cycle completes.
func (s *Store) waitUntilReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := make([]byte, 1)
		err := s.conn.ReadCommandData([]byte{cmdRDSR}, st)
		if err != nil {
			return fmt.Errorf("could not read status register: %w", err)
		}
		if st[0]&statusWIP == 0 {
			return nil
		}
		time.Sleep(500 * time.Microsecond)
	}
	return fmt.Errorf("timeout waiting for write completion")
}

// Power exposes the store's power capability.
func (s *Store) Power() hal.Power { return &s.power }

// Diagnostic exposes the store's diagnostic capability.
func (s *Store) Diagnostic() hal.Diagnostic { return storeDiag{s} }

// Reset forcibly returns the store to Uninitialized and clears its counters.
// Test fixtures only.
func (s *Store) Reset() {
	s.Core.Reset()
	s.stats = Statistics{}
}

type storeDiag struct {
	s *Store
}

func (d storeDiag) Status(dst any) error {
	out, ok := dst.(*Status)
	if !ok || out == nil {
		return fmt.Errorf("store status: destination must be *eeprom.Status: %w", hal.ErrInvalidParameter)
	}
	*out = Status{State: d.s.State(), Enabled: d.s.power.Enabled(), Capacity: Capacity}
	return nil
}

func (d storeDiag) Statistics(dst any) error {
	out, ok := dst.(*Statistics)
	if !ok || out == nil {
		return fmt.Errorf("store statistics: destination must be *eeprom.Statistics: %w", hal.ErrInvalidParameter)
	}
	*out = d.s.stats
	return nil
}

func (d storeDiag) ClearStatistics() error {
	d.s.stats = Statistics{}
	return nil
}
