// Package sim provides software models of buses and peripherals so the
// framework can run and be tested on a development host without hardware.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/hal"
)

// Handler models one peripheral attached to the simulated bus.
type Handler interface {
	// HandleWrite receives the bytes of a bus write.
	HandleWrite(buffer []byte) error
	// HandleRead fills buffer with the peripheral's response.
	HandleRead(buffer []byte) error
}

// Bus is an in-memory bus transport. Peripherals attach at fixed addresses;
// transfers to unattached addresses fail with hal.ErrNotFound.
type Bus struct {
	mx       sync.Mutex
	attached map[byte]Handler
	busy     int
	stuck    bool
	closed   bool
}

// NewBus returns an empty simulated bus.
func NewBus() *Bus {
	return &Bus{attached: make(map[byte]Handler)}
}

// Attach connects a peripheral model at the given address, replacing any
// previous one.
func (b *Bus) Attach(address byte, h Handler) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.attached[address] = h
}

// SetBusy makes the next n transfers fail with hal.ErrBusBusy. Release
// clears the condition, mirroring a stuck bus engine.
func (b *Bus) SetBusy(n int) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.busy = n
}

// SetStuck makes every transfer fail with hal.ErrBusBusy until cleared,
// surviving Release. Models an engine that never recovers.
func (b *Bus) SetStuck(stuck bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.stuck = stuck
}

func (b *Bus) Connect(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.closed = false
	return nil
}

func (b *Bus) Close(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.closed = true
	return nil
}

func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	h, err := b.target(address)
	if err != nil {
		return err
	}
	return h.HandleRead(buffer)
}

func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	h, err := b.target(address)
	if err != nil {
		return err
	}
	return h.HandleWrite(buffer)
}

// Release clears a pending busy condition.
func (b *Bus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.busy = 0
	return nil
}

func (b *Bus) target(address byte) (Handler, error) {
	if b.closed {
		return nil, fmt.Errorf("bus closed: %w", hal.ErrNotInitialized)
	}
	if b.stuck {
		return nil, hal.ErrBusBusy
	}
	if b.busy > 0 {
		b.busy--
		return nil, hal.ErrBusBusy
	}
	h, ok := b.attached[address]
	if !ok {
		return nil, fmt.Errorf("no peripheral at %#x: %w", address, hal.ErrNotFound)
	}
	return h, nil
}
