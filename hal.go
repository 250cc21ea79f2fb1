// Package hal is a device framework for heterogeneous peripherals: a uniform
// way to describe, register, acquire and operate drivers (timers, buses,
// converters, storage) across embedded boards and a host-based simulation
// backend used for testing.
//
// Platform code builds Descriptors, a Registry holds them, and callers reach
// a live device through Acquire. Every device exposes one primary,
// family-specific interface plus the shared Lifecycle capability; Power and
// Diagnostic are optional secondary capabilities reached through PowerOf and
// DiagnosticOf. All capability interfaces are views over the same device
// state, never independent copies.
package hal

import (
	"context"
	"time"
)

// Kind identifies a device family.
type Kind string

const (
	KindTimer     Kind = "timer"
	KindBus       Kind = "bus"
	KindConverter Kind = "converter"
	KindStore     Kind = "store"
	KindExpander  Kind = "expander"
)

// Device is the base every primary interface embeds. Acquisition returns a
// shared, non-owning view; callers must not retain it past a registry
// teardown of the owning descriptor.
type Device interface {
	Name() string
	Kind() Kind
	Lifecycle() Lifecycle
}

// Lifecycle governs the state machine shared by every device family.
// It operates on the same state block as the primary interface.
type Lifecycle interface {
	Init(ctx context.Context) error
	Deinit(ctx context.Context) error
	Suspend() error
	Resume() error
	State() DeviceState
}

// Power is an optional capability. Enable and Disable are idempotent and
// reversible; Enabled is a pure query. Software-simulated devices report
// enabled unless explicitly disabled.
type Power interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Enabled() bool
}

// Diagnostic is an optional capability. Status and Statistics fill a
// caller-supplied pointer to the device family's record type and reject any
// other destination with ErrInvalidParameter. ClearStatistics never fails
// once the device is constructed.
type Diagnostic interface {
	Status(dst any) error
	Statistics(dst any) error
	ClearStatistics() error
}

// PowerOf returns the power capability of dev, or nil when the device does
// not expose one.
func PowerOf(dev Device) Power {
	type powered interface{ Power() Power }
	if p, ok := dev.(powered); ok {
		return p.Power()
	}
	return nil
}

// DiagnosticOf returns the diagnostic capability of dev, or nil when the
// device does not expose one.
func DiagnosticOf(dev Device) Diagnostic {
	type diagnosed interface{ Diagnostic() Diagnostic }
	if d, ok := dev.(diagnosed); ok {
		return d.Diagnostic()
	}
	return nil
}

// I2C is the bus transport contract device drivers are written against.
// Release asks the backend to free a bus stuck in a busy state.
type I2C interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// BusDevice is the primary interface of the bus family.
type BusDevice interface {
	Device
	I2C
}

// TimerDevice is the primary interface of the timer family.
type TimerDevice interface {
	Device
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Elapsed() (time.Duration, error)
	Running() bool
}

// ConverterDevice is the primary interface of analog converters.
type ConverterDevice interface {
	Device
	ReadChannel(ctx context.Context, channel int) (float64, error)
}

// StoreDevice is the primary interface of persistent storage devices.
type StoreDevice interface {
	Device
	ReadAt(ctx context.Context, address uint32, buffer []byte) error
	WriteAt(ctx context.Context, address uint32, data []byte) error
	Capacity() uint32
}

// ExpanderDevice is the primary interface of I/O expanders. Ports are
// numbered from zero in device order.
type ExpanderDevice interface {
	Device
	ReadPort(ctx context.Context, port int) (byte, error)
	WritePort(ctx context.Context, port int, value byte) error
}
