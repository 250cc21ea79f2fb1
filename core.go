package hal

import (
	"context"
	"fmt"
)

// Hooks are the device-specific lifecycle entry points a driver plugs into
// its Core. Any hook may be nil; the state machine then performs the bare
// transition. Init hooks must reset the driver's domain counters and flags
// to their defined initial values. Suspend and Resume hooks must preserve
// every piece of domain state; suspend is a pure state bit, not a
// data-destructive operation.
type Hooks struct {
	Init    func(ctx context.Context) error
	Deinit  func(ctx context.Context) error
	Suspend func() error
	Resume  func() error
}

// Core drives the lifecycle state machine shared by every device family.
// Drivers embed a *Core, which also supplies the Name/Kind/Lifecycle part of
// the Device contract. Core performs no locking: acquisition and lifecycle
// transitions assume a single logical owner at a time, matching the
// cooperative call patterns of embedded targets. Host callers that share a
// device across goroutines must serialize these operations themselves.
type Core struct {
	name  string
	kind  Kind
	state DeviceState
	hooks Hooks
}

// NewCore returns a lifecycle core in the Uninitialized state.
func NewCore(name string, kind Kind, hooks Hooks) *Core {
	return &Core{name: name, kind: kind, hooks: hooks}
}

func (c *Core) Name() string { return c.name }

func (c *Core) Kind() Kind { return c.kind }

// Lifecycle exposes the core as the device's lifecycle capability.
func (c *Core) Lifecycle() Lifecycle { return c }

// Init brings the device up. A device that is already running or suspended
// reports ErrAlreadyInitialized and is left untouched. A failing init hook
// leaves the device Uninitialized.
func (c *Core) Init(ctx context.Context) error {
	if c == nil {
		return ErrNilArgument
	}
	if c.state != StateUninitialized {
		return fmt.Errorf("%s: %w", c.name, ErrAlreadyInitialized)
	}
	if c.hooks.Init != nil {
		if err := c.hooks.Init(ctx); err != nil {
			return fmt.Errorf("%s: init failed: %w", c.name, err)
		}
	}
	c.state = StateRunning
	return nil
}

// Deinit stops the device and returns it to Uninitialized.
func (c *Core) Deinit(ctx context.Context) error {
	if c == nil {
		return ErrNilArgument
	}
	if c.state == StateUninitialized {
		return fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	}
	if c.hooks.Deinit != nil {
		if err := c.hooks.Deinit(ctx); err != nil {
			return fmt.Errorf("%s: deinit failed: %w", c.name, err)
		}
	}
	c.state = StateUninitialized
	return nil
}

// Suspend freezes a running device. Domain configuration and counters are
// preserved exactly.
func (c *Core) Suspend() error {
	if c == nil {
		return ErrNilArgument
	}
	switch c.state {
	case StateUninitialized:
		return fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	case StateSuspended:
		return fmt.Errorf("%s: already suspended: %w", c.name, ErrInvalidState)
	}
	if c.hooks.Suspend != nil {
		if err := c.hooks.Suspend(); err != nil {
			return fmt.Errorf("%s: suspend failed: %w", c.name, err)
		}
	}
	c.state = StateSuspended
	return nil
}

// Resume returns a suspended device to Running with its domain state
// unchanged from before the suspend.
func (c *Core) Resume() error {
	if c == nil {
		return ErrNilArgument
	}
	switch c.state {
	case StateUninitialized:
		return fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	case StateSuspended:
	default:
		return fmt.Errorf("%s: not suspended: %w", c.name, ErrInvalidState)
	}
	if c.hooks.Resume != nil {
		if err := c.hooks.Resume(); err != nil {
			return fmt.Errorf("%s: resume failed: %w", c.name, err)
		}
	}
	c.state = StateRunning
	return nil
}

// State is a pure query. A nil core reports StateError rather than
// panicking.
func (c *Core) State() DeviceState {
	if c == nil {
		return StateError
	}
	return c.state
}

// Ready gates a domain operation on the lifecycle state. Drivers call it at
// the top of every domain entry point; the check is the driver's
// responsibility, not the lifecycle's.
func (c *Core) Ready() error {
	switch c.State() {
	case StateRunning:
		return nil
	case StateSuspended:
		return fmt.Errorf("%s: suspended: %w", c.name, ErrInvalidState)
	default:
		return fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	}
}

// Reset forces the state machine back to Uninitialized, bypassing the
// deinit checks and hooks. It exists for test fixtures on host-simulation
// builds; production call paths go through Deinit.
func (c *Core) Reset() {
	c.state = StateUninitialized
}

// SoftPower is the power capability of software-simulated devices: a pure
// state bit with no hardware effect.
type SoftPower struct {
	disabled bool
}

func (p *SoftPower) Enable(ctx context.Context) error { p.disabled = false; return nil }

func (p *SoftPower) Disable(ctx context.Context) error { p.disabled = true; return nil }

func (p *SoftPower) Enabled() bool { return !p.disabled }
