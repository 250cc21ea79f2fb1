// Package timer implements the soft timer device family: an
// elapsed-time counter driven by a pluggable clock so the host simulation
// platform can control time in tests.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/hal"
)

// Clock abstracts time measurement.
type Clock interface {
	Now() time.Time
}

// WallClock ticks with the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// Status is the diagnostic status record of a soft timer.
type Status struct {
	State   hal.DeviceState
	Running bool
	Elapsed time.Duration
}

// Statistics counts timer activity since init or the last clear.
type Statistics struct {
	Starts uint32
	Stops  uint32
}

// Soft is a software timer device.
// Typical usage:
//
//	t := timer.New("timer0", nil)
//	_ = t.Lifecycle().Init(ctx)
//	_ = t.Start(ctx)
type Soft struct {
	*hal.Core
	power hal.SoftPower

	clock   Clock
	running bool
	started time.Time
	total   time.Duration
	stats   Statistics
}

var _ hal.TimerDevice = &Soft{}

// New returns a soft timer over the given clock, defaulting to the wall
// clock when nil.
func New(name string, clock Clock) *Soft {
	t := &Soft{clock: clock}
	if t.clock == nil {
		t.clock = WallClock{}
	}
	t.Core = hal.NewCore(name, hal.KindTimer, hal.Hooks{
		Init:   t.bringUp,
		Deinit: t.tearDown,
	})
	return t
}

// NewDescriptor builds a registry descriptor for a soft timer.
func NewDescriptor(name string, clock Clock) *hal.Descriptor {
	return hal.NewDescriptor(name, hal.KindTimer, nil,
		func(d *hal.Descriptor) (hal.Device, error) {
			return New(d.Name, clock), nil
		}, nil)
}

func (t *Soft) bringUp(ctx context.Context) error {
	t.running = false
	t.total = 0
	t.stats = Statistics{}
	return nil
}

func (t *Soft) tearDown(ctx context.Context) error {
	t.running = false
	return nil
}

// Start begins counting elapsed time.
func (t *Soft) Start(ctx context.Context) error {
	if err := t.Ready(); err != nil {
		return err
	}
	if t.running {
		return fmt.Errorf("timer %s already started: %w", t.Name(), hal.ErrInvalidState)
	}
	t.started = t.clock.Now()
	t.running = true
	t.stats.Starts++
	return nil
}

// Stop freezes the accumulated elapsed time.
func (t *Soft) Stop(ctx context.Context) error {
	if err := t.Ready(); err != nil {
		return err
	}
	if !t.running {
		return fmt.Errorf("timer %s not started: %w", t.Name(), hal.ErrInvalidState)
	}
	t.total += t.clock.Now().Sub(t.started)
	t.running = false
	t.stats.Stops++
	return nil
}

// Elapsed returns the accumulated running time.
func (t *Soft) Elapsed() (time.Duration, error) {
	if t.State() == hal.StateUninitialized {
		return 0, fmt.Errorf("timer %s: %w", t.Name(), hal.ErrNotInitialized)
	}
	return t.elapsed(), nil
}

// Running reports whether the timer is currently counting.
func (t *Soft) Running() bool { return t.running }

func (t *Soft) elapsed() time.Duration {
	if t.running {
		return t.total + t.clock.Now().Sub(t.started)
	}
	return t.total
}

// Power exposes the timer's power capability.
func (t *Soft) Power() hal.Power { return &t.power }

// Diagnostic exposes the timer's diagnostic capability.
func (t *Soft) Diagnostic() hal.Diagnostic { return softDiag{t} }

// Reset forcibly returns the timer to Uninitialized and clears its domain
// state, bypassing the deinit checks. Test fixtures only.
func (t *Soft) Reset() {
	t.Core.Reset()
	t.running = false
	t.total = 0
	t.stats = Statistics{}
}

// softDiag is a view over the timer state, not an independent object.
type softDiag struct {
	t *Soft
}

func (d softDiag) Status(dst any) error {
	out, ok := dst.(*Status)
	if !ok || out == nil {
		return fmt.Errorf("timer status: destination must be *timer.Status: %w", hal.ErrInvalidParameter)
	}
	*out = Status{State: d.t.State(), Running: d.t.running, Elapsed: d.t.elapsed()}
	return nil
}

func (d softDiag) Statistics(dst any) error {
	out, ok := dst.(*Statistics)
	if !ok || out == nil {
		return fmt.Errorf("timer statistics: destination must be *timer.Statistics: %w", hal.ErrInvalidParameter)
	}
	*out = d.t.stats
	return nil
}

func (d softDiag) ClearStatistics() error {
	d.t.stats = Statistics{}
	return nil
}
