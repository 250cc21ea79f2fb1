package sim

import (
	"sync"
	"time"
)

// Clock is a manually advanced time source for timers under test.
type Clock struct {
	mx  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to the given instant.
func (c *Clock) Set(t time.Time) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = t
}
