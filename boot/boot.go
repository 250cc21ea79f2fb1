// Package boot runs the system-wide, priority-ordered initialization
// sequence that brings subsystems and devices up at start-up. One failed
// entry must not prevent the rest of the system from starting: the run
// continues past failures and reports them in the end-of-run status and
// statistics instead.
package boot

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/mklimuk/hal"
)

// ErrIncomplete is the aggregate status of a run in which at least one
// entry failed.
var ErrIncomplete = errors.New("boot sequence completed with failures")

// Stats accumulates the outcome of one full run.
type Stats struct {
	Total     int
	Success   int
	Failure   int
	LastError error
}

type entry struct {
	priority int
	name     string
	fn       func() error
	sentinel bool
}

// Sequencer collects init entries and executes them once, in ascending
// priority order, on the calling goroutine. A Sequencer is explicit state:
// tests build their own instead of sharing a process singleton.
type Sequencer struct {
	entries []entry
	ran     bool
	stats   Stats
}

// New returns a sequencer seeded with the two sentinel entries bounding the
// valid priority range. Sentinels delimit the table and are always skipped
// during execution.
func New() *Sequencer {
	return &Sequencer{entries: []entry{
		{priority: math.MinInt, name: "boot.start", sentinel: true},
		{priority: math.MaxInt, name: "boot.end", sentinel: true},
	}}
}

// Register appends an init entry at the given priority level. Entries are
// never removed; registration after the run has executed is refused.
func (s *Sequencer) Register(priority int, name string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("entry %q: %w", name, hal.ErrNilArgument)
	}
	if s.ran {
		return fmt.Errorf("entry %q registered after boot: %w", name, hal.ErrInvalidState)
	}
	s.entries = append(s.entries, entry{priority: priority, name: name, fn: fn})
	return nil
}

// Run executes every registered entry grouped by ascending priority,
// continuing past individual failures. If any entry failed the aggregate
// result wraps ErrIncomplete while the statistics record which entries
// succeeded. A second call is a no-op returning nil with the statistics of
// the first run unchanged.
func (s *Sequencer) Run() error {
	if s.ran {
		return nil
	}
	s.ran = true
	s.stats = Stats{}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].priority < s.entries[j].priority
	})
	for _, e := range s.entries {
		if e.sentinel {
			continue
		}
		s.stats.Total++
		if err := e.fn(); err != nil {
			s.stats.Failure++
			s.stats.LastError = err
			slog.Error("boot entry failed", "entry", e.name, "priority", e.priority, "error", err)
			continue
		}
		s.stats.Success++
		slog.Debug("boot entry done", "entry", e.name, "priority", e.priority)
	}
	if s.stats.Failure > 0 {
		return fmt.Errorf("%d of %d entries failed: %w", s.stats.Failure, s.stats.Total, ErrIncomplete)
	}
	return nil
}

// Stats returns the statistics of the last run, zero before any run.
func (s *Sequencer) Stats() Stats { return s.stats }

// IsComplete reports whether the sequence has run with every entry
// succeeding.
func (s *Sequencer) IsComplete() bool { return s.ran && s.stats.Failure == 0 }
