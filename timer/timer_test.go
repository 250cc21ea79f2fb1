package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/sim"
)

func runningTimer(t *testing.T, clock Clock) *Soft {
	t.Helper()
	tm := New("timer0", clock)
	require.NoError(t, tm.Init(context.Background()))
	return tm
}

func TestSoft_MeasuresElapsedTime(t *testing.T) {
	clock := sim.NewClock(time.Unix(0, 0))
	tm := runningTimer(t, clock)
	ctx := context.Background()

	require.NoError(t, tm.Start(ctx))
	assert.True(t, tm.Running())

	clock.Advance(1500 * time.Millisecond)
	elapsed, err := tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, elapsed)

	require.NoError(t, tm.Stop(ctx))
	assert.False(t, tm.Running())

	// a stopped timer accumulates across start/stop cycles
	clock.Advance(time.Second)
	require.NoError(t, tm.Start(ctx))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, tm.Stop(ctx))

	elapsed, err = tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, elapsed)

	var stats Statistics
	require.NoError(t, tm.Diagnostic().Statistics(&stats))
	assert.Equal(t, Statistics{Starts: 2, Stops: 2}, stats)
}

func TestSoft_StateGates(t *testing.T) {
	tm := New("timer0", sim.NewClock(time.Unix(0, 0)))
	ctx := context.Background()

	assert.ErrorIs(t, tm.Start(ctx), hal.ErrNotInitialized)
	assert.ErrorIs(t, tm.Stop(ctx), hal.ErrNotInitialized)
	_, err := tm.Elapsed()
	assert.ErrorIs(t, err, hal.ErrNotInitialized)

	require.NoError(t, tm.Init(ctx))
	assert.ErrorIs(t, tm.Stop(ctx), hal.ErrInvalidState)
	require.NoError(t, tm.Start(ctx))
	assert.ErrorIs(t, tm.Start(ctx), hal.ErrInvalidState)
}

func TestSoft_SuspendPreservesElapsed(t *testing.T) {
	clock := sim.NewClock(time.Unix(0, 0))
	tm := runningTimer(t, clock)
	ctx := context.Background()

	require.NoError(t, tm.Start(ctx))
	clock.Advance(time.Second)
	require.NoError(t, tm.Stop(ctx))

	require.NoError(t, tm.Suspend())
	assert.ErrorIs(t, tm.Start(ctx), hal.ErrInvalidState)

	// elapsed survives the suspend/resume cycle untouched
	elapsed, err := tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, time.Second, elapsed)

	require.NoError(t, tm.Resume())
	elapsed, err = tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, time.Second, elapsed)
	require.NoError(t, tm.Start(ctx))
}

func TestSoft_InitResetsDomainState(t *testing.T) {
	clock := sim.NewClock(time.Unix(0, 0))
	tm := runningTimer(t, clock)
	ctx := context.Background()

	require.NoError(t, tm.Start(ctx))
	clock.Advance(time.Second)
	require.NoError(t, tm.Stop(ctx))
	require.NoError(t, tm.Deinit(ctx))

	require.NoError(t, tm.Init(ctx))
	elapsed, err := tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), elapsed)

	var stats Statistics
	require.NoError(t, tm.Diagnostic().Statistics(&stats))
	assert.Equal(t, Statistics{}, stats)
}

func TestSoft_DiagnosticViews(t *testing.T) {
	clock := sim.NewClock(time.Unix(0, 0))
	tm := runningTimer(t, clock)
	ctx := context.Background()
	require.NoError(t, tm.Start(ctx))
	clock.Advance(250 * time.Millisecond)

	var status Status
	require.NoError(t, tm.Diagnostic().Status(&status))
	assert.Equal(t, Status{State: hal.StateRunning, Running: true, Elapsed: 250 * time.Millisecond}, status)

	assert.ErrorIs(t, tm.Diagnostic().Status(nil), hal.ErrInvalidParameter)
	assert.ErrorIs(t, tm.Diagnostic().Statistics(&status), hal.ErrInvalidParameter)

	require.NoError(t, tm.Diagnostic().ClearStatistics())
	var stats Statistics
	require.NoError(t, tm.Diagnostic().Statistics(&stats))
	assert.Equal(t, Statistics{}, stats)
}

func TestSoft_DefaultsToWallClock(t *testing.T) {
	tm := New("timer0", nil)
	require.NoError(t, tm.Init(context.Background()))
	require.NoError(t, tm.Start(context.Background()))
	elapsed, err := tm.Elapsed()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
}
