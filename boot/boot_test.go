package boot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hal"
)

func TestSequencer_RunsInPriorityOrder(t *testing.T) {
	seq := New()
	var order []string
	entry := func(name string) func() error {
		return func() error { order = append(order, name); return nil }
	}
	// registered out of order on purpose
	require.NoError(t, seq.Register(5, "late", entry("late")))
	require.NoError(t, seq.Register(1, "early", entry("early")))
	require.NoError(t, seq.Register(3, "middle", entry("middle")))
	require.NoError(t, seq.Register(3, "middle2", entry("middle2")))

	require.NoError(t, seq.Run())
	assert.Equal(t, []string{"early", "middle", "middle2", "late"}, order)
	assert.Equal(t, Stats{Total: 4, Success: 4}, seq.Stats())
	assert.True(t, seq.IsComplete())
}

func TestSequencer_ContinuesPastFailures(t *testing.T) {
	seq := New()
	boom := errors.New("boom")
	var order []string
	require.NoError(t, seq.Register(1, "first", func() error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, seq.Register(3, "failing", func() error {
		order = append(order, "failing")
		return boom
	}))
	require.NoError(t, seq.Register(5, "last", func() error {
		order = append(order, "last")
		return nil
	}))

	err := seq.Run()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []string{"first", "failing", "last"}, order)

	stats := seq.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 1, stats.Failure)
	assert.ErrorIs(t, stats.LastError, boom)
	assert.False(t, seq.IsComplete())
}

func TestSequencer_SecondRunIsNoOp(t *testing.T) {
	seq := New()
	runs := 0
	require.NoError(t, seq.Register(1, "once", func() error { runs++; return nil }))

	require.NoError(t, seq.Run())
	first := seq.Stats()

	require.NoError(t, seq.Run())
	assert.Equal(t, 1, runs)
	assert.Equal(t, first, seq.Stats())
}

func TestSequencer_RegisterValidation(t *testing.T) {
	seq := New()
	assert.ErrorIs(t, seq.Register(1, "nil", nil), hal.ErrNilArgument)

	require.NoError(t, seq.Run())
	err := seq.Register(1, "late", func() error { return nil })
	assert.ErrorIs(t, err, hal.ErrInvalidState)
}

func TestSequencer_SentinelsNeverExecute(t *testing.T) {
	seq := New()
	require.NoError(t, seq.Run())
	// only the two boundary sentinels are present and neither counts
	assert.Equal(t, Stats{}, seq.Stats())
	assert.True(t, seq.IsComplete())
}

func TestSequencer_ExtremePrioritiesRunWithSentinelsPresent(t *testing.T) {
	seq := New()
	var order []string
	require.NoError(t, seq.Register(-1000000, "very early", func() error {
		order = append(order, "very early")
		return nil
	}))
	require.NoError(t, seq.Register(1000000, "very late", func() error {
		order = append(order, "very late")
		return nil
	}))
	require.NoError(t, seq.Run())
	assert.Equal(t, []string{"very early", "very late"}, order)
	assert.Equal(t, 2, seq.Stats().Total)
}
