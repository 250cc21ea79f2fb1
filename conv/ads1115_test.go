package conv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/sim"
)

func simConverter(t *testing.T) (*ADS1115, *sim.ADC) {
	t.Helper()
	bus := sim.NewBus()
	model := sim.NewADC()
	bus.Attach(DefaultADS1115Address, model)
	return New("adc0", bus, DefaultADS1115Address), model
}

func TestADS1115_ReadChannel(t *testing.T) {
	adc, model := simConverter(t)
	ctx := context.Background()
	require.NoError(t, adc.Init(ctx))

	require.NoError(t, model.SetVoltage(0, 1.024))
	require.NoError(t, model.SetVoltage(2, -0.512))

	v, err := adc.ReadChannel(ctx, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.024, v, 0.001)

	v, err = adc.ReadChannel(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, -0.512, v, 0.001)

	v, err = adc.ReadChannel(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 0.001)

	var stats Statistics
	require.NoError(t, adc.Diagnostic().Statistics(&stats))
	assert.Equal(t, uint32(3), stats.Conversions)
}

func TestADS1115_ChannelRange(t *testing.T) {
	adc, _ := simConverter(t)
	ctx := context.Background()
	require.NoError(t, adc.Init(ctx))

	_, err := adc.ReadChannel(ctx, -1)
	assert.ErrorIs(t, err, hal.ErrInvalidParameter)
	_, err = adc.ReadChannel(ctx, ChannelCount)
	assert.ErrorIs(t, err, hal.ErrInvalidParameter)
}

func TestADS1115_StateGates(t *testing.T) {
	adc, _ := simConverter(t)
	ctx := context.Background()

	_, err := adc.ReadChannel(ctx, 0)
	assert.ErrorIs(t, err, hal.ErrNotInitialized)

	require.NoError(t, adc.Init(ctx))
	require.NoError(t, adc.Suspend())
	_, err = adc.ReadChannel(ctx, 0)
	assert.ErrorIs(t, err, hal.ErrInvalidState)
}

func TestADS1115_InitProbesDevice(t *testing.T) {
	// no model attached at the address
	adc := New("adc0", sim.NewBus(), DefaultADS1115Address)
	err := adc.Init(context.Background())
	assert.ErrorIs(t, err, hal.ErrNotFound)
	assert.Equal(t, hal.StateUninitialized, adc.State())
}

func TestADS1115_Descriptor(t *testing.T) {
	bus := sim.NewBus()
	model := sim.NewADC()
	bus.Attach(0x49, model)

	reg, err := hal.NewRegistry(NewDescriptor("adc0", bus, hal.Config{"address": 0x49}))
	require.NoError(t, err)
	dev, err := hal.AcquireConverter(reg, "adc0")
	require.NoError(t, err)
	require.NoError(t, dev.Lifecycle().Init(context.Background()))

	require.NoError(t, model.SetVoltage(3, 2.0))
	v, err := dev.ReadChannel(context.Background(), 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 0.001)
}
