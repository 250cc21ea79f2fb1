package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/platform"
)

func TestPlatform_BootBringsEverythingUp(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()

	require.NoError(t, p.Run())
	assert.True(t, p.Boot.IsComplete())

	for _, name := range []string{"i2c0", "gpio0", "adc0", "eeprom0", "timer0"} {
		dev, err := p.Registry.Acquire(name)
		require.NoError(t, err, name)
		assert.Equal(t, hal.StateRunning, dev.Lifecycle().State(), name)
	}
}

func TestPlatform_DevicesAreWiredToSimBackends(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()
	require.NoError(t, p.Run())
	ctx := context.Background()

	exp, err := hal.AcquireExpander(p.Registry, "gpio0")
	require.NoError(t, err)
	require.NoError(t, p.Expander.SetPins(0, 0x3C))
	a, err := exp.ReadPort(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x3C), a)

	adc, err := hal.AcquireConverter(p.Registry, "adc0")
	require.NoError(t, err)
	require.NoError(t, p.ADC.SetVoltage(1, 0.75))
	v, err := adc.ReadChannel(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 0.001)

	store, err := hal.AcquireStore(p.Registry, "eeprom0")
	require.NoError(t, err)
	require.NoError(t, store.WriteAt(ctx, 0x40, []byte{0x01, 0x02}))
	buf := make([]byte, 2)
	require.NoError(t, store.ReadAt(ctx, 0x40, buf))
	assert.Equal(t, []byte{0x01, 0x02}, buf)

	tm, err := hal.AcquireTimer(p.Registry, "timer0")
	require.NoError(t, err)
	require.NoError(t, tm.Start(ctx))
	p.Clock.Advance(2 * time.Second)
	require.NoError(t, tm.Stop(ctx))
	elapsed, err := tm.Elapsed()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, elapsed)
}

func TestPlatform_ConfigDrivesDeviceList(t *testing.T) {
	cfg := &platform.Config{Devices: []platform.DeviceConfig{
		{Name: "bus", Kind: "bus"},
		{Name: "expander", Kind: "expander", Params: map[string]any{"address": 0x25}},
	}}
	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Run())

	assert.Equal(t, 2, p.Registry.Count())
	exp, err := hal.AcquireExpander(p.Registry, "expander")
	require.NoError(t, err)
	require.NoError(t, p.Expander.SetPins(1, 0x80))
	b, err := exp.ReadPort(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), b)
}

func TestPlatform_RejectsBadLists(t *testing.T) {
	_, err := New(&platform.Config{Devices: []platform.DeviceConfig{
		{Name: "gpio0", Kind: "expander"},
	}})
	assert.ErrorIs(t, err, hal.ErrInvalidParameter, "peripheral before its bus")

	_, err = New(&platform.Config{Devices: []platform.DeviceConfig{
		{Name: "x", Kind: "teleporter"},
	}})
	assert.ErrorIs(t, err, hal.ErrInvalidParameter)

	_, err = New(&platform.Config{Devices: []platform.DeviceConfig{
		{Name: "a", Kind: "timer"},
		{Name: "a", Kind: "timer"},
	}})
	assert.ErrorIs(t, err, hal.ErrInvalidParameter, "duplicate names")
}
