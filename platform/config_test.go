package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
devices:
  - name: i2c0
    kind: bus
    params:
      device: /dev/i2c-1
  - name: gpio0
    kind: expander
    params:
      address: 0x21
      dira: 0xFF
  - name: timer0
    kind: timer
`

func TestLoad(t *testing.T) {
	cfg, err := Load(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 3)

	bus, ok := cfg.Device("i2c0")
	require.True(t, ok)
	assert.Equal(t, "bus", bus.Kind)
	assert.Equal(t, "/dev/i2c-1", bus.HalConfig().String("device", ""))

	exp, ok := cfg.Device("gpio0")
	require.True(t, ok)
	assert.Equal(t, byte(0x21), exp.HalConfig().Byte("address", 0))
	assert.Equal(t, byte(0xFF), exp.HalConfig().Byte("dira", 0))

	tm, ok := cfg.Device("timer0")
	require.True(t, ok)
	assert.Nil(t, tm.HalConfig())

	_, ok = cfg.Device("nope")
	assert.False(t, ok)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("gadgets:\n  - name: x\n"))
	assert.Error(t, err)
}

func TestLoad_Garbage(t *testing.T) {
	_, err := Load(strings.NewReader("\t:::"))
	assert.Error(t, err)
}
