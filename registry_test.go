package hal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor(name string, constructs *int) *Descriptor {
	return NewDescriptor(name, KindTimer, nil,
		func(d *Descriptor) (Device, error) {
			if constructs != nil {
				*constructs++
			}
			return NewCore(d.Name, d.Kind, Hooks{}), nil
		}, nil)
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		descs    []*Descriptor
		expected error
	}{
		{
			name:     "nil descriptor",
			descs:    []*Descriptor{nil},
			expected: ErrNilArgument,
		},
		{
			name:     "empty name",
			descs:    []*Descriptor{testDescriptor("", nil)},
			expected: ErrInvalidParameter,
		},
		{
			name: "missing constructor",
			descs: []*Descriptor{
				NewDescriptor("dev0", KindBus, nil, nil, nil),
			},
			expected: ErrInvalidParameter,
		},
		{
			name: "duplicate name",
			descs: []*Descriptor{
				testDescriptor("dev0", nil),
				testDescriptor("dev0", nil),
			},
			expected: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descs...)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestRegistry_AcquireConstructsOnce(t *testing.T) {
	constructs := 0
	reg, err := NewRegistry(testDescriptor("timer0", &constructs))
	require.NoError(t, err)

	first, err := reg.Acquire("timer0")
	require.NoError(t, err)
	second, err := reg.Acquire("timer0")
	require.NoError(t, err)

	assert.Same(t, first.(*Core), second.(*Core))
	assert.Equal(t, 1, constructs)
	assert.Equal(t, uint(2), reg.Find("timer0").Refs())
}

func TestRegistry_AcquireUnknown(t *testing.T) {
	reg, err := NewRegistry(testDescriptor("timer0", nil))
	require.NoError(t, err)
	_, err = reg.Acquire("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ConstructFailureLeavesDescriptorUntouched(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	desc := NewDescriptor("dev0", KindBus, nil,
		func(d *Descriptor) (Device, error) {
			if fail {
				return nil, boom
			}
			return NewCore(d.Name, d.Kind, Hooks{}), nil
		}, nil)
	reg, err := NewRegistry(desc)
	require.NoError(t, err)

	_, err = reg.Acquire("dev0")
	assert.ErrorIs(t, err, ErrConstructionFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, desc.Constructed())
	assert.Equal(t, uint(0), desc.Refs())
	assert.Nil(t, desc.Device())

	// the failure is not sticky
	fail = false
	dev, err := reg.Acquire("dev0")
	require.NoError(t, err)
	assert.Equal(t, "dev0", dev.Name())
	assert.True(t, desc.Constructed())
}

func TestRegistry_NilDeviceFromConstructor(t *testing.T) {
	desc := NewDescriptor("dev0", KindBus, nil,
		func(d *Descriptor) (Device, error) { return nil, nil }, nil)
	reg, err := NewRegistry(desc)
	require.NoError(t, err)
	_, err = reg.Acquire("dev0")
	assert.ErrorIs(t, err, ErrConstructionFailed)
	assert.False(t, desc.Constructed())
}

func TestRegistry_ReleaseNeverTearsDown(t *testing.T) {
	constructs := 0
	reg, err := NewRegistry(testDescriptor("timer0", &constructs))
	require.NoError(t, err)

	dev, err := reg.Acquire("timer0")
	require.NoError(t, err)
	require.NoError(t, reg.Release(dev))

	desc := reg.Find("timer0")
	assert.Equal(t, uint(0), desc.Refs())
	assert.True(t, desc.Constructed(), "release must not destruct")

	// reacquire returns the same instance without a new construct
	again, err := reg.Acquire("timer0")
	require.NoError(t, err)
	assert.Same(t, dev.(*Core), again.(*Core))
	assert.Equal(t, 1, constructs)
}

func TestRegistry_ReleaseErrors(t *testing.T) {
	reg, err := NewRegistry(testDescriptor("timer0", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Release(nil), ErrNilArgument)

	stranger := NewCore("stranger", KindBus, Hooks{})
	assert.ErrorIs(t, reg.Release(stranger), ErrNilArgument)
}

func TestRegistry_Teardown(t *testing.T) {
	constructs := 0
	destructs := 0
	desc := NewDescriptor("dev0", KindBus, nil,
		func(d *Descriptor) (Device, error) {
			constructs++
			return NewCore(d.Name, d.Kind, Hooks{}), nil
		},
		func(d *Descriptor) error { destructs++; return nil })
	reg, err := NewRegistry(desc)
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Teardown("nope"), ErrNotFound)
	assert.ErrorIs(t, reg.Teardown("dev0"), ErrNotInitialized)

	dev, err := reg.Acquire("dev0")
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Teardown("dev0"), ErrInvalidState)

	require.NoError(t, reg.Release(dev))
	require.NoError(t, reg.Teardown("dev0"))
	assert.Equal(t, 1, destructs)
	assert.False(t, desc.Constructed())
	assert.Nil(t, desc.Device())

	// a later acquire constructs afresh
	_, err = reg.Acquire("dev0")
	require.NoError(t, err)
	assert.Equal(t, 2, constructs)
}

func TestRegistry_CloseReverseOrder(t *testing.T) {
	var order []string
	mk := func(name string) *Descriptor {
		return NewDescriptor(name, KindBus, nil,
			func(d *Descriptor) (Device, error) { return NewCore(d.Name, d.Kind, Hooks{}), nil },
			func(d *Descriptor) error { order = append(order, d.Name); return nil })
	}
	reg, err := NewRegistry(mk("a"), mk("b"), mk("c"))
	require.NoError(t, err)

	_, err = reg.Acquire("a")
	require.NoError(t, err)
	_, err = reg.Acquire("c")
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	assert.Equal(t, []string{"c", "a"}, order)
}

func TestRegistry_CloseCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	bad := NewDescriptor("bad", KindBus, nil,
		func(d *Descriptor) (Device, error) { return NewCore(d.Name, d.Kind, Hooks{}), nil },
		func(d *Descriptor) error { return boom })
	reg, err := NewRegistry(bad, testDescriptor("good", nil))
	require.NoError(t, err)

	_, err = reg.Acquire("bad")
	require.NoError(t, err)
	_, err = reg.Acquire("good")
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Close(), boom)
}

func TestRegistry_Enumerate(t *testing.T) {
	reg, err := NewRegistry(
		testDescriptor("a", nil),
		testDescriptor("b", nil),
		testDescriptor("c", nil),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Count())
	assert.Equal(t, 0, reg.Enumerate(nil))

	short := make([]DeviceInfo, 2)
	assert.Equal(t, 2, reg.Enumerate(short))
	assert.Equal(t, "a", short[0].Name)
	assert.Equal(t, "b", short[1].Name)

	full := make([]DeviceInfo, 5)
	n := reg.Enumerate(full)
	assert.Equal(t, 3, n)
	for i, info := range full[:n] {
		assert.Equal(t, reg.Get(i).Name, info.Name)
		assert.Equal(t, KindTimer, info.Kind)
	}
	assert.Nil(t, reg.Get(7))
}

func TestConfig_Getters(t *testing.T) {
	cfg := Config{
		"name":    "dev0",
		"address": 0x21,
		"float":   33.0,
		"flag":    true,
		"wait":    "150ms",
	}
	assert.Equal(t, "dev0", cfg.String("name", "def"))
	assert.Equal(t, "def", cfg.String("missing", "def"))
	assert.Equal(t, 0x21, cfg.Int("address", 0))
	assert.Equal(t, 33, cfg.Int("float", 0))
	assert.Equal(t, byte(0x21), cfg.Byte("address", 0))
	assert.Equal(t, byte(0x48), cfg.Byte("missing", 0x48))
	assert.True(t, cfg.Bool("flag", false))
	assert.Equal(t, "150ms", fmt.Sprint(cfg.Duration("wait", 0)))

	clone := cfg.Clone()
	clone["address"] = 0x22
	assert.Equal(t, 0x21, cfg.Int("address", 0))
}
