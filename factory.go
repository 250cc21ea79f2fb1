package hal

import "fmt"

// Typed convenience accessors over Registry.Acquire. When the named device
// exists but belongs to a different family, the acquisition is rolled back
// and ErrInvalidParameter reported.

func AcquireBus(r *Registry, name string) (BusDevice, error) {
	return acquireAs[BusDevice](r, name, "bus")
}

func AcquireTimer(r *Registry, name string) (TimerDevice, error) {
	return acquireAs[TimerDevice](r, name, "timer")
}

func AcquireConverter(r *Registry, name string) (ConverterDevice, error) {
	return acquireAs[ConverterDevice](r, name, "converter")
}

func AcquireStore(r *Registry, name string) (StoreDevice, error) {
	return acquireAs[StoreDevice](r, name, "store")
}

func AcquireExpander(r *Registry, name string) (ExpanderDevice, error) {
	return acquireAs[ExpanderDevice](r, name, "expander")
}

func acquireAs[T Device](r *Registry, name, family string) (T, error) {
	var zero T
	dev, err := r.Acquire(name)
	if err != nil {
		return zero, err
	}
	typed, ok := dev.(T)
	if !ok {
		_ = r.Release(dev)
		return zero, fmt.Errorf("device %q is not a %s: %w", name, family, ErrInvalidParameter)
	}
	return typed, nil
}
