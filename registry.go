package hal

import (
	"errors"
	"fmt"
)

// DeviceInfo is the enumeration record handed to operator-facing tooling.
type DeviceInfo struct {
	Name string
	Kind Kind
}

// Registry is a flat, append-only table of device descriptors assembled at
// start-up. There is no dynamic registration: the table is fixed once
// NewRegistry returns. A Registry is explicit process-scoped state; tests
// build as many independent registries as they need.
//
// The registry performs no locking. Acquire, Release and Teardown mutate
// descriptor state and assume a single logical owner at a time; callers in a
// multi-threaded environment must serialize access, typically by confining
// device bring-up to a single initialization phase.
type Registry struct {
	descs  []*Descriptor
	byName map[string]*Descriptor
}

// NewRegistry assembles the device table. Descriptors must be non-nil, carry
// a unique non-empty name and a construct entry point.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if d == nil {
			return nil, ErrNilArgument
		}
		if d.Name == "" || d.Construct == nil {
			return nil, fmt.Errorf("descriptor %q: %w", d.Name, ErrInvalidParameter)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("duplicate device %q: %w", d.Name, ErrInvalidParameter)
		}
		r.byName[d.Name] = d
		r.descs = append(r.descs, d)
	}
	return r, nil
}

// Count returns the number of registered descriptors.
func (r *Registry) Count() int { return len(r.descs) }

// Get returns the descriptor at index i, or nil when out of range.
func (r *Registry) Get(i int) *Descriptor {
	if i < 0 || i >= len(r.descs) {
		return nil
	}
	return r.descs[i]
}

// Find looks a descriptor up by exact name, returning nil when absent.
func (r *Registry) Find(name string) *Descriptor {
	return r.byName[name]
}

// Acquire returns a shared view of the named device, constructing it on the
// first acquisition. Repeat acquisitions return the same interface and bump
// the reference count; the construct entry point runs exactly once per
// construct/teardown cycle. A failing constructor leaves the descriptor
// untouched.
func (r *Registry) Acquire(name string) (Device, error) {
	d := r.Find(name)
	if d == nil {
		return nil, fmt.Errorf("device %q: %w", name, ErrNotFound)
	}
	if d.constructed {
		d.refs++
		return d.device, nil
	}
	dev, err := d.Construct(d)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w: %w", name, ErrConstructionFailed, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("device %q: constructor returned no device: %w", name, ErrConstructionFailed)
	}
	d.device = dev
	d.constructed = true
	d.refs = 1
	return dev, nil
}

// Release drops one reference to an acquired device. The device is never
// torn down here, even when the count reaches zero. It stays constructed
// and idle until an explicit Teardown or Close. Teardown is a deliberate
// operation, not a refcounting side effect.
func (r *Registry) Release(dev Device) error {
	if dev == nil {
		return ErrNilArgument
	}
	for _, d := range r.descs {
		if d.device == dev {
			if d.refs > 0 {
				d.refs--
			}
			return nil
		}
	}
	return fmt.Errorf("unknown device %q: %w", dev.Name(), ErrNilArgument)
}

// Teardown destructs an idle device, allowing a later Acquire to construct
// it afresh. Devices that are still referenced refuse with ErrInvalidState.
func (r *Registry) Teardown(name string) error {
	d := r.Find(name)
	if d == nil {
		return fmt.Errorf("device %q: %w", name, ErrNotFound)
	}
	if !d.constructed {
		return fmt.Errorf("device %q: %w", name, ErrNotInitialized)
	}
	if d.refs > 0 {
		return fmt.Errorf("device %q still acquired (%d refs): %w", name, d.refs, ErrInvalidState)
	}
	return r.teardown(d)
}

// Close tears down every constructed device regardless of reference count,
// in reverse registration order. Intended for process shutdown.
func (r *Registry) Close() error {
	var errs []error
	for i := len(r.descs) - 1; i >= 0; i-- {
		d := r.descs[i]
		if !d.constructed {
			continue
		}
		d.refs = 0
		if err := r.teardown(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) teardown(d *Descriptor) error {
	if d.Destruct != nil {
		if err := d.Destruct(d); err != nil {
			return fmt.Errorf("device %q: destruct failed: %w", d.Name, err)
		}
	}
	d.device = nil
	d.constructed = false
	return nil
}

// Enumerate fills buf with a read-only snapshot of the registered devices
// and returns the number of records written. A nil or empty buffer yields
// zero, never an error.
func (r *Registry) Enumerate(buf []DeviceInfo) int {
	n := 0
	for _, d := range r.descs {
		if n == len(buf) {
			break
		}
		buf[n] = DeviceInfo{Name: d.Name, Kind: d.Kind}
		n++
	}
	return n
}
