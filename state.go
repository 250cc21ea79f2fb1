package hal

// DeviceState is the lifecycle state of a constructed device instance.
type DeviceState int

const (
	// StateUninitialized is the state of a freshly constructed device and
	// the state Deinit returns it to.
	StateUninitialized DeviceState = iota
	// StateRunning means the device accepts domain operations.
	StateRunning
	// StateSuspended freezes the device without destroying any of its
	// configuration or counters.
	StateSuspended
	// StateError is reported defensively when the state block is absent or
	// corrupt. It is never a designed transition target.
	StateError
)

func (s DeviceState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateError:
		return "error"
	}
	return "unknown"
}
