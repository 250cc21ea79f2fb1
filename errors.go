package hal

import "errors"

// Framework error taxonomy. Operations wrap these with fmt.Errorf("…: %w")
// so call sites can classify failures with errors.Is.
var (
	ErrNilArgument        = errors.New("nil argument")
	ErrNotFound           = errors.New("device not found")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrNotInitialized     = errors.New("device not initialized")
	ErrAlreadyInitialized = errors.New("device already initialized")
	ErrInvalidState       = errors.New("invalid device state")
	ErrResourceExhausted  = errors.New("resource exhausted")
	ErrConstructionFailed = errors.New("device construction failed")
)

// ErrBusBusy is returned by bus transports when the engine did not complete
// the previous command. Drivers typically retry after releasing the bus.
var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")
