package seriallink

import (
	"errors"
	"fmt"
)

// Operation errors
var (
	// ErrTimeout reports an I/O call that exceeded its bound. The serve
	// loop treats it as idle; maintenance operations treat it as failure.
	ErrTimeout = errors.New("timeout")

	// ErrClaimed reports an attempt to open a device that already has an
	// open Link in this process.
	ErrClaimed = errors.New("device already claimed")
)

// OpenError reports a failed serial bring-up: the device could not be
// opened, the speed could not be negotiated, or hardware flow control
// could not be enabled. The first underlying error is preserved through
// cleanup.
type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open serial %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Is allows errors.Is comparison against an untyped *OpenError target.
func (e *OpenError) Is(target error) bool {
	_, ok := target.(*OpenError)
	return ok
}
