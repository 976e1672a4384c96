// Package errors provides error wrapping utilities and the error kinds
// shared across the update pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Kinds returned by the flash, target and download layers. Callers match
// them with errors.Is.
var (
	// ErrValidation marks malformed caller input, such as an URI without a
	// scheme separator.
	ErrValidation = errors.New("validation failed")

	// ErrResource marks input that exceeds a fixed capacity.
	ErrResource = errors.New("resource exhausted")

	// ErrNotFound marks a lookup miss, such as an unknown partition id.
	ErrNotFound = errors.New("not found")

	// ErrDeviceNotReady marks a partition whose backing device is not
	// usable.
	ErrDeviceNotReady = errors.New("device not ready")

	// ErrOutOfBounds marks an access outside the partition range. The
	// device is never touched on this path.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrOperation marks an operation attempted in a state that does not
	// permit it.
	ErrOperation = errors.New("operation not permitted")

	// ErrNotReady marks a query against a target that was never
	// initialized.
	ErrNotReady = errors.New("not ready")

	// ErrEncoding marks a rendering failure, such as a hash destination
	// buffer that is too small.
	ErrEncoding = errors.New("encoding failed")
)

// DeviceError carries a driver status code from a failed device operation.
// The flash accessor propagates it unchanged.
type DeviceError struct {
	Code int
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("device error %d", e.Code)
	}
	return fmt.Sprintf("device error %d: %v", e.Code, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
