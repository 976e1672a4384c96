package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrapNil(t *testing.T) {
	if got := Wrap(nil, "context"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
}

func TestWrapPreservesKind(t *testing.T) {
	err := Wrap(Wrap(ErrOutOfBounds, "write"), "flash area 1")
	if !Is(err, ErrOutOfBounds) {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
	want := "flash area 1: write: out of bounds"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDeviceErrorUnwrap(t *testing.T) {
	inner := stderrors.New("short write")
	err := Wrap(&DeviceError{Code: 5, Err: inner}, "flush")

	var devErr *DeviceError
	if !As(err, &devErr) {
		t.Fatalf("As(DeviceError) failed for %v", err)
	}
	if devErr.Code != 5 {
		t.Errorf("Code = %d, want 5", devErr.Code)
	}
	if !Is(err, inner) {
		t.Errorf("chain lost the driver error: %v", err)
	}
}

func TestDeviceErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *DeviceError
		want string
	}{
		{"with cause", &DeviceError{Code: 5, Err: stderrors.New("io failure")}, "device error 5: io failure"},
		{"bare code", &DeviceError{Code: 22}, "device error 22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
