// Package flash models a fixed partition layout over injected block
// storage devices and provides bounds-checked access to single partitions.
package flash

import "io"

// Driver status codes reported through errors.DeviceError.
const (
	DeviceCodeIO    = 5  // mirrors EIO
	DeviceCodeRange = 34 // mirrors ERANGE
)

// Device is the block storage a partition lives on. Offsets are absolute
// device offsets; partition handles translate before calling in.
type Device interface {
	io.ReaderAt
	io.WriterAt

	// Erase resets the given range to the erased value.
	Erase(off, length int64) error

	// Size returns the device capacity in bytes.
	Size() int64

	// WriteBlockSize returns the smallest write granularity in bytes.
	WriteBlockSize() int

	// ErasedValue returns the byte value erased cells read back as.
	ErasedValue() byte

	// Ready reports whether the device can accept operations.
	Ready() bool
}
