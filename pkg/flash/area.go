package flash

import (
	"fmt"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Area is a handle to one partition. Every access is checked against the
// partition bounds before the device is touched; device errors pass
// through unchanged.
type Area struct {
	p *Partition
}

// Open looks up the partition and verifies its device is usable.
func Open(t *Table, id uint8) (*Area, error) {
	p, ok := t.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("flash area %d: %w", id, errors.ErrNotFound)
	}
	if !p.Device.Ready() {
		return nil, fmt.Errorf("flash area %d (%s): %w", id, p.Label, errors.ErrDeviceNotReady)
	}
	return &Area{p: p}, nil
}

func (a *Area) checkBounds(off, length int64) error {
	if off < 0 || length < 0 || off > a.p.Size-length {
		return fmt.Errorf("range [%d, %d) outside partition %d of %d bytes: %w",
			off, off+length, a.p.ID, a.p.Size, errors.ErrOutOfBounds)
	}
	return nil
}

// Read fills dst from the partition starting at off.
func (a *Area) Read(off int64, dst []byte) error {
	if err := a.checkBounds(off, int64(len(dst))); err != nil {
		return err
	}
	_, err := a.p.Device.ReadAt(dst, a.p.Offset+off)
	return err
}

// Write stores src into the partition starting at off.
func (a *Area) Write(off int64, src []byte) error {
	if err := a.checkBounds(off, int64(len(src))); err != nil {
		return err
	}
	_, err := a.p.Device.WriteAt(src, a.p.Offset+off)
	return err
}

// Erase resets [off, off+length) to the erased value.
func (a *Area) Erase(off, length int64) error {
	if err := a.checkBounds(off, length); err != nil {
		return err
	}
	return a.p.Device.Erase(a.p.Offset+off, length)
}

// Align returns the minimum write granularity of the backing device.
func (a *Area) Align() int {
	return a.p.Device.WriteBlockSize()
}

// ErasedValue returns the byte value erased cells read back as.
func (a *Area) ErasedValue() byte {
	return a.p.Device.ErasedValue()
}

// HasDriver reports whether the backing device is usable. It only probes,
// it never mutates device state.
func (a *Area) HasDriver() bool {
	return a.p.Device.Ready()
}

// Size returns the partition size in bytes.
func (a *Area) Size() int64 {
	return a.p.Size
}

// ID returns the partition id.
func (a *Area) ID() uint8 {
	return a.p.ID
}

// Label returns the partition label.
func (a *Area) Label() string {
	return a.p.Label
}

// Close releases the handle. Nothing to do device-side for now.
func (a *Area) Close() {}
