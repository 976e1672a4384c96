package flash

import (
	"io"
	"sync"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// MemDevice is an in-memory Device for tests and simulated boards.
type MemDevice struct {
	mu        sync.RWMutex
	data      []byte
	blockSize int
	erased    byte
	ready     bool
}

// NewMemDevice returns a device of the given capacity with every cell set
// to the erased value.
func NewMemDevice(size int64, blockSize int, erased byte) *MemDevice {
	data := make([]byte, size)
	for i := range data {
		data[i] = erased
	}
	return &MemDevice{
		data:      data,
		blockSize: blockSize,
		erased:    erased,
		ready:     true,
	}
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if off < 0 || off > int64(len(d.data)) {
		return 0, &errors.DeviceError{Code: DeviceCodeRange}
	}
	n := copy(p, d.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off > int64(len(d.data))-int64(len(p)) {
		return 0, &errors.DeviceError{Code: DeviceCodeRange}
	}
	return copy(d.data[off:], p), nil
}

func (d *MemDevice) Erase(off, length int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || length < 0 || off > int64(len(d.data))-length {
		return &errors.DeviceError{Code: DeviceCodeRange}
	}
	for i := off; i < off+length; i++ {
		d.data[i] = d.erased
	}
	return nil
}

func (d *MemDevice) Size() int64 {
	return int64(len(d.data))
}

func (d *MemDevice) WriteBlockSize() int {
	return d.blockSize
}

func (d *MemDevice) ErasedValue() byte {
	return d.erased
}

func (d *MemDevice) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// SetReady flips device readiness, for driving missing-driver paths.
func (d *MemDevice) SetReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = ready
}
