package flash

import (
	"io"
	"os"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// FileDevice is a Device backed by a regular file, one byte per flash
// cell. A missing or short backing file is extended and filled with the
// erased value on open.
type FileDevice struct {
	f         *os.File
	size      int64
	blockSize int
	erased    byte
}

// OpenFileDevice opens or creates the backing file for a device of the
// given capacity.
func OpenFileDevice(path string, size int64, blockSize int, erased byte) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open flash backing file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat flash backing file")
	}
	if info.Size() < size {
		if err := fillErased(f, info.Size(), size, erased); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "initialize flash backing file")
		}
	}
	return &FileDevice{f: f, size: size, blockSize: blockSize, erased: erased}, nil
}

func fillErased(f *os.File, from, to int64, erased byte) error {
	buf := make([]byte, 32*1024)
	for i := range buf {
		buf[i] = erased
	}
	for off := from; off < to; {
		chunk := int64(len(buf))
		if to-off < chunk {
			chunk = to - off
		}
		n, err := f.WriteAt(buf[:chunk], off)
		if err != nil {
			return err
		}
		off += int64(n)
	}
	return nil
}

func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	n, err := d.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, &errors.DeviceError{Code: DeviceCodeIO, Err: err}
	}
	return n, err
}

func (d *FileDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > d.size-int64(len(p)) {
		return 0, &errors.DeviceError{Code: DeviceCodeRange}
	}
	n, err := d.f.WriteAt(p, off)
	if err != nil {
		return n, &errors.DeviceError{Code: DeviceCodeIO, Err: err}
	}
	return n, nil
}

func (d *FileDevice) Erase(off, length int64) error {
	if off < 0 || length < 0 || off > d.size-length {
		return &errors.DeviceError{Code: DeviceCodeRange}
	}
	if err := fillErased(d.f, off, off+length, d.erased); err != nil {
		return &errors.DeviceError{Code: DeviceCodeIO, Err: err}
	}
	return nil
}

func (d *FileDevice) Size() int64 {
	return d.size
}

func (d *FileDevice) WriteBlockSize() int {
	return d.blockSize
}

func (d *FileDevice) ErasedValue() byte {
	return d.erased
}

func (d *FileDevice) Ready() bool {
	return d.f != nil
}

// Close releases the backing file.
func (d *FileDevice) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
