package flash

import (
	"bytes"
	"testing"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// countingDevice records device-level accesses so tests can prove the
// accessor rejected a request before reaching the driver.
type countingDevice struct {
	*MemDevice
	reads  int
	writes int
	erases int
}

func (d *countingDevice) ReadAt(p []byte, off int64) (int, error) {
	d.reads++
	return d.MemDevice.ReadAt(p, off)
}

func (d *countingDevice) WriteAt(p []byte, off int64) (int, error) {
	d.writes++
	return d.MemDevice.WriteAt(p, off)
}

func (d *countingDevice) Erase(off, length int64) error {
	d.erases++
	return d.MemDevice.Erase(off, length)
}

func newTestArea(t *testing.T) (*Area, *countingDevice) {
	t.Helper()
	dev := &countingDevice{MemDevice: NewMemDevice(1024, 4, 0xff)}
	table, err := NewTable([]Partition{
		{ID: 1, Label: "slot1", Offset: 128, Size: 256, Device: dev},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	area, err := Open(table, 1)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return area, dev
}

func TestOpenUnknownPartition(t *testing.T) {
	dev := NewMemDevice(1024, 4, 0xff)
	table, err := NewTable([]Partition{
		{ID: 1, Label: "slot1", Offset: 0, Size: 256, Device: dev},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}

	if _, err := Open(table, 7); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Open(7) error = %v, want ErrNotFound", err)
	}
}

func TestOpenDeviceNotReady(t *testing.T) {
	dev := NewMemDevice(1024, 4, 0xff)
	dev.SetReady(false)
	table, err := NewTable([]Partition{
		{ID: 1, Label: "slot1", Offset: 0, Size: 256, Device: dev},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}

	if _, err := Open(table, 1); !errors.Is(err, errors.ErrDeviceNotReady) {
		t.Errorf("Open() error = %v, want ErrDeviceNotReady", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	area, _ := newTestArea(t)

	payload := []byte("candidate image bytes")
	if err := area.Write(32, payload); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got := make([]byte, len(payload))
	if err := area.Read(32, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Read() = %q, want %q", got, payload)
	}
}

func TestOutOfBoundsNeverTouchesDevice(t *testing.T) {
	tests := []struct {
		name string
		op   func(a *Area) error
	}{
		{"write past end", func(a *Area) error { return a.Write(250, make([]byte, 16)) }},
		{"write at negative offset", func(a *Area) error { return a.Write(-1, make([]byte, 4)) }},
		{"write larger than partition", func(a *Area) error { return a.Write(0, make([]byte, 512)) }},
		{"read past end", func(a *Area) error { return a.Read(256, make([]byte, 1)) }},
		{"erase past end", func(a *Area) error { return a.Erase(128, 256) }},
		{"erase negative length", func(a *Area) error { return a.Erase(0, -8) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area, dev := newTestArea(t)
			if err := tt.op(area); !errors.Is(err, errors.ErrOutOfBounds) {
				t.Fatalf("error = %v, want ErrOutOfBounds", err)
			}
			if dev.reads != 0 || dev.writes != 0 || dev.erases != 0 {
				t.Errorf("device accessed on rejected request: reads=%d writes=%d erases=%d",
					dev.reads, dev.writes, dev.erases)
			}
		})
	}
}

func TestEraseResetsToErasedValue(t *testing.T) {
	area, _ := newTestArea(t)

	if err := area.Write(0, bytes.Repeat([]byte{0xab}, 64)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := area.Erase(0, 64); err != nil {
		t.Fatalf("Erase() failed: %v", err)
	}

	got := make([]byte, 64)
	if err := area.Read(0, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	for i, b := range got {
		if b != area.ErasedValue() {
			t.Fatalf("byte %d = %#x after erase, want %#x", i, b, area.ErasedValue())
		}
	}
}

func TestAreaReflectsDevice(t *testing.T) {
	area, dev := newTestArea(t)

	if got := area.Align(); got != 4 {
		t.Errorf("Align() = %d, want 4", got)
	}
	if got := area.ErasedValue(); got != 0xff {
		t.Errorf("ErasedValue() = %#x, want 0xff", got)
	}
	if got := area.Size(); got != 256 {
		t.Errorf("Size() = %d, want 256", got)
	}
	if got := area.Label(); got != "slot1" {
		t.Errorf("Label() = %q, want slot1", got)
	}
	if !area.HasDriver() {
		t.Error("HasDriver() = false for a ready device")
	}
	dev.SetReady(false)
	if area.HasDriver() {
		t.Error("HasDriver() = true after device became unavailable")
	}
}

// faultDevice fails every write with a driver status code.
type faultDevice struct {
	*MemDevice
}

func (d *faultDevice) WriteAt(p []byte, off int64) (int, error) {
	return 0, &errors.DeviceError{Code: DeviceCodeIO}
}

func TestDeviceErrorPassesThroughVerbatim(t *testing.T) {
	dev := &faultDevice{MemDevice: NewMemDevice(1024, 4, 0xff)}
	table, err := NewTable([]Partition{
		{ID: 1, Label: "slot1", Offset: 0, Size: 256, Device: dev},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	area, err := Open(table, 1)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	err = area.Write(0, []byte{1, 2, 3, 4})
	var devErr *errors.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Write() error = %v, want DeviceError", err)
	}
	if devErr.Code != DeviceCodeIO {
		t.Errorf("Code = %d, want %d", devErr.Code, DeviceCodeIO)
	}
}
