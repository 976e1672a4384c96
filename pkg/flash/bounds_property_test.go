//go:build property
// +build property

// Package flash_test contains property-based tests for partition bounds
// enforcement.
package flash_test

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/flash"
)

const propPartitionSize = 256

// accessRecorder counts mutating device calls so properties can assert the
// accessor rejected a request without reaching the driver.
type accessRecorder struct {
	*flash.MemDevice
	writes int
	erases int
}

func (d *accessRecorder) WriteAt(p []byte, off int64) (int, error) {
	d.writes++
	return d.MemDevice.WriteAt(p, off)
}

func (d *accessRecorder) Erase(off, length int64) error {
	d.erases++
	return d.MemDevice.Erase(off, length)
}

func newPropArea() (*flash.Area, *accessRecorder) {
	dev := &accessRecorder{MemDevice: flash.NewMemDevice(1024, 4, 0xff)}
	table, err := flash.NewTable([]flash.Partition{
		{ID: 1, Label: "slot1", Offset: 128, Size: propPartitionSize, Device: dev},
	})
	if err != nil {
		panic(err)
	}
	area, err := flash.Open(table, 1)
	if err != nil {
		panic(err)
	}
	return area, dev
}

// TestWriteBoundsProperty verifies every write either stays inside the
// partition or fails before the device sees it.
func TestWriteBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("out-of-range writes fail without device access", prop.ForAll(
		func(off, length int64) bool {
			area, dev := newPropArea()
			err := area.Write(off, make([]byte, length))

			if off < 0 || off+length > propPartitionSize {
				return errors.Is(err, errors.ErrOutOfBounds) && dev.writes == 0
			}
			return err == nil && dev.writes == 1
		},
		gen.Int64Range(-64, 600),
		gen.Int64Range(0, 600),
	))

	properties.TestingRun(t)
}

// TestEraseBoundsProperty verifies the same contract for erase requests.
func TestEraseBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("out-of-range erases fail without device access", prop.ForAll(
		func(off, length int64) bool {
			area, dev := newPropArea()
			err := area.Erase(off, length)

			if off < 0 || length < 0 || off+length > propPartitionSize {
				return errors.Is(err, errors.ErrOutOfBounds) && dev.erases == 0
			}
			return err == nil && dev.erases == 1
		},
		gen.Int64Range(-64, 600),
		gen.Int64Range(-64, 600),
	))

	properties.TestingRun(t)
}

// TestWriteReadRoundTripProperty verifies in-bounds writes always read back
// the same bytes.
func TestWriteReadRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("in-bounds writes read back identical bytes", prop.ForAll(
		func(off int64, raw []int) bool {
			area, _ := newPropArea()
			data := make([]byte, len(raw))
			for i, v := range raw {
				data[i] = byte(v)
			}

			if err := area.Write(off, data); err != nil {
				return false
			}
			got := make([]byte, len(data))
			if err := area.Read(off, got); err != nil {
				return false
			}
			return bytes.Equal(got, data)
		},
		gen.Int64Range(0, propPartitionSize-64),
		gen.SliceOfN(64, gen.IntRange(0, 255)),
	))

	properties.TestingRun(t)
}
