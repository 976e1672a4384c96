package flash

import (
	"fmt"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Partition is one fixed region of a Device.
type Partition struct {
	ID     uint8
	Label  string
	Offset int64
	Size   int64
	Device Device
}

// Table is the partition layout. It is built once at composition time and
// shared read-only afterwards.
type Table struct {
	parts []Partition
	byID  map[uint8]int
}

// NewTable validates the layout and builds the id lookup. Every partition
// must sit entirely inside its device.
func NewTable(parts []Partition) (*Table, error) {
	t := &Table{
		parts: make([]Partition, len(parts)),
		byID:  make(map[uint8]int, len(parts)),
	}
	copy(t.parts, parts)
	for i, p := range t.parts {
		if p.Device == nil {
			return nil, fmt.Errorf("partition %d (%s) has no device: %w", p.ID, p.Label, errors.ErrValidation)
		}
		if p.Offset < 0 || p.Size <= 0 || p.Offset > p.Device.Size()-p.Size {
			return nil, fmt.Errorf("partition %d (%s) range [%#x, %#x) overruns device of %d bytes: %w",
				p.ID, p.Label, p.Offset, p.Offset+p.Size, p.Device.Size(), errors.ErrValidation)
		}
		if _, dup := t.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate partition id %d: %w", p.ID, errors.ErrValidation)
		}
		t.byID[p.ID] = i
	}
	return t, nil
}

// Lookup returns the partition with the given id.
func (t *Table) Lookup(id uint8) (*Partition, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.parts[i], true
}

// ForEach calls fn for every partition in layout order until fn returns
// false.
func (t *Table) ForEach(fn func(*Partition) bool) {
	for i := range t.parts {
		if !fn(&t.parts[i]) {
			return
		}
	}
}

// Len returns the number of partitions.
func (t *Table) Len() int {
	return len(t.parts)
}
