package boot

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/flash"
)

// SlotConfig maps a bootloader (image, slot) pair onto a partition.
type SlotConfig struct {
	Image     int
	Slot      int
	Partition uint8
}

// FlashInfo reads slot metadata straight from the image headers in flash.
// Every Slots call is a fresh scan. Pending marks live in memory only;
// persisting them across boots is the bootloader's own business.
type FlashInfo struct {
	mu      sync.Mutex
	table   *flash.Table
	slots   []SlotConfig
	active  int
	pending map[[2]int]bool
}

// NewFlashInfo builds a metadata source over the given slot map. activeSlot
// is the slot number the running image occupies.
func NewFlashInfo(table *flash.Table, slots []SlotConfig, activeSlot int) *FlashInfo {
	return &FlashInfo{
		table:   table,
		slots:   append([]SlotConfig(nil), slots...),
		active:  activeSlot,
		pending: make(map[[2]int]bool),
	}
}

// Slots scans every configured slot. Slots without a valid image header are
// left out of the list.
func (f *FlashInfo) Slots(ctx context.Context) ([]Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := make([]Slot, 0, len(f.slots))
	for _, sc := range f.slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot, ok, err := f.readSlot(sc)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("image %d slot %d", sc.Image, sc.Slot))
		}
		if !ok {
			continue
		}
		list = append(list, slot)
	}
	return list, nil
}

func (f *FlashInfo) readSlot(sc SlotConfig) (Slot, bool, error) {
	area, err := flash.Open(f.table, sc.Partition)
	if err != nil {
		return Slot{}, false, err
	}
	defer area.Close()

	raw := make([]byte, HeaderSize)
	if err := area.Read(0, raw); err != nil {
		return Slot{}, false, err
	}
	hdr, err := ParseHeader(raw)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Slot{}, false, nil
		}
		if errors.Is(err, errors.ErrValidation) {
			slog.Warn("slot_header_corrupt", "image", sc.Image, "slot", sc.Slot, "error", err)
			return Slot{}, false, nil
		}
		return Slot{}, false, err
	}
	total := hdr.TotalSize()
	if total > area.Size() {
		slog.Warn("image_overruns_slot", "image", sc.Image, "slot", sc.Slot, "image_size", total, "slot_size", area.Size())
		return Slot{}, false, nil
	}

	sum := sha256.New()
	buf := make([]byte, 4096)
	for off := int64(0); off < total; {
		n := int64(len(buf))
		if total-off < n {
			n = total - off
		}
		if err := area.Read(off, buf[:n]); err != nil {
			return Slot{}, false, err
		}
		sum.Write(buf[:n])
		off += n
	}

	slot := Slot{
		Image:   sc.Image,
		Slot:    sc.Slot,
		Version: hdr.Version(),
	}
	copy(slot.Hash[:], sum.Sum(nil))
	active := sc.Slot == f.active
	slot.Flags = Flags{
		Active:    active,
		Bootable:  true,
		Confirmed: active,
		Pending:   f.pending[[2]int{sc.Image, sc.Slot}],
	}
	return slot, true, nil
}

// MarkPending flags the image in the given slot for test on the next boot.
func (f *FlashInfo) MarkPending(image, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sc := range f.slots {
		if sc.Image == image && sc.Slot == slot {
			f.pending[[2]int{image, slot}] = true
			slog.Info("slot_marked_pending", "image", image, "slot", slot)
			return nil
		}
	}
	return fmt.Errorf("image %d slot %d: %w", image, slot, errors.ErrNotFound)
}
