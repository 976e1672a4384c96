package boot

import "context"

// Flags carries the bootloader state bits for one slot.
type Flags struct {
	Active    bool
	Bootable  bool
	Pending   bool
	Confirmed bool
}

// Slot is one entry of the bootloader image list.
type Slot struct {
	Image   int
	Slot    int
	Version string
	Hash    [32]byte
	Flags   Flags
}

// SlotState is the derived lifecycle position of a slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotActive
	SlotPending
)

var slotStateNames = map[SlotState]string{
	SlotIdle:    "idle",
	SlotActive:  "active",
	SlotPending: "pending",
}

func (s SlotState) String() string {
	if name, ok := slotStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// State classifies the slot from its flags. An active slot wins over a
// pending mark.
func (s Slot) State() SlotState {
	switch {
	case s.Flags.Active:
		return SlotActive
	case s.Flags.Pending:
		return SlotPending
	default:
		return SlotIdle
	}
}

// MetadataSource reads and updates bootloader slot metadata.
type MetadataSource interface {
	// Slots returns one fresh snapshot of the image list.
	Slots(ctx context.Context) ([]Slot, error)

	// MarkPending requests that the bootloader test the image in the
	// given slot on the next boot.
	MarkPending(image, slot int) error
}
