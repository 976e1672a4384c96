// Package imgstate reports the state of installed images with hashes
// rendered at a fixed width for display and comparison.
package imgstate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/fota-tools/fotactl/pkg/boot"
	"github.com/fota-tools/fotactl/pkg/errors"
)

// HashHexLen is the rendered width of an image hash. Every hash is
// printed zero padded to exactly this many hex digits.
const HashHexLen = sha256.Size * 2

// EncodeHash renders hash into dst as zero padded lowercase hex followed
// by a NUL. dst needs room for the digits and the terminator; hash must
// be a full digest. It returns the number of hex digits written.
func EncodeHash(dst, hash []byte) (int, error) {
	if len(dst) < HashHexLen+1 {
		return 0, fmt.Errorf("hash buffer of %d bytes, need %d: %w", len(dst), HashHexLen+1, errors.ErrEncoding)
	}
	if len(hash) != sha256.Size {
		return 0, fmt.Errorf("hash of %d bytes, need %d: %w", len(hash), sha256.Size, errors.ErrEncoding)
	}
	hex.Encode(dst, hash)
	dst[HashHexLen] = 0
	return HashHexLen, nil
}

// HashString renders hash as a zero padded hex string.
func HashString(hash []byte) (string, error) {
	buf := make([]byte, HashHexLen+1)
	n, err := EncodeHash(buf, hash)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// SlotInfo is one slot with its hash already rendered.
type SlotInfo struct {
	Image   int
	Slot    int
	Version string
	HashHex string
	State   boot.SlotState
	Flags   boot.Flags
}

// SlotLister serves the slot metadata snapshot, normally the update
// target.
type SlotLister interface {
	ListImageSlots(ctx context.Context) ([]boot.Slot, error)
}

// Tracker lists installed images from boot metadata.
type Tracker struct {
	src SlotLister
}

// NewTracker builds a tracker over the given slot lister.
func NewTracker(src SlotLister) *Tracker {
	return &Tracker{src: src}
}

// List returns every populated slot with its rendered hash.
func (t *Tracker) List(ctx context.Context) ([]SlotInfo, error) {
	slots, err := t.src.ListImageSlots(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read slot metadata")
	}

	infos := make([]SlotInfo, 0, len(slots))
	for _, s := range slots {
		hashHex, err := HashString(s.Hash[:])
		if err != nil {
			return nil, err
		}
		infos = append(infos, SlotInfo{
			Image:   s.Image,
			Slot:    s.Slot,
			Version: s.Version,
			HashHex: hashHex,
			State:   s.State(),
			Flags:   s.Flags,
		})
	}

	slog.Debug("image_state_listed", "slot_count", len(infos))
	return infos, nil
}
