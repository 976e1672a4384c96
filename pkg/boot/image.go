// Package boot exposes bootloader slot metadata read from the image
// headers in flash.
package boot

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Image header layout, little-endian, as the bootloader expects it at the
// start of every slot.
const (
	HeaderMagic uint32 = 0x96f3b83d
	HeaderSize         = 32
)

// Header describes one image.
type Header struct {
	LoadAddr      uint32
	HdrSize       uint16
	ProtectTLVLen uint16
	ImageSize     uint32
	Flags         uint32
	Major         uint8
	Minor         uint8
	Revision      uint16
	Build         uint32
}

// ParseHeader decodes a slot header. A wrong magic means the slot holds no
// image and maps to ErrNotFound.
func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("header needs %d bytes, got %d: %w", HeaderSize, len(raw), errors.ErrValidation)
	}
	if magic := binary.LittleEndian.Uint32(raw[0:4]); magic != HeaderMagic {
		return nil, fmt.Errorf("image magic %#x: %w", magic, errors.ErrNotFound)
	}
	h := &Header{
		LoadAddr:      binary.LittleEndian.Uint32(raw[4:8]),
		HdrSize:       binary.LittleEndian.Uint16(raw[8:10]),
		ProtectTLVLen: binary.LittleEndian.Uint16(raw[10:12]),
		ImageSize:     binary.LittleEndian.Uint32(raw[12:16]),
		Flags:         binary.LittleEndian.Uint32(raw[16:20]),
		Major:         raw[20],
		Minor:         raw[21],
		Revision:      binary.LittleEndian.Uint16(raw[22:24]),
		Build:         binary.LittleEndian.Uint32(raw[24:28]),
	}
	if h.HdrSize < HeaderSize {
		return nil, fmt.Errorf("header size %d below minimum %d: %w", h.HdrSize, HeaderSize, errors.ErrValidation)
	}
	return h, nil
}

// Version renders the header version. Build metadata is omitted when zero.
func (h *Header) Version() string {
	if h.Build == 0 {
		return fmt.Sprintf("%d.%d.%d", h.Major, h.Minor, h.Revision)
	}
	return fmt.Sprintf("%d.%d.%d+%d", h.Major, h.Minor, h.Revision, h.Build)
}

// TotalSize returns the full image extent, header plus payload.
func (h *Header) TotalSize() int64 {
	return int64(h.HdrSize) + int64(h.ImageSize)
}

// BuildImage assembles header plus payload into image bytes. The version
// must be a semantic version whose fields fit the header; build metadata
// must be numeric when present.
func BuildImage(version string, payload []byte) ([]byte, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("version %q: %w", version, errors.ErrValidation)
	}
	var build uint64
	if m := v.Metadata(); m != "" {
		build, err = strconv.ParseUint(m, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("version %q build metadata is not numeric: %w", version, errors.ErrValidation)
		}
	}
	if v.Major() > 255 || v.Minor() > 255 || v.Patch() > 65535 {
		return nil, fmt.Errorf("version %q does not fit the header fields: %w", version, errors.ErrValidation)
	}

	img := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(img[0:4], HeaderMagic)
	binary.LittleEndian.PutUint16(img[8:10], HeaderSize)
	binary.LittleEndian.PutUint32(img[12:16], uint32(len(payload)))
	img[20] = uint8(v.Major())
	img[21] = uint8(v.Minor())
	binary.LittleEndian.PutUint16(img[22:24], uint16(v.Patch()))
	binary.LittleEndian.PutUint32(img[24:28], uint32(build))
	copy(img[HeaderSize:], payload)
	return img, nil
}
