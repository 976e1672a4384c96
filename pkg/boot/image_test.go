package boot

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/fota-tools/fotactl/pkg/errors"
)

func TestBuildImageParseRoundTrip(t *testing.T) {
	payload := []byte("firmware payload")
	img, err := BuildImage("1.4.2+77", payload)
	if err != nil {
		t.Fatalf("BuildImage() failed: %v", err)
	}
	if len(img) != HeaderSize+len(payload) {
		t.Fatalf("image length = %d, want %d", len(img), HeaderSize+len(payload))
	}
	if !bytes.Equal(img[HeaderSize:], payload) {
		t.Error("payload bytes differ after assembly")
	}

	hdr, err := ParseHeader(img)
	if err != nil {
		t.Fatalf("ParseHeader() failed: %v", err)
	}
	if hdr.ImageSize != uint32(len(payload)) {
		t.Errorf("ImageSize = %d, want %d", hdr.ImageSize, len(payload))
	}
	if hdr.TotalSize() != int64(len(img)) {
		t.Errorf("TotalSize() = %d, want %d", hdr.TotalSize(), len(img))
	}
	if got := hdr.Version(); got != "1.4.2+77" {
		t.Errorf("Version() = %q, want 1.4.2+77", got)
	}
}

func TestHeaderVersionRendering(t *testing.T) {
	tests := []struct {
		name string
		hdr  Header
		want string
	}{
		{"no build metadata", Header{Major: 2, Minor: 0, Revision: 9}, "2.0.9"},
		{"with build metadata", Header{Major: 1, Minor: 2, Revision: 3, Build: 4}, "1.2.3+4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hdr.Version(); got != tt.want {
				t.Errorf("Version() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHeaderRejects(t *testing.T) {
	valid, err := BuildImage("1.0.0", []byte("x"))
	if err != nil {
		t.Fatalf("BuildImage() failed: %v", err)
	}

	badMagic := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badMagic[0:4], 0xffffffff)

	shrunkHdr := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(shrunkHdr[8:10], HeaderSize-1)

	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"short buffer", valid[:HeaderSize-1], errors.ErrValidation},
		{"erased slot magic", badMagic, errors.ErrNotFound},
		{"undersized header field", shrunkHdr, errors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("ParseHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildImageRejectsVersions(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"not a version", "latest"},
		{"non numeric build", "1.0.0+nightly"},
		{"major too wide", "300.0.0"},
		{"revision too wide", "1.0.70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildImage(tt.version, nil); !errors.Is(err, errors.ErrValidation) {
				t.Errorf("BuildImage(%q) error = %v, want ErrValidation", tt.version, err)
			}
		})
	}
}
