package config

import (
	"os"
	"path/filepath"
	"testing"
)

const boardYAML = `
devices:
  - name: flash0
    size: 1048576
    write-block-size: 8
    erase-value: 0xff
partitions:
  - id: 1
    device: flash0
    offset: 65536
    size: 458752
    label: slot0
  - id: 2
    device: flash0
    offset: 524288
    size: 458752
    label: slot1
slots:
  - image: 0
    slot: 0
    partition: 1
  - image: 0
    slot: 1
    partition: 2
active-slot: 0
`

func writeBoard(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write board file: %v", err)
	}
	return path
}

func TestLoadBoard(t *testing.T) {
	board, err := LoadBoard(writeBoard(t, boardYAML))
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}

	if len(board.Devices) != 1 || board.Devices[0].Name != "flash0" {
		t.Fatalf("devices = %+v, want one flash0", board.Devices)
	}
	if board.Devices[0].EraseValue != 0xff {
		t.Errorf("erase value = 0x%02x, want 0xff", board.Devices[0].EraseValue)
	}
	if len(board.Partitions) != 2 || board.Partitions[1].Label != "slot1" {
		t.Fatalf("partitions = %+v, want slot0 and slot1", board.Partitions)
	}
	if len(board.Slots) != 2 || board.Slots[1].Partition != 2 {
		t.Fatalf("slots = %+v, want two mappings", board.Slots)
	}
	if board.ActiveSlot != 0 {
		t.Errorf("active slot = %d, want 0", board.ActiveSlot)
	}
}

func TestLoadBoardRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"no devices",
			"partitions:\n  - id: 1\n    device: flash0\n    offset: 0\n    size: 16\n",
		},
		{
			"duplicate device",
			"devices:\n  - name: flash0\n    size: 64\n    write-block-size: 4\n  - name: flash0\n    size: 64\n    write-block-size: 4\npartitions:\n  - id: 1\n    device: flash0\n    offset: 0\n    size: 16\n",
		},
		{
			"partition on unknown device",
			"devices:\n  - name: flash0\n    size: 64\n    write-block-size: 4\npartitions:\n  - id: 1\n    device: flash9\n    offset: 0\n    size: 16\n",
		},
		{
			"slot on unknown partition",
			"devices:\n  - name: flash0\n    size: 64\n    write-block-size: 4\npartitions:\n  - id: 1\n    device: flash0\n    offset: 0\n    size: 16\nslots:\n  - image: 0\n    slot: 0\n    partition: 9\n",
		},
		{
			"zero block size",
			"devices:\n  - name: flash0\n    size: 64\n    write-block-size: 0\npartitions:\n  - id: 1\n    device: flash0\n    offset: 0\n    size: 16\n",
		},
		{
			"not yaml",
			"{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadBoard(writeBoard(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadBoardMissingFile(t *testing.T) {
	if _, err := LoadBoard(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing board file")
	}
}
