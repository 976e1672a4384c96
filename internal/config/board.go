package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceConfig describes one flash device. An empty path means the device
// is simulated in memory; otherwise it is backed by the file at path.
type DeviceConfig struct {
	Name           string `yaml:"name"`
	Path           string `yaml:"path"`
	Size           int64  `yaml:"size"`
	WriteBlockSize int    `yaml:"write-block-size"`
	EraseValue     uint8  `yaml:"erase-value"`
}

// PartitionConfig places one partition on a named device.
type PartitionConfig struct {
	ID     uint8  `yaml:"id"`
	Device string `yaml:"device"`
	Offset int64  `yaml:"offset"`
	Size   int64  `yaml:"size"`
	Label  string `yaml:"label"`
}

// SlotMapping binds a bootloader image slot to a partition.
type SlotMapping struct {
	Image     int   `yaml:"image"`
	Slot      int   `yaml:"slot"`
	Partition uint8 `yaml:"partition"`
}

// Board is the full flash layout loaded from the board file.
type Board struct {
	Devices    []DeviceConfig    `yaml:"devices"`
	Partitions []PartitionConfig `yaml:"partitions"`
	Slots      []SlotMapping     `yaml:"slots"`
	ActiveSlot int               `yaml:"active-slot"`
}

// LoadBoard reads and validates the board layout file
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file %s: %w", path, err)
	}

	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse board file %s: %w", path, err)
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("board file %s: %w", path, err)
	}
	return &b, nil
}

// Validate checks the layout for referential errors. Offset and size
// bounds against the devices are enforced when the partition table is
// built.
func (b *Board) Validate() error {
	if len(b.Devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}

	devices := make(map[string]bool, len(b.Devices))
	for _, d := range b.Devices {
		if d.Name == "" {
			return fmt.Errorf("device without a name")
		}
		if devices[d.Name] {
			return fmt.Errorf("duplicate device %s", d.Name)
		}
		if d.Size <= 0 {
			return fmt.Errorf("device %s: size must be positive", d.Name)
		}
		if d.WriteBlockSize <= 0 {
			return fmt.Errorf("device %s: write-block-size must be positive", d.Name)
		}
		devices[d.Name] = true
	}

	if len(b.Partitions) == 0 {
		return fmt.Errorf("at least one partition is required")
	}
	partitions := make(map[uint8]bool, len(b.Partitions))
	for _, p := range b.Partitions {
		if !devices[p.Device] {
			return fmt.Errorf("partition %d: unknown device %s", p.ID, p.Device)
		}
		partitions[p.ID] = true
	}

	for _, s := range b.Slots {
		if !partitions[s.Partition] {
			return fmt.Errorf("slot %d/%d: unknown partition %d", s.Image, s.Slot, s.Partition)
		}
	}
	return nil
}
