package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/boot"
	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/flash"
	"github.com/fota-tools/fotactl/pkg/fota"
	"github.com/fota-tools/fotactl/pkg/imgstate"
)

// ensureDirectories creates all necessary directories for the application
func ensureDirectories(sqlitePath, fsmDBPath string) error {
	// Create database directory
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	// Create FSM database directory (only needed for download command)
	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create FSM directory")
		}
	}

	return nil
}

// buildBoard turns the board layout into live devices, a partition table
// and a flash-backed metadata source. The returned closer releases every
// file-backed device.
func buildBoard(cfg *config.Config) (*config.Board, *flash.Table, *boot.FlashInfo, func(), error) {
	board, err := config.LoadBoard(cfg.BoardFile)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "board load failed")
	}

	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	devices := make(map[string]flash.Device, len(board.Devices))
	for _, d := range board.Devices {
		if d.Path == "" {
			devices[d.Name] = flash.NewMemDevice(d.Size, d.WriteBlockSize, d.EraseValue)
			continue
		}
		fd, err := flash.OpenFileDevice(d.Path, d.Size, d.WriteBlockSize, d.EraseValue)
		if err != nil {
			closeAll()
			return nil, nil, nil, nil, errors.Wrap(err, fmt.Sprintf("open flash device %s", d.Name))
		}
		closers = append(closers, func() { fd.Close() })
		devices[d.Name] = fd
	}

	layout := make([]flash.Partition, 0, len(board.Partitions))
	for _, p := range board.Partitions {
		layout = append(layout, flash.Partition{
			ID:     p.ID,
			Label:  p.Label,
			Offset: p.Offset,
			Size:   p.Size,
			Device: devices[p.Device],
		})
	}
	table, err := flash.NewTable(layout)
	if err != nil {
		closeAll()
		return nil, nil, nil, nil, errors.Wrap(err, "partition table invalid")
	}

	slots := make([]boot.SlotConfig, 0, len(board.Slots))
	for _, s := range board.Slots {
		slots = append(slots, boot.SlotConfig{Image: s.Image, Slot: s.Slot, Partition: s.Partition})
	}
	info := boot.NewFlashInfo(table, slots, board.ActiveSlot)

	return board, table, info, closeAll, nil
}

// stagingPartition resolves the partition backing the given slot of image 0.
func stagingPartition(board *config.Board, slot int) (uint8, error) {
	for _, s := range board.Slots {
		if s.Image == 0 && s.Slot == slot {
			return s.Partition, nil
		}
	}
	return 0, fmt.Errorf("no partition mapped for slot %d: %w", slot, errors.ErrNotFound)
}

// newDownloadClient picks the transport the orchestrator downloads with.
func newDownloadClient(ctx context.Context, cfg *config.Config) (fota.Client, error) {
	switch cfg.Transport {
	case config.TransportHTTPS, config.TransportHTTP:
		return fota.NewHTTPClient(cfg.Transport, cfg.FragmentSize), nil
	case config.TransportS3:
		return fota.NewS3Client(ctx, cfg.S3Region, cfg.S3Anonymous, cfg.FragmentSize)
	default:
		return nil, fmt.Errorf("unknown transport %s: %w", cfg.Transport, errors.ErrValidation)
	}
}

// printSlots renders an image slot list for the terminal.
func printSlots(infos []imgstate.SlotInfo) {
	if len(infos) == 0 {
		fmt.Println("No images found")
		return
	}

	fmt.Printf("%-6s %-5s %-9s %-12s %-64s %s\n", "IMAGE", "SLOT", "STATE", "VERSION", "HASH", "FLAGS")
	fmt.Println(strings.Repeat("-", 120))

	for _, info := range infos {
		var flags []string
		if info.Flags.Active {
			flags = append(flags, "active")
		}
		if info.Flags.Bootable {
			flags = append(flags, "bootable")
		}
		if info.Flags.Pending {
			flags = append(flags, "pending")
		}
		if info.Flags.Confirmed {
			flags = append(flags, "confirmed")
		}
		flagStr := "-"
		if len(flags) > 0 {
			flagStr = strings.Join(flags, ",")
		}

		fmt.Printf("%-6d %-5d %-9s %-12s %-64s %s\n",
			info.Image, info.Slot, info.State, info.Version, info.HashHex, flagStr)
	}
}
