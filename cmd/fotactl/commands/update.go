package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/imgstate"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Schedule the staged image for the next boot",
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config invalid")
	}

	imageType, err := dfu.ParseImageType(cfg.ImageType)
	if err != nil {
		return errors.Wrap(err, "image type invalid")
	}

	board, table, info, closeBoard, err := buildBoard(cfg)
	if err != nil {
		return err
	}
	defer closeBoard()

	partition, err := stagingPartition(board, cfg.TargetSlot)
	if err != nil {
		return errors.Wrap(err, "staging slot unmapped")
	}

	target := dfu.NewTarget(table, info, dfu.WithRecoveryMode(cfg.RecoveryMode))
	if err := target.Init(imageType, partition, cfg.BufferSize, nil); err != nil {
		return errors.Wrap(err, "target init failed")
	}
	if err := target.ScheduleUpdate(cfg.TargetSlot); err != nil {
		return errors.Wrap(err, "schedule failed")
	}

	tracker := imgstate.NewTracker(target)
	infos, err := tracker.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list image state failed")
	}
	printSlots(infos)

	fmt.Printf("✅ Slot %d scheduled for next boot\n", cfg.TargetSlot)
	return nil
}
