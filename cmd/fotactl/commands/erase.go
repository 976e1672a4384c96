package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the staging slot",
	RunE:  runErase,
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runErase(cmd *cobra.Command, args []string) error {
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
	if err := target.Finalize(false); err != nil {
		return errors.Wrap(err, "erase failed")
	}

	fmt.Printf("🧹 Slot %d erased (partition %d)\n", cfg.TargetSlot, partition)
	return nil
}
