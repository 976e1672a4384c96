package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/recovery"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the device, falling back to the hardware path",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config invalid")
	}

	_, table, info, closeBoard, err := buildBoard(cfg)
	if err != nil {
		return err
	}
	defer closeBoard()

	controller, err := recovery.NewController(cfg.ResetCommand)
	if err != nil {
		return errors.Wrap(err, "reset command invalid")
	}

	target := dfu.NewTarget(table, info, dfu.WithRecoveryMode(cfg.RecoveryMode))
	if err := target.Reset(); err != nil {
		slog.Warn("software_reset_unavailable", "error", err)
		if err := controller.HardwareReset(ctx); err != nil {
			return errors.Wrap(err, "no reset path available")
		}
	}

	fmt.Println("🔄 Reset issued")
	return nil
}
