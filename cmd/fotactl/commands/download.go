package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/superfly/fsm"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/db"
	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/fota"
)

var downloadWait bool

var downloadCmd = &cobra.Command{
	Use:   "download <uri>",
	Short: "Download a firmware image into the staging slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().BoolVar(&downloadWait, "wait", true, "Wait for the terminal outcome")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	uri := args[0]

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config invalid")
	}

	// Ensure all necessary directories exist
	if err := ensureDirectories(cfg.SQLitePath, cfg.FSMDBPath); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

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

	client, err := newDownloadClient(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "download client failed")
	}

	target := dfu.NewTarget(table, info, dfu.WithRecoveryMode(cfg.RecoveryMode))

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	orchestrator, err := fota.NewOrchestrator(ctx, manager, fota.Config{
		Client:     client,
		Target:     target,
		Store:      repo,
		ImageType:  imageType,
		Partition:  partition,
		BufferSize: cfg.BufferSize,
	})
	if err != nil {
		return errors.Wrap(err, "orchestrator failed")
	}

	ticket, err := orchestrator.Start(ctx, uri)
	if err != nil {
		return errors.Wrap(err, "download start failed")
	}

	slog.Info("download_accepted", "attempt_id", ticket.ID, "uri", uri, "partition", partition)

	if !downloadWait {
		fmt.Printf("⬇️  Download %s accepted\n", ticket.ID)
		return nil
	}

	outcome, err := ticket.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, "wait for download")
	}

	switch outcome.Event {
	case fota.EventFinished:
		fmt.Printf("✅ Downloaded %d bytes into slot %d (%s)\n", outcome.Bytes, cfg.TargetSlot, outcome.Digest)
		return nil
	case fota.EventCancelled:
		return fmt.Errorf("download cancelled after %d bytes", outcome.Bytes)
	default:
		if outcome.Err != nil {
			return errors.Wrap(outcome.Err, "download failed")
		}
		return fmt.Errorf("download failed: %s", outcome.Cause)
	}
}
