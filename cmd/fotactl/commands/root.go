package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fotactl",
	Short: "Firmware OTA update control",
	Long:  `Downloads firmware images into flash slots, schedules them for boot, and inspects installed image state.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("sqlite-path", ".artifacts/attempts.db", "SQLite database path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".artifacts/fsm.db", "FSM BoltDB path")
	rootCmd.PersistentFlags().String("board-file", "board.yaml", "Board flash layout file")
	rootCmd.PersistentFlags().String("transport", "https", "Download transport (https, http, s3)")
	rootCmd.PersistentFlags().String("s3-region", "us-east-1", "S3 region")
	rootCmd.PersistentFlags().String("image-type", "mcuboot", "Update image type")
	rootCmd.PersistentFlags().Int("target-slot", 1, "Slot downloads are staged into")
	rootCmd.PersistentFlags().Int("buffer-size", 2048, "Flash write buffer size in bytes")
	rootCmd.PersistentFlags().String("reset-command", "reboot", "Hardware reset command")

	viper.BindPFlag("sqlite-path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	viper.BindPFlag("fsm-db-path", rootCmd.PersistentFlags().Lookup("fsm-db-path"))
	viper.BindPFlag("board-file", rootCmd.PersistentFlags().Lookup("board-file"))
	viper.BindPFlag("transport", rootCmd.PersistentFlags().Lookup("transport"))
	viper.BindPFlag("s3-region", rootCmd.PersistentFlags().Lookup("s3-region"))
	viper.BindPFlag("image-type", rootCmd.PersistentFlags().Lookup("image-type"))
	viper.BindPFlag("target-slot", rootCmd.PersistentFlags().Lookup("target-slot"))
	viper.BindPFlag("buffer-size", rootCmd.PersistentFlags().Lookup("buffer-size"))
	viper.BindPFlag("reset-command", rootCmd.PersistentFlags().Lookup("reset-command"))
}
