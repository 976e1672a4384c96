package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fota-tools/fotactl/pkg/boot"
	"github.com/fota-tools/fotactl/pkg/errors"
)

var mkimageVersion string

var mkimageCmd = &cobra.Command{
	Use:   "mkimage <payload> <output>",
	Short: "Wrap a payload in an update image header",
	Args:  cobra.ExactArgs(2),
	RunE:  runMkimage,
}

func init() {
	rootCmd.AddCommand(mkimageCmd)
	mkimageCmd.Flags().StringVar(&mkimageVersion, "image-version", "0.1.0", "Semantic version stamped into the header")
}

func runMkimage(cmd *cobra.Command, args []string) error {
	payloadPath, outputPath := args[0], args[1]

	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		return errors.Wrap(err, "read payload")
	}

	image, err := boot.BuildImage(mkimageVersion, payload)
	if err != nil {
		return errors.Wrap(err, "build image")
	}

	if err := os.WriteFile(outputPath, image, 0o644); err != nil {
		return errors.Wrap(err, "write image")
	}

	fmt.Printf("📦 Image %s written (%d bytes, version %s)\n", outputPath, len(image), mkimageVersion)
	return nil
}
