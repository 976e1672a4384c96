// Package recovery forces a hardware-level reset when the software reset
// path is unavailable, e.g. the device booted straight into its
// bootloader.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Controller runs the configured reset command.
type Controller struct {
	command []string

	// run is swappable for tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewController parses the reset command line. The first field is the
// executable, the rest are its arguments.
func NewController(command string) (*Controller, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty reset command: %w", errors.ErrValidation)
	}

	c := &Controller{command: fields}
	c.run = c.execute
	return c, nil
}

func (c *Controller) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// HardwareReset issues the reset command. On a real board this does not
// come back; an error means the command itself could not be run, which
// leaves the device un-reset.
func (c *Controller) HardwareReset(ctx context.Context) error {
	slog.Warn("hardware_reset_requested", "command", strings.Join(c.command, " "))

	if err := c.run(ctx, c.command[0], c.command[1:]...); err != nil {
		slog.Error("hardware_reset_failed", "error", err)
		return errors.Wrap(err, "run hardware reset command")
	}

	slog.Info("hardware_reset_issued")
	return nil
}
