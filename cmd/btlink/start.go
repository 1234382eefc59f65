package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start <device>",
	Short: "Start the radio daemon on a serial device",
	Long: `Bring up the serial link and run the passthrough daemon in the
foreground until interrupted.

The device is opened at the configured speed with CTS/RTS hardware flow
control. Ctrl+C or SIGTERM stops the daemon and closes the link.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func runStart(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctrl := newController(cfg, logger)
	ready, err := ctrl.Start(args[0])
	if err != nil {
		return err
	}
	if err := <-ready; err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "btlink running on %s, Ctrl+C to stop\n", args[0])

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	<-sigCh
	fmt.Fprintln(cmd.OutOrStdout(), "\nstopping...")

	if err := ctrl.Stop(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ctrl.WaitStopped(ctx)
}
