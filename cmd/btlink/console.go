package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srg/btlink/internal/console"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console [device]",
	Short: "Interactive session with the daemon lifecycle",
	Long: `Run an interactive operator console where the daemon lifecycle
spans commands: start a daemon, inspect it with status, stop it, and
run maintenance commands, all within one session.

The optional device argument becomes the default target for mode
switches.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func runConsole(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	device := cfg.Device
	if len(args) == 1 {
		device = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	ctrl := newController(cfg, logger)
	con := console.New(ctrl, device, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	err = con.Run(ctx, os.Stdin)

	// Leave no daemon behind the session.
	if stopErr := ctrl.Stop(); stopErr == nil {
		_ = ctrl.WaitStopped(context.Background())
	}
	return err
}
