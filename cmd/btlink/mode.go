package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/btlink/internal/modectl"
)

// modeCmd represents the mode command
var modeCmd = &cobra.Command{
	Use:   "mode <device> <at|default>",
	Short: "Switch the radio between AT and default mode",
	Long: `Switch the radio on <device> into AT command mode or back into
its default passthrough mode.

AT mode is entered with the breakout sequence; default mode is resumed
with AT+RUN. Requires the daemon to be stopped.`,
	Args: cobra.ExactArgs(2),
	RunE: runMode,
}

func init() {
	modeCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func runMode(cmd *cobra.Command, args []string) error {
	target, err := modectl.ParseMode(args[1])
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if err := newController(cfg, logger).SwitchMode(args[0], target); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "radio on %s switched to %s mode\n", args[0], target)
	return nil
}
