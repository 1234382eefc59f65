package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the radio daemon",
	Long: `Stop the radio daemon of this process.

The daemon lives inside the process that started it, so outside a
console session there is nothing to stop and the command fails with
"not running". Inside 'btlink console' the stop command ends the serve
loop started earlier in the same session.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctrl := newController(cfg, logger)
	if err := ctrl.Stop(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "btlink stopping...")
	return nil
}
