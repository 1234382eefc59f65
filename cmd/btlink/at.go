package main

import (
	"github.com/spf13/cobra"
)

// atCmd represents the at command
var atCmd = &cobra.Command{
	Use:   "at <device> <command>...",
	Short: "Run raw AT commands against the radio",
	Long: `Send one or more AT commands to the radio on <device> and echo
each numbered command/response pair.

Execution stops at the first command whose response never arrives.
Requires the daemon to be stopped and the radio to be in AT mode.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAT,
}

func init() {
	atCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func runAT(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	return newController(cfg, logger).ExecAT(args[0], args[1:], cmd.OutOrStdout())
}
