package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/btlink/internal/console"
)

// firmwareVersionCmd represents the firmware-version command
var firmwareVersionCmd = &cobra.Command{
	Use:   "firmware-version <device>",
	Short: "Check the radio firmware against the supported minimum",
	Long: `Ask the radio on <device> to identify itself and compare the
reported firmware version against the oldest version the daemon
supports.

Exits non-zero when the radio needs a firmware upgrade. Requires the
daemon to be stopped and the radio to be in AT mode.`,
	Args: cobra.ExactArgs(1),
	RunE: runFirmwareVersion,
}

var firmwareFormat string

func init() {
	firmwareVersionCmd.Flags().StringVarP(&firmwareFormat, "format", "f", "table", "Output format (table, json)")
	firmwareVersionCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func runFirmwareVersion(cmd *cobra.Command, args []string) error {
	if firmwareFormat != "table" && firmwareFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be table or json", firmwareFormat)
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

	res, err := newController(cfg, logger).CheckFirmware(args[0])
	if err != nil {
		return err
	}

	if firmwareFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), console.FormatCheckResult(res))
	}

	if !res.Compatible {
		return errUpgradeRequired
	}
	return nil
}
