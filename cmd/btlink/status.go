package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/btlink/internal/console"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the daemon state",
	Long: `Report the daemon's requested and actual run state, the serial
device it runs on, and passthrough statistics.

Status never fails: a daemon that was never started reports both flags
false.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusFormat string

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "table", "Output format (table, json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusFormat != "table" && statusFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be table or json", statusFormat)
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

	st := newController(cfg, logger).Status()
	if statusFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprint(cmd.OutOrStdout(), console.FormatStatus(st))
	return nil
}
