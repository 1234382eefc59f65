package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/seriallink"
)

// linkConfig is the optional --config file: serial bring-up parameters
// shared by every command that touches the device.
type linkConfig struct {
	Device      string `yaml:"device"`
	BaudRate    int    `yaml:"baud_rate" default:"9600"`
	IOTimeoutMs int    `yaml:"io_timeout_ms" default:"1000"`
	RetainBytes int    `yaml:"retain_bytes" default:"1024"`
}

// loadConfig returns defaults when --config is unset, otherwise the
// parsed file with unset fields defaulted.
func loadConfig(cmd *cobra.Command) (*linkConfig, error) {
	cfg := &linkConfig{}
	defaults.SetDefaults(cfg)

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BaudRate <= 0 || cfg.IOTimeoutMs <= 0 {
		return nil, fmt.Errorf("config %s: baud_rate and io_timeout_ms must be positive", path)
	}
	return cfg, nil
}

// linkOpener overrides the device opener; tests point it at scripted
// in-memory links. nil uses the real serial port.
var linkOpener daemon.LinkOpener

func newController(cfg *linkConfig, logger *logrus.Logger) *daemon.Controller {
	return daemon.New(&daemon.Options{
		Link: &seriallink.Options{
			BaudRate:  cfg.BaudRate,
			IOTimeout: time.Duration(cfg.IOTimeoutMs) * time.Millisecond,
		},
		Logger:      logger,
		OpenLink:    linkOpener,
		RetainBytes: cfg.RetainBytes,
	})
}
