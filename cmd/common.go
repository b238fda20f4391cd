package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/prreview/internal/config"
	"github.com/prreview/internal/logging"
)

// loadConfig reads the configuration named by the global --config flag and
// installs the configured logger.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	logging.Setup(level, cfg.Log.Format)
	return cfg, nil
}
