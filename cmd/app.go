package cmd

import (
	"github.com/urfave/cli/v2"
)

// NewApp builds the prreview command line application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "prreview",
		Usage:   "AI code review for GitHub pull requests and GitLab merge requests",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "prreview.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Commands: []*cli.Command{
			ServeCommand(),
			ReviewCommand(),
			ConfigCommand(),
		},
	}
}
