package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/prreview/internal/api"
	"github.com/prreview/internal/capture"
	"github.com/prreview/internal/config"
	"github.com/prreview/internal/review"
	"github.com/prreview/internal/webhookutils"
)

// ServeCommand returns the CLI command for starting the webhook server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	if err := config.Validate(cfg, "github"); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := c.Context
	repo, err := review.NewRepositoryClient(ctx, cfg, "github")
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	reviewer, err := review.NewCodeReviewer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI reviewer: %w", err)
	}

	recorder := capture.New(cfg.Debug.CaptureDir)
	svc, err := review.NewServiceFromConfig(cfg, repo, reviewer, recorder)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg.Server, webhookutils.NewVerifier(cfg.Webhook.Secret), svc, recorder)
	return server.Start()
}
