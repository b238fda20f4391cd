package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/prreview/internal/capture"
	"github.com/prreview/internal/config"
	"github.com/prreview/internal/logging"
	"github.com/prreview/internal/review"
)

// ReviewCommand returns the review command
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review a pull/merge request once and post the result",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Print the review comment instead of posting it",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Repository host: github or gitlab",
				Value:   "github",
			},
		},
		ArgsUsage: "OWNER/REPO PR_NUMBER",
		Action:    runReview,
	}
}

// parseReviewArgs validates the repository and pull request arguments.
func parseReviewArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("expected OWNER/REPO and PR_NUMBER, got %d arguments", len(args))
	}

	repo := strings.Trim(args[0], "/")
	if !strings.Contains(repo, "/") {
		return "", 0, fmt.Errorf("invalid repository %q: expected OWNER/REPO", args[0])
	}

	number, err := strconv.Atoi(args[1])
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("invalid pull request number %q", args[1])
	}
	return repo, number, nil
}

func runReview(c *cli.Context) error {
	repo, number, err := parseReviewArgs(c.Args().Slice())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	host := c.String("provider")
	if err := config.Validate(cfg, host); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := review.NewRepositoryClient(ctx, cfg, host)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", host, err)
	}

	reviewer, err := review.NewCodeReviewer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI reviewer: %w", err)
	}

	svc, err := review.NewServiceFromConfig(cfg, client, reviewer, capture.New(cfg.Debug.CaptureDir),
		review.WithDryRun(c.Bool("dry-run")))
	if err != nil {
		return err
	}

	logger := logging.ForReview(uuid.NewString(), repo, number)
	result, err := svc.PerformReview(logger.WithContext(ctx), repo, number)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if len(result.Outcomes) == 0 {
		fmt.Fprintln(c.App.Writer, "No files to review")
		return nil
	}

	if c.Bool("dry-run") {
		fmt.Fprintln(c.App.Writer, result.Comment)
		return nil
	}

	fmt.Fprintf(c.App.Writer, "Review posted for %s#%d: %d reviewed, %d failed, %d skipped\n",
		repo, number, len(result.Outcomes)-result.Failed(), result.Failed(), result.Skipped)
	return nil
}
