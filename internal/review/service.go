package review

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prreview/internal/ai"
	"github.com/prreview/internal/apperrors"
	"github.com/prreview/internal/capture"
	"github.com/prreview/internal/providers"
)

// Redactor scrubs secrets from source text before it is sent to a model.
type Redactor interface {
	Redact(content string) (string, []string)
}

// Config holds the review service configuration
type Config struct {
	// Header is the first line of every aggregate comment.
	Header string
	// MaxFileBytes caps the size of a file sent for review; 0 disables it.
	MaxFileBytes int
	// DryRun builds the comment without posting it.
	DryRun bool
}

// Service represents the review orchestration service
type Service struct {
	repo     providers.RepositoryClient
	reviewer ai.CodeReviewer
	config   Config
	redactor Redactor
	capture  *capture.Recorder
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithRedactor enables secret redaction of file content.
func WithRedactor(r Redactor) Option {
	return func(s *Service) { s.redactor = r }
}

// WithCapture records each aggregate comment.
func WithCapture(r *capture.Recorder) Option {
	return func(s *Service) { s.capture = r }
}

// WithDryRun builds the comment without posting it.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) { s.config.DryRun = dryRun }
}

// NewService creates a new review service
func NewService(repo providers.RepositoryClient, reviewer ai.CodeReviewer, config Config, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		reviewer: reviewer,
		config:   config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result contains the results of a review run
type Result struct {
	Repository string
	PRNumber   int
	HeadSHA    string
	Outcomes   []Outcome
	Skipped    int
	Comment    string
	Posted     bool
	Duration   time.Duration
}

// Failed counts outcomes that carry an error.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			n++
		}
	}
	return n
}

// PerformReview reviews every non-removed file of the pull request, one at a
// time in host order, and posts a single aggregate comment. Per-file failures
// become Failure outcomes. Only the pull request/file list fetches and the
// comment submission are fatal.
func (s *Service) PerformReview(ctx context.Context, repo string, prNumber int) (*Result, error) {
	start := time.Now()
	logger := loggerFrom(ctx)
	result := &Result{Repository: repo, PRNumber: prNumber}

	pr, err := s.repo.GetPullRequest(ctx, repo, prNumber)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to fetch pull request")
	}
	result.HeadSHA = pr.HeadSHA

	files, err := s.repo.ListChangedFiles(ctx, repo, prNumber)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to list changed files")
	}

	logger.Info().
		Str("head_sha", pr.HeadSHA).
		Int("files", len(files)).
		Str("host", s.repo.Name()).
		Msg("Starting review")

	for _, file := range files {
		if file.Status == providers.FileRemoved {
			result.Skipped++
			logger.Debug().Str("file", file.Filename).Msg("Skipping removed file")
			continue
		}
		// cancellation stops the loop; files already reviewed are still posted
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Str("file", file.Filename).Msg("Review cancelled")
			break
		}

		outcome := s.reviewFile(ctx, repo, pr.HeadSHA, file.Filename)
		if outcome.Succeeded() {
			logger.Info().Str("file", file.Filename).Msg("File reviewed")
		} else {
			logger.Warn().Err(outcome.Err).Str("file", file.Filename).Msg("File review failed")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Duration = time.Since(start)

	if len(result.Outcomes) == 0 {
		logger.Info().Int("skipped", result.Skipped).Msg("No files to review")
		return result, nil
	}

	result.Comment = BuildComment(s.config.Header, result.Outcomes)
	s.capture.WriteBlob("comment", "md", []byte(result.Comment))

	if s.config.DryRun {
		logger.Info().Msg("Dry run, comment not posted")
		return result, nil
	}

	// A cancelled request context must not prevent posting work already done.
	postCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		postCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
	}
	if err := s.repo.PostComment(postCtx, repo, prNumber, result.Comment); err != nil {
		return result, apperrors.Submission(err)
	}
	result.Posted = true

	logger.Info().
		Int("reviewed", len(result.Outcomes)-result.Failed()).
		Int("failed", result.Failed()).
		Int("skipped", result.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Review posted")

	return result, nil
}

// reviewFile fetches, checks and reviews one file. Every error it meets is
// confined to the returned outcome.
func (s *Service) reviewFile(ctx context.Context, repo, ref, filename string) Outcome {
	content, err := s.repo.GetFileContent(ctx, repo, ref, filename)
	if err != nil {
		return Failure(filename, err)
	}

	if s.config.MaxFileBytes > 0 && len(content) > s.config.MaxFileBytes {
		return Failure(filename, fmt.Errorf("file too large (%d bytes, limit %d)", len(content), s.config.MaxFileBytes))
	}

	if !utf8.Valid(content) {
		return Failure(filename, errors.New("file is not valid UTF-8 text"))
	}

	source := string(content)
	if s.redactor != nil {
		var rules []string
		source, rules = s.redactor.Redact(source)
		if len(rules) > 0 {
			loggerFrom(ctx).Warn().Str("file", filename).Strs("rules", rules).Msg("Redacted secrets before review")
		}
	}

	text, err := s.reviewer.Review(ctx, source)
	if err != nil {
		return Failure(filename, err)
	}
	return Success(filename, text)
}

// loggerFrom returns the review logger stored in ctx, falling back to the
// global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
